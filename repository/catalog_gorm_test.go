package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainCatalog "github.com/ofertazap/ofertazap/domains/catalog"
)

func TestCatalogRepository_FindByCategories(t *testing.T) {
	repo, err := NewCatalogRepository(openTestDB(t))
	require.NoError(t, err)

	ctx := context.Background()
	seed := []domainCatalog.Product{
		{ID: "prod-c", Name: "Cafeteira", Category: "casa", Price: 89.9},
		{ID: "prod-a", Name: "Fone", Category: "eletronicos", Price: 129.9},
		{ID: "prod-b", Name: "Smartwatch", Category: "eletronicos", Price: 249.0},
	}
	for _, p := range seed {
		require.NoError(t, repo.CreateProduct(ctx, p))
	}

	products, err := repo.FindByCategories(ctx, []string{"eletronicos"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	// Stable id order regardless of insertion order
	assert.Equal(t, "prod-a", products[0].ID)
	assert.Equal(t, "prod-b", products[1].ID)
	assert.NotZero(t, products[0].CreatedAt)

	unknown, err := repo.FindByCategories(ctx, []string{"moda"})
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestCatalogRepository_EmptyCategorySetMatchesAll(t *testing.T) {
	repo, err := NewCatalogRepository(openTestDB(t))
	require.NoError(t, err)

	ctx := context.Background()
	created := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateProduct(ctx, domainCatalog.Product{
		ID: "prod-a", Name: "Fone", Category: "eletronicos", Price: 129.9, CreatedAt: created,
	}))
	require.NoError(t, repo.CreateProduct(ctx, domainCatalog.Product{
		ID: "prod-b", Name: "Cafeteira", Category: "casa", Price: 89.9, CreatedAt: created,
	}))

	products, err := repo.FindByCategories(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainGroup "github.com/ofertazap/ofertazap/domains/group"
)

func TestGroupRepository_RegistryResolution(t *testing.T) {
	repo, err := NewGroupRepository(openTestDB(t))
	require.NoError(t, err)

	ctx := context.Background()
	targets := []domainGroup.Target{
		{ID: "g-1", Handle: "111@g.us", Name: "Ofertas VIP", Active: true},
		{ID: "g-2", Handle: "222@g.us", Name: "Promo Casa", Active: true},
		{ID: "g-3", Handle: "333@g.us", Name: "Arquivado", Active: false},
	}
	for _, target := range targets {
		require.NoError(t, repo.UpsertTarget(ctx, target))
	}

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "g-1", active[0].ID)
	assert.Equal(t, "g-2", active[1].ID)

	// Unknown and inactive ids are silently dropped
	resolved, err := repo.Resolve(ctx, []string{"g-2", "g-3", "ghost"})
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "g-2", resolved[0].ID)

	resolved, err = repo.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestGroupRepository_UpsertUpdatesExisting(t *testing.T) {
	repo, err := NewGroupRepository(openTestDB(t))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, repo.UpsertTarget(ctx, domainGroup.Target{
		ID: "g-1", Handle: "111@g.us", Name: "Ofertas VIP", Active: true,
	}))
	require.NoError(t, repo.UpsertTarget(ctx, domainGroup.Target{
		ID: "g-1", Handle: "111@g.us", Name: "Ofertas VIP", Active: false,
	}))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

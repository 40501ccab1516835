package catalog

import (
	"context"
	"time"
)

// Product is owned by the external catalog; the engine only reads it.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	ImageURL  string    `json:"image_url,omitempty"`
	Link      string    `json:"link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ICatalogQuery filters the catalog down to a program's category set.
// Implementations must return candidates in stable order by id.
type ICatalogQuery interface {
	FindByCategories(ctx context.Context, categories []string) ([]Product, error)
}

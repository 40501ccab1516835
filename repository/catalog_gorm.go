package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	domainCatalog "github.com/ofertazap/ofertazap/domains/catalog"
)

type productModel struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null"`
	Category  string    `gorm:"column:category;not null;index"`
	Price     float64   `gorm:"column:price;not null"`
	ImageURL  string    `gorm:"column:image_url"`
	Link      string    `gorm:"column:link"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (productModel) TableName() string { return "products" }

// CatalogRepository implements the catalog query contract over the product
// table the dashboard's catalog CRUD maintains.
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) (*CatalogRepository, error) {
	if err := db.AutoMigrate(&productModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate products table: %w", err)
	}
	return &CatalogRepository{db: db}, nil
}

// FindByCategories returns the candidates for a program's category set in
// stable id order. An empty category set matches the whole catalog.
func (r *CatalogRepository) FindByCategories(ctx context.Context, categories []string) ([]domainCatalog.Product, error) {
	query := r.db.WithContext(ctx).Order("id")
	if len(categories) > 0 {
		query = query.Where("category IN ?", categories)
	}

	var models []productModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	products := make([]domainCatalog.Product, 0, len(models))
	for _, m := range models {
		products = append(products, domainCatalog.Product{
			ID:        m.ID,
			Name:      m.Name,
			Category:  m.Category,
			Price:     m.Price,
			ImageURL:  m.ImageURL,
			Link:      m.Link,
			CreatedAt: m.CreatedAt,
		})
	}
	return products, nil
}

// CreateProduct inserts a catalog entry. Used by the seed command and tests;
// day-to-day catalog maintenance happens outside the engine.
func (r *CatalogRepository) CreateProduct(ctx context.Context, p domainCatalog.Product) error {
	model := productModel{
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		Link:      p.Link,
		CreatedAt: p.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/models"
	"gorm.io/gorm"
)

// CatalogRepository exposes the read-side lookups the cart needs to resolve
// prices and cost basis. Catalog CRUD is owned by an external service.
type CatalogRepository interface {
	FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	FindDesign(ctx context.Context, designID uuid.UUID) (*models.CustomDesign, error)
}

// GormCatalogRepository implements CatalogRepository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new instance of GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) FindProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormCatalogRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *GormCatalogRepository) FindDesign(ctx context.Context, designID uuid.UUID) (*models.CustomDesign, error) {
	var design models.CustomDesign
	if err := r.db.WithContext(ctx).First(&design, "id = ?", designID).Error; err != nil {
		return nil, err
	}
	return &design, nil
}

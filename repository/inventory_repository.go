package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/models"
	"gorm.io/gorm"
)

// InventoryRepository defines the interface for stock data access
type InventoryRepository interface {
	FindByVariant(ctx context.Context, variantID uuid.UUID) (*models.InventoryRecord, error)
	SetQuantity(ctx context.Context, variantID uuid.UUID, quantity int) (int64, error)
	Increment(ctx context.Context, variantID uuid.UUID, delta int) (int64, error)
	DecrementClamped(ctx context.Context, variantID uuid.UUID, delta int) (int64, error)
}

// GormInventoryRepository implements InventoryRepository using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new instance of GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) InventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	if err := r.db.WithContext(ctx).First(&rec, "variant_id = ?", variantID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *GormInventoryRepository) SetQuantity(ctx context.Context, variantID uuid.UUID, quantity int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("variant_id = ?", variantID).
		Update("quantity", quantity)
	return res.RowsAffected, res.Error
}

func (r *GormInventoryRepository) Increment(ctx context.Context, variantID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("variant_id = ?", variantID).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	return res.RowsAffected, res.Error
}

// DecrementClamped applies an atomic, floored decrement. The clamp at zero is
// an invariant of the data model, not an error path.
func (r *GormInventoryRepository) DecrementClamped(ctx context.Context, variantID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("variant_id = ?", variantID).
		Update("quantity", gorm.Expr("GREATEST(quantity - ?, 0)", delta))
	return res.RowsAffected, res.Error
}

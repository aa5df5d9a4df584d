package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinistryRepository defines the interface for beneficiary data access
type MinistryRepository interface {
	ListActive(ctx context.Context) ([]models.Ministry, error)
	CreateAllocation(ctx context.Context, alloc *models.MinistryAllocation) (bool, error)
	ListAllocations(ctx context.Context, orderID uuid.UUID) ([]models.MinistryAllocation, error)
	MarkDisbursed(ctx context.Context, allocationID uuid.UUID) (int64, error)
}

// GormMinistryRepository implements MinistryRepository using GORM
type GormMinistryRepository struct {
	db *gorm.DB
}

// NewGormMinistryRepository creates a new instance of GormMinistryRepository
func NewGormMinistryRepository(db *gorm.DB) MinistryRepository {
	return &GormMinistryRepository{db: db}
}

// ListActive returns active ministries in descending percentage order, which
// is the order allocations are computed in.
func (r *GormMinistryRepository) ListActive(ctx context.Context) ([]models.Ministry, error) {
	var ministries []models.Ministry
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("allocation_percentage DESC").
		Find(&ministries).Error; err != nil {
		return nil, err
	}
	return ministries, nil
}

// CreateAllocation inserts an allocation with ON CONFLICT DO NOTHING on the
// (order_id, ministry_id) unique key, so a rerun can never double-credit a
// ministry. Returns whether the row was actually created.
func (r *GormMinistryRepository) CreateAllocation(ctx context.Context, alloc *models.MinistryAllocation) (bool, error) {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "order_id"}, {Name: "ministry_id"},
		},
		DoNothing: true,
	}).Create(alloc)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *GormMinistryRepository) ListAllocations(ctx context.Context, orderID uuid.UUID) ([]models.MinistryAllocation, error) {
	var allocations []models.MinistryAllocation
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("amount DESC").
		Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *GormMinistryRepository) MarkDisbursed(ctx context.Context, allocationID uuid.UUID) (int64, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.MinistryAllocation{}).
		Where("id = ? AND disbursed_at IS NULL", allocationID).
		Update("disbursed_at", &now)
	return res.RowsAffected, res.Error
}

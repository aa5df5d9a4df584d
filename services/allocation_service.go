package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/worshipstreet/storefront-backend/common/apperrors"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AllocationSummary is one ministry's computed share of an order's profit.
type AllocationSummary struct {
	MinistryID uuid.UUID       `json:"ministry_id"`
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// AllocationService distributes per-order profit to ministries once a payment
// is confirmed paid
type AllocationService struct {
	orders     repository.OrderRepository
	ministries repository.MinistryRepository
	logger     *zap.Logger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(orders repository.OrderRepository, ministries repository.MinistryRepository, logger *zap.Logger) *AllocationService {
	return &AllocationService{orders: orders, ministries: ministries, logger: logger}
}

// Allocate computes profit = subtotal − Σ(item cost × quantity) and credits
// each active ministry its percentage share, rounded to 2 decimal places per
// ministry independently. The sum of persisted shares may therefore drift
// from the profit by a few cents; that drift is accepted. Profit at or below
// zero writes no rows and returns an empty list — a business rule, not an
// error. Rows insert with a unique (order, ministry) key, so a rerun can
// never double-credit.
func (s *AllocationService) Allocate(ctx context.Context, orderID uuid.UUID) ([]AllocationSummary, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	totalCost := decimal.Zero
	for _, item := range order.OrderItems {
		totalCost = totalCost.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	profit := order.Subtotal.Sub(totalCost)

	if profit.LessThanOrEqual(decimal.Zero) {
		s.logger.Info("No profit to allocate",
			zap.String("order_id", orderID.String()),
			zap.String("profit", profit.StringFixed(2)),
		)
		return []AllocationSummary{}, nil
	}

	ministries, err := s.ministries.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ministries: %w", err)
	}

	hundred := decimal.NewFromInt(100)
	now := time.Now()
	summaries := make([]AllocationSummary, 0, len(ministries))

	for _, ministry := range ministries {
		share := profit.Mul(ministry.AllocationPercentage).Div(hundred).Round(2)
		if share.LessThanOrEqual(decimal.Zero) {
			continue
		}

		created, err := s.ministries.CreateAllocation(ctx, &models.MinistryAllocation{
			OrderID:     orderID,
			MinistryID:  ministry.ID,
			Amount:      share,
			Percentage:  ministry.AllocationPercentage,
			AllocatedAt: now,
		})
		if err != nil {
			// Best-effort per ministry: a failed row must not block the rest.
			s.logger.Error("Failed to persist allocation",
				zap.String("order_id", orderID.String()),
				zap.String("ministry_id", ministry.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if !created {
			s.logger.Info("Allocation already exists, skipping",
				zap.String("order_id", orderID.String()),
				zap.String("ministry_id", ministry.ID.String()),
			)
		}

		summaries = append(summaries, AllocationSummary{
			MinistryID: ministry.ID,
			Name:       ministry.Name,
			Percentage: ministry.AllocationPercentage,
			Amount:     share,
		})
	}

	s.logger.Info("Profit allocated",
		zap.String("order_id", orderID.String()),
		zap.String("profit", profit.StringFixed(2)),
		zap.Int("ministries", len(summaries)),
	)
	return summaries, nil
}

// ListAllocations returns the persisted allocations for an order.
func (s *AllocationService) ListAllocations(ctx context.Context, orderID uuid.UUID) ([]models.MinistryAllocation, error) {
	allocations, err := s.ministries.ListAllocations(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations: %w", err)
	}
	return allocations, nil
}

// MarkDisbursed stamps an allocation as paid out to its ministry.
func (s *AllocationService) MarkDisbursed(ctx context.Context, allocationID uuid.UUID) error {
	rows, err := s.ministries.MarkDisbursed(ctx, allocationID)
	if err != nil {
		return fmt.Errorf("failed to mark allocation disbursed: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("allocation not found or already disbursed")
	}
	return nil
}

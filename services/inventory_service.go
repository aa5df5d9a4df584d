package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/common/apperrors"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stock check reason codes.
const (
	StockReasonNotFound         = "not-found"
	StockReasonUntracked        = "untracked"
	StockReasonInStock          = "in-stock"
	StockReasonBackorderAllowed = "backorder-allowed"
	StockReasonInsufficient     = "insufficient"
)

// Adjustment modes.
const (
	AdjustModeSet       = "set"
	AdjustModeIncrement = "increment"
	AdjustModeDecrement = "decrement"
)

// StockCheck is the result of an availability check. Advisory only: it does
// not reserve stock. The authoritative decrement happens inside the checkout
// transaction.
type StockCheck struct {
	VariantID uuid.UUID `json:"variant_id"`
	Requested int       `json:"requested"`
	Available bool      `json:"available"`
	Reason    string    `json:"reason"`
	OnHand    int       `json:"on_hand"`
}

// InventoryService handles business logic for stock checks and adjustments
type InventoryService struct {
	repo   repository.InventoryRepository
	logger *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(repo repository.InventoryRepository, logger *zap.Logger) *InventoryService {
	return &InventoryService{repo: repo, logger: logger}
}

// Check reports whether requiredQty of a variant can be sold right now, with a
// reason code. A missing record reads as unavailable; untracked variants are
// unconditionally available.
func (s *InventoryService) Check(ctx context.Context, variantID uuid.UUID, requiredQty int) (*StockCheck, error) {
	check := &StockCheck{VariantID: variantID, Requested: requiredQty}

	rec, err := s.repo.FindByVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			check.Reason = StockReasonNotFound
			return check, nil
		}
		return nil, fmt.Errorf("failed to check stock for variant=%s: %w", variantID, err)
	}

	check.OnHand = rec.Quantity

	switch {
	case !rec.TrackInventory:
		check.Available = true
		check.Reason = StockReasonUntracked
	case rec.Quantity >= requiredQty:
		check.Available = true
		check.Reason = StockReasonInStock
	case rec.AllowBackorder:
		check.Available = true
		check.Reason = StockReasonBackorderAllowed
	default:
		check.Reason = StockReasonInsufficient
	}

	return check, nil
}

// Adjust mutates a variant's stock counter. Set overwrites, increment and
// decrement apply deltas; decrement clamps at zero rather than failing.
func (s *InventoryService) Adjust(ctx context.Context, variantID uuid.UUID, delta int, mode string) (*models.InventoryRecord, error) {
	var rows int64
	var err error

	switch mode {
	case AdjustModeSet:
		if delta < 0 {
			return nil, apperrors.Validation("stock quantity cannot be set below zero")
		}
		rows, err = s.repo.SetQuantity(ctx, variantID, delta)
	case AdjustModeIncrement:
		rows, err = s.repo.Increment(ctx, variantID, delta)
	case AdjustModeDecrement:
		rows, err = s.repo.DecrementClamped(ctx, variantID, delta)
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unknown adjustment mode %q", mode))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to adjust stock for variant=%s: %w", variantID, err)
	}
	if rows == 0 {
		return nil, apperrors.NotFound("inventory record not found")
	}

	rec, err := s.repo.FindByVariant(ctx, variantID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload stock for variant=%s: %w", variantID, err)
	}

	s.logger.Info("Stock adjusted",
		zap.String("variant_id", variantID.String()),
		zap.String("mode", mode),
		zap.Int("delta", delta),
		zap.Int("quantity", rec.Quantity),
	)
	return rec, nil
}

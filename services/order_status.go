package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/common/apperrors"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The three status axes advance independently. No transition reverses except
// through the cancelled/refunded escape states.
var orderStatusTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:  {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusRefunded},
	models.OrderStatusDelivered:  {models.OrderStatusRefunded},
	// An order cancelled after capture can still have its payment refunded.
	models.OrderStatusCancelled: {models.OrderStatusRefunded},
	models.OrderStatusRefunded:  {},
}

var paymentStatusTransitions = map[string][]string{
	models.PaymentStatusPending: {models.PaymentStatusPaid, models.PaymentStatusFailed},
	models.PaymentStatusFailed:  {models.PaymentStatusPaid},
	models.PaymentStatusPaid: {
		models.PaymentStatusRefunded, models.PaymentStatusPartiallyRefunded,
	},
	models.PaymentStatusPartiallyRefunded: {models.PaymentStatusRefunded},
	models.PaymentStatusRefunded:          {},
}

// Transition timestamps stamped on the order row.
var orderStatusStamps = map[string]string{
	models.OrderStatusConfirmed: "confirmed_at",
	models.OrderStatusShipped:   "shipped_at",
	models.OrderStatusDelivered: "delivered_at",
	models.OrderStatusCancelled: "cancelled_at",
}

// ValidateOrderTransition reports whether the order-status axis may move from
// one state to another.
func ValidateOrderTransition(from, to string) error {
	allowed, ok := orderStatusTransitions[from]
	if !ok {
		return apperrors.Validation(fmt.Sprintf("unknown order status %q", from))
	}
	for _, next := range allowed {
		if next == to {
			return nil
		}
	}
	return apperrors.Validation(fmt.Sprintf("cannot transition order from %q to %q", from, to))
}

// ValidatePaymentTransition reports whether the payment axis may move.
func ValidatePaymentTransition(from, to string) error {
	allowed, ok := paymentStatusTransitions[from]
	if !ok {
		return apperrors.Validation(fmt.Sprintf("unknown payment status %q", from))
	}
	for _, next := range allowed {
		if next == to {
			return nil
		}
	}
	return apperrors.Validation(fmt.Sprintf("cannot transition payment from %q to %q", from, to))
}

// OrderStatusService governs order and fulfillment status transitions
type OrderStatusService struct {
	orders repository.OrderRepository
	logger *zap.Logger
}

// NewOrderStatusService creates a new OrderStatusService
func NewOrderStatusService(orders repository.OrderRepository, logger *zap.Logger) *OrderStatusService {
	return &OrderStatusService{orders: orders, logger: logger}
}

// SetStatus advances the order-status axis, stamping the matching timestamp
// column for confirmed/shipped/delivered/cancelled.
func (s *OrderStatusService) SetStatus(ctx context.Context, orderID uuid.UUID, status string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ValidateOrderTransition(order.Status, status); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": status}
	if column, ok := orderStatusStamps[status]; ok {
		now := time.Now()
		updates[column] = &now
	}
	if err := s.orders.UpdateFields(ctx, orderID, updates); err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", order.Status),
		zap.String("to", status),
	)
	return s.loadOrder(ctx, orderID)
}

// FulfillItems marks the named order items fulfilled, timestamps them, then
// recomputes the order's fulfillment axis: fulfilled when no items remain
// unfulfilled, else partial.
func (s *OrderStatusService) FulfillItems(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID) (*models.Order, error) {
	if len(itemIDs) == 0 {
		return nil, apperrors.Validation("item_ids is required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	known := make(map[uuid.UUID]bool, len(order.OrderItems))
	for _, item := range order.OrderItems {
		known[item.ID] = true
	}
	for _, id := range itemIDs {
		if !known[id] {
			return nil, apperrors.NotFound(fmt.Sprintf("order item %s not found", id))
		}
	}

	now := time.Now()
	if _, err := s.orders.UpdateItemFields(ctx, orderID, itemIDs, map[string]interface{}{
		"fulfillment_status": models.FulfillmentStatusFulfilled,
		"fulfilled_at":       &now,
	}); err != nil {
		return nil, fmt.Errorf("failed to fulfill items: %w", err)
	}

	items, err := s.orders.ItemsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order items: %w", err)
	}

	fulfillment := models.FulfillmentStatusFulfilled
	for _, item := range items {
		if item.FulfillmentStatus != models.FulfillmentStatusFulfilled {
			fulfillment = models.FulfillmentStatusPartial
			break
		}
	}

	if err := s.orders.UpdateFields(ctx, orderID, map[string]interface{}{
		"fulfillment_status": fulfillment,
	}); err != nil {
		return nil, fmt.Errorf("failed to update fulfillment status: %w", err)
	}

	s.logger.Info("Order items fulfilled",
		zap.String("order_id", orderID.String()),
		zap.Int("items", len(itemIDs)),
		zap.String("fulfillment_status", fulfillment),
	)
	return s.loadOrder(ctx, orderID)
}

// GetOrder returns an order with its items.
func (s *OrderStatusService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.loadOrder(ctx, orderID)
}

func (s *OrderStatusService) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

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

// ProfitAllocator is the paid-signal hook. Satisfied by AllocationService.
type ProfitAllocator interface {
	Allocate(ctx context.Context, orderID uuid.UUID) ([]AllocationSummary, error)
}

// transactionPatchWhitelist limits UpdateTransaction to the mutable columns.
var transactionPatchWhitelist = map[string]bool{
	"status":          true,
	"gateway_payload": true,
	"processed_at":    true,
}

// AddTransactionInput is one provider event to append to the ledger.
type AddTransactionInput struct {
	ProviderTxnID  string
	Method         string
	Type           string
	Amount         decimal.Decimal
	Currency       string
	Status         string
	GatewayPayload string
}

// CompletePaymentInput carries the capture-callback payload.
type CompletePaymentInput struct {
	Method         string
	Amount         *decimal.Decimal
	Currency       string
	GatewayPayload string
}

// CompletePaymentResult reports whether this delivery was the first for its
// provider transaction id and, when it was, the allocations it triggered.
type CompletePaymentResult struct {
	AlreadyProcessed bool                `json:"already_processed"`
	TransactionID    uuid.UUID           `json:"transaction_id,omitempty"`
	Allocations      []AllocationSummary `json:"allocations,omitempty"`
}

// PaymentService records payment transactions against orders and enforces
// idempotent completion
type PaymentService struct {
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	allocator ProfitAllocator
	logger    *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	allocator ProfitAllocator,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		orders:    orders,
		allocator: allocator,
		logger:    logger,
	}
}

// AddTransaction appends a provider event to the ledger. Not idempotent by
// itself; capture callbacks go through CompletePayment instead.
func (s *PaymentService) AddTransaction(ctx context.Context, orderID uuid.UUID, input AddTransactionInput) (*models.PaymentTransaction, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	txn := &models.PaymentTransaction{
		OrderID:        order.ID,
		ProviderTxnID:  input.ProviderTxnID,
		Method:         input.Method,
		Type:           input.Type,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Status:         input.Status,
		GatewayPayload: input.GatewayPayload,
	}
	if txn.Currency == "" {
		txn.Currency = order.Currency
	}
	if err := s.payments.Append(ctx, txn); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("transaction already recorded for this order")
		}
		return nil, fmt.Errorf("failed to record transaction: %w", err)
	}
	return txn, nil
}

// CompletePayment is the idempotent capture-callback entry point. Only the
// first call for a given provider transaction id records the transaction and
// flips the order's payment status to paid; that same first call triggers the
// profit allocator. A duplicate delivery is a no-op that still reports
// success, because providers retry on ambiguous responses. A fresh transaction
// id against an order that is already paid or refunded is rejected as a
// conflict: a late capture must never reverse a refund. Allocation failure
// after the payment is recorded is logged and never unwinds the payment.
func (s *PaymentService) CompletePayment(ctx context.Context, orderID uuid.UUID, providerTxnID string, input CompletePaymentInput) (*CompletePaymentResult, error) {
	if providerTxnID == "" {
		return nil, apperrors.Validation("provider transaction id is required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	amount := order.TotalAmount
	if input.Amount != nil {
		amount = *input.Amount
	}
	method := input.Method
	if method == "" {
		method = "paypal"
	}
	currency := input.Currency
	if currency == "" {
		currency = order.Currency
	}

	now := time.Now()
	txn := &models.PaymentTransaction{
		OrderID:        order.ID,
		ProviderTxnID:  providerTxnID,
		Method:         method,
		Type:           models.TxnTypeCapture,
		Amount:         amount,
		Currency:       currency,
		Status:         models.TxnStatusCompleted,
		GatewayPayload: input.GatewayPayload,
		ProcessedAt:    &now,
	}

	inserted, err := s.payments.RecordCompletion(ctx, txn)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotPayable) {
			return nil, apperrors.Conflict(fmt.Sprintf(
				"cannot capture payment for order in payment status %q", order.PaymentStatus))
		}
		return nil, fmt.Errorf("failed to record payment completion: %w", err)
	}
	if !inserted {
		s.logger.Info("Duplicate payment capture, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("provider_txn_id", providerTxnID),
		)
		return &CompletePaymentResult{AlreadyProcessed: true}, nil
	}

	result := &CompletePaymentResult{TransactionID: txn.ID}
	allocations, err := s.allocator.Allocate(ctx, orderID)
	if err != nil {
		s.logger.Error("Profit allocation failed after payment capture",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return result, nil
	}
	result.Allocations = allocations

	s.logger.Info("Payment completed",
		zap.String("order_id", orderID.String()),
		zap.String("provider_txn_id", providerTxnID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return result, nil
}

// UpdateTransaction patches a transaction, restricted to the mutable-field
// whitelist.
func (s *PaymentService) UpdateTransaction(ctx context.Context, providerTxnID string, patch map[string]interface{}) error {
	updates := make(map[string]interface{}, len(patch))
	for key, value := range patch {
		if !transactionPatchWhitelist[key] {
			return apperrors.Validation(fmt.Sprintf("field %q is not updatable", key))
		}
		updates[key] = value
	}
	if len(updates) == 0 {
		return apperrors.Validation("no updatable fields provided")
	}

	rows, err := s.payments.UpdateByProviderTxnID(ctx, providerTxnID, updates)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("transaction not found")
	}
	return nil
}

// SetPaymentStatus moves the order's payment axis through the status machine.
// A transition to paid triggers allocation; the allocation table's unique key
// keeps a repeat trigger from double-crediting.
func (s *PaymentService) SetPaymentStatus(ctx context.Context, orderID uuid.UUID, status string) ([]AllocationSummary, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := ValidatePaymentTransition(order.PaymentStatus, status); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"payment_status": status}
	if status == models.PaymentStatusPaid {
		now := time.Now()
		updates["paid_at"] = &now
	}
	if err := s.orders.UpdateFields(ctx, orderID, updates); err != nil {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	s.logger.Info("Payment status updated",
		zap.String("order_id", orderID.String()),
		zap.String("from", order.PaymentStatus),
		zap.String("to", status),
	)

	if status != models.PaymentStatusPaid {
		return nil, nil
	}

	allocations, err := s.allocator.Allocate(ctx, orderID)
	if err != nil {
		s.logger.Error("Profit allocation failed after status change",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
		return nil, nil
	}
	return allocations, nil
}

// ListTransactions returns the ledger rows for an order.
func (s *PaymentService) ListTransactions(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	txns, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	return txns, nil
}

func (s *PaymentService) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}

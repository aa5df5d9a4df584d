package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/worshipstreet/storefront-backend/common/apperrors"
	"github.com/worshipstreet/storefront-backend/models"
	"go.uber.org/zap"
)

type countingAllocator struct {
	calls int
	err   error
	out   []AllocationSummary
}

func (a *countingAllocator) Allocate(_ context.Context, _ uuid.UUID) ([]AllocationSummary, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.out, nil
}

func seedOrder(orders *mockOrderRepo) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "WS-2026-00042",
		Email:         "grace@example.com",
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		Currency:      "USD",
		Subtotal:      decimal.NewFromInt(100),
		TotalAmount:   decimal.NewFromFloat(114.24),
	}
	orders.orders[order.ID] = order
	return order
}

func newTestPaymentService(orders *mockOrderRepo, allocator ProfitAllocator) (*PaymentService, *mockPaymentRepo) {
	payments := &mockPaymentRepo{orders: orders}
	svc := NewPaymentService(payments, orders, allocator, zap.NewNop())
	return svc, payments
}

func TestCompletePayment_FirstDeliveryCapturesAndAllocates(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	allocator := &countingAllocator{out: []AllocationSummary{{Amount: decimal.NewFromInt(42)}}}
	svc, payments := newTestPaymentService(orders, allocator)

	result, err := svc.CompletePayment(context.Background(), order.ID, "PAYPAL-001", CompletePaymentInput{})
	require.NoError(t, err)

	assert.False(t, result.AlreadyProcessed)
	assert.NotEqual(t, uuid.Nil, result.TransactionID)
	assert.Len(t, result.Allocations, 1)
	assert.Equal(t, 1, allocator.calls)

	require.Len(t, payments.txns, 1)
	txn := payments.txns[0]
	assert.Equal(t, models.TxnTypeCapture, txn.Type)
	assert.Equal(t, models.TxnStatusCompleted, txn.Status)
	assert.Equal(t, "114.24", txn.Amount.StringFixed(2))

	assert.Equal(t, models.PaymentStatusPaid, orders.orders[order.ID].PaymentStatus)
	assert.NotNil(t, orders.orders[order.ID].PaidAt)
}

func TestCompletePayment_DuplicateDeliveryIsNoOp(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	allocator := &countingAllocator{}
	svc, payments := newTestPaymentService(orders, allocator)

	_, err := svc.CompletePayment(context.Background(), order.ID, "PAYPAL-001", CompletePaymentInput{})
	require.NoError(t, err)

	// The provider retries with the same transaction id.
	result, err := svc.CompletePayment(context.Background(), order.ID, "PAYPAL-001", CompletePaymentInput{})
	require.NoError(t, err)

	assert.True(t, result.AlreadyProcessed)
	assert.Len(t, payments.txns, 1)
	assert.Equal(t, 1, allocator.calls)
}

func TestCompletePayment_AllocationFailureKeepsPayment(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	allocator := &countingAllocator{err: errors.New("ministries unavailable")}
	svc, payments := newTestPaymentService(orders, allocator)

	result, err := svc.CompletePayment(context.Background(), order.ID, "PAYPAL-001", CompletePaymentInput{})
	require.NoError(t, err)

	assert.False(t, result.AlreadyProcessed)
	assert.Empty(t, result.Allocations)
	assert.Len(t, payments.txns, 1)
	assert.Equal(t, models.PaymentStatusPaid, orders.orders[order.ID].PaymentStatus)
}

func TestCompletePayment_LateCaptureCannotRevertRefund(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	orders.orders[order.ID].PaymentStatus = models.PaymentStatusRefunded
	allocator := &countingAllocator{}
	svc, payments := newTestPaymentService(orders, allocator)

	// A stray provider retry with a txn id never seen before.
	_, err := svc.CompletePayment(context.Background(), order.ID, "PAYPAL-LATE-999", CompletePaymentInput{})

	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Equal(t, models.PaymentStatusRefunded, orders.orders[order.ID].PaymentStatus)
	assert.Empty(t, payments.txns)
	assert.Equal(t, 0, allocator.calls)
}

func TestCompletePayment_FreshTxnOnPaidOrderConflicts(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	allocator := &countingAllocator{}
	svc, payments := newTestPaymentService(orders, allocator)

	_, err := svc.CompletePayment(context.Background(), order.ID, "PAYPAL-001", CompletePaymentInput{})
	require.NoError(t, err)

	// A different txn id against the now-paid order must not re-capture.
	_, err = svc.CompletePayment(context.Background(), order.ID, "PAYPAL-002", CompletePaymentInput{})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
	assert.Len(t, payments.txns, 1)
	assert.Equal(t, 1, allocator.calls)
}

func TestCompletePayment_RequiresProviderTxnID(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	svc, _ := newTestPaymentService(orders, &countingAllocator{})

	_, err := svc.CompletePayment(context.Background(), order.ID, "", CompletePaymentInput{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestCompletePayment_ExplicitAmountOverridesOrderTotal(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	svc, payments := newTestPaymentService(orders, &countingAllocator{})

	amount := decimal.NewFromFloat(50.00)
	_, err := svc.CompletePayment(context.Background(), order.ID, "PAYPAL-002", CompletePaymentInput{Amount: &amount})
	require.NoError(t, err)

	require.Len(t, payments.txns, 1)
	assert.Equal(t, "50.00", payments.txns[0].Amount.StringFixed(2))
}

func TestAddTransaction_DuplicateProviderTxnConflicts(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	svc, _ := newTestPaymentService(orders, &countingAllocator{})

	input := AddTransactionInput{
		ProviderTxnID: "PAYPAL-003",
		Method:        "paypal",
		Type:          models.TxnTypeSale,
		Amount:        decimal.NewFromInt(10),
		Status:        models.TxnStatusPending,
	}
	txn, err := svc.AddTransaction(context.Background(), order.ID, input)
	require.NoError(t, err)
	assert.Equal(t, order.Currency, txn.Currency)

	_, err = svc.AddTransaction(context.Background(), order.ID, input)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestUpdateTransaction_RejectsNonWhitelistedFields(t *testing.T) {
	orders := newMockOrderRepo()
	svc, _ := newTestPaymentService(orders, &countingAllocator{})

	err := svc.UpdateTransaction(context.Background(), "PAYPAL-001", map[string]interface{}{
		"amount": "999.99",
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestUpdateTransaction_PatchesWhitelistedFields(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	svc, payments := newTestPaymentService(orders, &countingAllocator{})

	_, err := svc.AddTransaction(context.Background(), order.ID, AddTransactionInput{
		ProviderTxnID: "PAYPAL-004",
		Method:        "paypal",
		Type:          models.TxnTypeSale,
		Amount:        decimal.NewFromInt(10),
		Status:        models.TxnStatusPending,
	})
	require.NoError(t, err)

	err = svc.UpdateTransaction(context.Background(), "PAYPAL-004", map[string]interface{}{
		"status": models.TxnStatusFailed,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TxnStatusFailed, payments.txns[0].Status)
}

func TestUpdateTransaction_UnknownTxnNotFound(t *testing.T) {
	orders := newMockOrderRepo()
	svc, _ := newTestPaymentService(orders, &countingAllocator{})

	err := svc.UpdateTransaction(context.Background(), "PAYPAL-MISSING", map[string]interface{}{
		"status": models.TxnStatusFailed,
	})
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
}

func TestSetPaymentStatus_PaidTriggersAllocation(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	allocator := &countingAllocator{out: []AllocationSummary{{Amount: decimal.NewFromInt(42)}}}
	svc, _ := newTestPaymentService(orders, allocator)

	allocations, err := svc.SetPaymentStatus(context.Background(), order.ID, models.PaymentStatusPaid)
	require.NoError(t, err)

	assert.Len(t, allocations, 1)
	assert.Equal(t, 1, allocator.calls)
	assert.Equal(t, models.PaymentStatusPaid, orders.orders[order.ID].PaymentStatus)
	assert.NotNil(t, orders.orders[order.ID].PaidAt)
}

func TestSetPaymentStatus_InvalidTransitionRejected(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	orders.orders[order.ID].PaymentStatus = models.PaymentStatusRefunded
	svc, _ := newTestPaymentService(orders, &countingAllocator{})

	_, err := svc.SetPaymentStatus(context.Background(), order.ID, models.PaymentStatusPaid)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestSetPaymentStatus_NonPaidDoesNotAllocate(t *testing.T) {
	orders := newMockOrderRepo()
	order := seedOrder(orders)
	allocator := &countingAllocator{}
	svc, _ := newTestPaymentService(orders, allocator)

	allocations, err := svc.SetPaymentStatus(context.Background(), order.ID, models.PaymentStatusFailed)
	require.NoError(t, err)

	assert.Nil(t, allocations)
	assert.Equal(t, 0, allocator.calls)
}

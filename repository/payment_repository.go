package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrOrderNotPayable is returned by RecordCompletion when the order's payment
// axis is not in a state that accepts a capture (pending or failed).
var ErrOrderNotPayable = errors.New("order is not in a payable state")

// PaymentRepository defines the interface for payment ledger access
type PaymentRepository interface {
	Append(ctx context.Context, txn *models.PaymentTransaction) error
	RecordCompletion(ctx context.Context, txn *models.PaymentTransaction) (bool, error)
	FindByProviderTxnID(ctx context.Context, orderID uuid.UUID, providerTxnID string) (*models.PaymentTransaction, error)
	UpdateByProviderTxnID(ctx context.Context, providerTxnID string, updates map[string]interface{}) (int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error)
}

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new instance of GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Append(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// RecordCompletion is the idempotency gate for payment capture callbacks. In
// one transaction it inserts the transaction with ON CONFLICT DO NOTHING on
// the (order_id, provider_txn_id) unique key and, only when the row was
// actually inserted, flips the order's payment status to paid. The status
// update is guarded to pending/failed orders: a fresh transaction id against
// an order that is already paid or refunded rolls back with
// ErrOrderNotPayable, so a late capture can never reverse a refund. Returns
// whether this call was the first delivery.
func (r *GormPaymentRepository) RecordCompletion(ctx context.Context, txn *models.PaymentTransaction) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "order_id"}, {Name: "provider_txn_id"},
			},
			DoNothing: true,
		}).Create(txn)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Duplicate delivery: ledger state untouched.
			return nil
		}
		now := time.Now()
		res = tx.Model(&models.Order{}).
			Where("id = ? AND payment_status IN ?", txn.OrderID,
				[]string{models.PaymentStatusPending, models.PaymentStatusFailed}).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentStatusPaid,
				"paid_at":        &now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Rolls back the inserted transaction row too.
			return ErrOrderNotPayable
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

func (r *GormPaymentRepository) FindByProviderTxnID(ctx context.Context, orderID uuid.UUID, providerTxnID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND provider_txn_id = ?", orderID, providerTxnID).
		First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *GormPaymentRepository) UpdateByProviderTxnID(ctx context.Context, providerTxnID string, updates map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("provider_txn_id = ?", providerTxnID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *GormPaymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

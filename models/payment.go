package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentTransaction is one payment-provider event against an order. Rows are
// append-only; the (order_id, provider_txn_id) unique index is the idempotency
// gate for duplicate capture callbacks.
type PaymentTransaction struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_provider_txn" json:"order_id"`
	ProviderTxnID  string          `gorm:"type:varchar(128);not null;uniqueIndex:idx_order_provider_txn" json:"provider_txn_id"`
	Method         string          `gorm:"type:varchar(32);not null" json:"method"`
	Type           string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status         string          `gorm:"type:varchar(20);not null" json:"status"`
	GatewayPayload string          `gorm:"type:text" json:"-"`
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// Payment transaction types and statuses.
const (
	TxnTypeSale    = "sale"
	TxnTypeCapture = "capture"
	TxnTypeRefund  = "refund"

	TxnStatusCompleted = "completed"
	TxnStatusFailed    = "failed"
	TxnStatusPending   = "pending"
)

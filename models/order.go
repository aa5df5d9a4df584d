package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order status values. Three independently-advancing axes: order status,
// payment status, fulfillment status.
const (
	OrderStatusPending    = "pending"
	OrderStatusConfirmed  = "confirmed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
	OrderStatusRefunded   = "refunded"

	PaymentStatusPending           = "pending"
	PaymentStatusPaid              = "paid"
	PaymentStatusFailed            = "failed"
	PaymentStatusRefunded          = "refunded"
	PaymentStatusPartiallyRefunded = "partially_refunded"

	FulfillmentStatusUnfulfilled = "unfulfilled"
	FulfillmentStatusPartial     = "partial"
	FulfillmentStatusFulfilled   = "fulfilled"
)

// Address is the billing/shipping snapshot frozen onto an order at checkout.
type Address struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone,omitempty"`
}

// Order is created once from a cart and never has its totals recomputed.
// Only the status axes and their timestamp stamps mutate afterwards.
type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber       string          `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	UserID            *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Email             string          `gorm:"not null" json:"email"`
	Status            string          `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentStatus     string          `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	FulfillmentStatus string          `gorm:"type:varchar(20);not null;default:'unfulfilled'" json:"fulfillment_status"`
	PaymentMethod     string          `gorm:"type:varchar(32)" json:"payment_method"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	TaxAmount         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"tax_amount"`
	ShippingAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"shipping_amount"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	BillingAddress    Address         `gorm:"serializer:json;type:jsonb" json:"billing_address"`
	ShippingAddress   Address         `gorm:"serializer:json;type:jsonb" json:"shipping_address"`
	Notes             string          `json:"notes,omitempty"`
	ConfirmedAt       *time.Time      `json:"confirmed_at,omitempty"`
	ShippedAt         *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt       *time.Time      `json:"cancelled_at,omitempty"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	OrderItems        []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
}

// OrderItem is a frozen copy of a cart line. Product fields are snapshots as
// of checkout and must never be re-derived from live catalog data. Only the
// fulfillment columns mutate after creation.
type OrderItem struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	VariantID         uuid.UUID       `gorm:"type:uuid;not null;default:'00000000-0000-0000-0000-000000000000'" json:"variant_id"`
	CustomDesignID    uuid.UUID       `gorm:"type:uuid;not null;default:'00000000-0000-0000-0000-000000000000'" json:"custom_design_id"`
	ProductName       string          `gorm:"not null" json:"product_name"`
	VariantTitle      string          `json:"variant_title"`
	SKU               string          `gorm:"type:varchar(64)" json:"sku"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"-"`
	FulfillmentStatus string          `gorm:"type:varchar(20);not null;default:'unfulfilled'" json:"fulfillment_status"`
	FulfilledAt       *time.Time      `json:"fulfilled_at,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

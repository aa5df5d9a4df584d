package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a mutable basket owned by exactly one of a user or a guest session.
// Expired carts are inert until the periodic sweep removes them.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SessionID *string    `gorm:"type:varchar(128);index" json:"session_id,omitempty"`
	Currency  string     `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

// CartItem is one product/variant/custom-design line. VariantID and
// CustomDesignID use uuid.Nil for "none" and are stored not-null so the
// four-column uniqueness index can back an ON CONFLICT increment.
// Snapshot columns (name, title, SKU, unit cost) are captured at add time so
// checkout can freeze them without re-reading live catalog data.
type CartItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line" json:"cart_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_cart_line" json:"product_id"`
	VariantID      uuid.UUID       `gorm:"type:uuid;not null;default:'00000000-0000-0000-0000-000000000000';uniqueIndex:idx_cart_line" json:"variant_id"`
	CustomDesignID uuid.UUID       `gorm:"type:uuid;not null;default:'00000000-0000-0000-0000-000000000000';uniqueIndex:idx_cart_line" json:"custom_design_id"`
	ProductName    string          `gorm:"not null" json:"product_name"`
	VariantTitle   string          `json:"variant_title"`
	SKU            string          `gorm:"type:varchar(64)" json:"sku"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"-"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

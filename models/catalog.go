package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product carries the attributes the cart and checkout need to resolve prices
// and cost basis. Catalog management itself lives outside this service.
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	SKU       string          `gorm:"type:varchar(64);uniqueIndex" json:"sku"`
	BasePrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"base_price"`
	CostPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"cost_price"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductVariant overrides the base price when it carries its own. Its stock
// state lives in InventoryRecord, keyed by variant id.
type ProductVariant struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Title     string           `gorm:"not null" json:"title"`
	SKU       string           `gorm:"type:varchar(64);uniqueIndex" json:"sku"`
	Price     *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price,omitempty"`
	IsActive  bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// CustomDesign is a customer-supplied design priced independently of the
// product it is printed on.
type CustomDesign struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// InventoryRecord is the stock state of a purchasable variant. Quantity never
// goes negative; decrements clamp at zero in SQL.
type InventoryRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	VariantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"variant_id"`
	Quantity       int       `gorm:"not null;default:0" json:"quantity"`
	TrackInventory bool      `gorm:"not null;default:true" json:"track_inventory"`
	AllowBackorder bool      `gorm:"not null;default:false" json:"allow_backorder"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

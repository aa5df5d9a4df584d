package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ministry is a beneficiary account credited with a share of per-order profit.
// Percentages are independent and are not required to sum to 100; any residual
// stays with the store.
type Ministry struct {
	ID                   uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name                 string          `gorm:"not null;uniqueIndex" json:"name"`
	Description          string          `json:"description,omitempty"`
	AllocationPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"allocation_percentage"`
	IsActive             bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt            time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// MinistryAllocation is a profit share credited to one ministry for one order.
// Created at most once per (order, ministry); only disbursed_at mutates later.
type MinistryAllocation struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_ministry" json:"order_id"`
	MinistryID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_ministry" json:"ministry_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	Percentage  decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"percentage"`
	AllocatedAt time.Time       `gorm:"not null" json:"allocated_at"`
	DisbursedAt *time.Time      `json:"disbursed_at,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

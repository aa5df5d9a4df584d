package services

import (
	"github.com/shopspring/decimal"
	"github.com/worshipstreet/storefront-backend/config"
)

// PricingPolicy is the single source of truth for totals math. Both cart
// totals and checkout order creation go through it, so the tax rate and
// free-shipping threshold cannot drift apart between the two call sites.
type PricingPolicy struct {
	TaxRate               decimal.Decimal
	ShippingFee           decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// NewPricingPolicy builds the policy from configuration.
func NewPricingPolicy(cfg *config.Config) PricingPolicy {
	return PricingPolicy{
		TaxRate:               cfg.TaxRate,
		ShippingFee:           cfg.ShippingFee,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}
}

// CartTotals is the derived money breakdown for a set of cart lines.
type CartTotals struct {
	ItemCount int             `json:"item_count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

// Totals derives tax, shipping and the grand total from a subtotal. Pure:
// re-derivable at any time without side effects. Tax is a flat rate on the
// subtotal; shipping is a flat fee waived at or above the free-shipping
// threshold and for empty carts.
func (p PricingPolicy) Totals(subtotal decimal.Decimal, itemCount int) CartTotals {
	tax := subtotal.Mul(p.TaxRate).Round(2)

	shipping := decimal.Zero
	if itemCount > 0 && subtotal.LessThan(p.FreeShippingThreshold) {
		shipping = p.ShippingFee
	}

	return CartTotals{
		ItemCount: itemCount,
		Subtotal:  subtotal.Round(2),
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping).Round(2),
	}
}

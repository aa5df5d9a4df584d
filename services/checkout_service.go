package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/worshipstreet/storefront-backend/common/apperrors"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// orderNumberAttempts bounds the regeneration loop on order-number collision.
const orderNumberAttempts = 5

// CheckoutInput is the request to convert a cart into an order.
type CheckoutInput struct {
	CartID          uuid.UUID
	UserID          *uuid.UUID
	Email           string
	PaymentMethod   string
	Notes           string
	BillingAddress  models.Address
	ShippingAddress models.Address
}

// CheckoutResult is returned to the client after a successful checkout.
type CheckoutResult struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
}

// CheckoutService converts a mutable cart into an immutable order
type CheckoutService struct {
	orders  repository.OrderRepository
	pricing PricingPolicy
	logger  *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(orders repository.OrderRepository, pricing PricingPolicy, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{orders: orders, pricing: pricing, logger: logger}
}

// CreateOrderFromCart snapshots the cart lines into an order in one
// transaction: order and items are inserted, tracked stock is decremented,
// and the cart lines are deleted, all atomically. Totals use the same pricing
// policy as the cart. The order number is regenerated on unique collision.
func (s *CheckoutService) CreateOrderFromCart(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if err := s.validate(input); err != nil {
		return nil, err
	}

	var order *models.Order
	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, genErr := s.newOrderNumber()
		if genErr != nil {
			return nil, fmt.Errorf("failed to generate order number: %w", genErr)
		}

		order, err = s.orders.CreateFromCart(ctx, input.CartID, func(lines []models.CartItem) (*models.Order, []repository.StockDecrement, error) {
			return s.buildOrder(input, number, lines)
		})
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			s.logger.Warn("Order number collision, regenerating",
				zap.String("order_number", number),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		return nil, err
	}
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("could not generate a unique order number")
		}
		return nil, err
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalAmount.StringFixed(2)),
	)
	return &CheckoutResult{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Total:         order.TotalAmount,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}, nil
}

// buildOrder freezes the cart lines into order rows. Runs inside the checkout
// transaction with the lines locked.
func (s *CheckoutService) buildOrder(input CheckoutInput, number string, lines []models.CartItem) (*models.Order, []repository.StockDecrement, error) {
	if len(lines) == 0 {
		return nil, nil, apperrors.Validation("cannot checkout an empty cart")
	}

	subtotal := decimal.Zero
	count := 0
	items := make([]models.OrderItem, 0, len(lines))
	decrements := make([]repository.StockDecrement, 0, len(lines))

	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalPrice)
		count += line.Quantity

		items = append(items, models.OrderItem{
			ProductID:         line.ProductID,
			VariantID:         line.VariantID,
			CustomDesignID:    line.CustomDesignID,
			ProductName:       line.ProductName,
			VariantTitle:      line.VariantTitle,
			SKU:               line.SKU,
			Quantity:          line.Quantity,
			UnitPrice:         line.UnitPrice,
			TotalPrice:        line.TotalPrice,
			UnitCost:          line.UnitCost,
			FulfillmentStatus: models.FulfillmentStatusUnfulfilled,
		})

		if line.VariantID != uuid.Nil {
			decrements = append(decrements, repository.StockDecrement{
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
			})
		}
	}

	totals := s.pricing.Totals(subtotal, count)

	order := &models.Order{
		OrderNumber:       number,
		UserID:            input.UserID,
		Email:             input.Email,
		Status:            models.OrderStatusPending,
		PaymentStatus:     models.PaymentStatusPending,
		FulfillmentStatus: models.FulfillmentStatusUnfulfilled,
		PaymentMethod:     input.PaymentMethod,
		Currency:          "USD",
		Subtotal:          totals.Subtotal,
		TaxAmount:         totals.Tax,
		ShippingAmount:    totals.Shipping,
		TotalAmount:       totals.Total,
		BillingAddress:    input.BillingAddress,
		ShippingAddress:   input.ShippingAddress,
		Notes:             input.Notes,
		OrderItems:        items,
	}
	return order, decrements, nil
}

// newOrderNumber generates WS-<year>-<5 digits> from crypto/rand. Collisions
// are handled by the caller's retry loop against the unique index.
func (s *CheckoutService) newOrderNumber() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(100000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WS-%d-%05d", time.Now().Year(), n.Int64()), nil
}

func (s *CheckoutService) validate(input CheckoutInput) error {
	if input.Email == "" {
		return apperrors.Validation("email is required")
	}
	if input.PaymentMethod == "" {
		return apperrors.Validation("payment method is required")
	}
	if err := validateAddress("billing_address", input.BillingAddress); err != nil {
		return err
	}
	return validateAddress("shipping_address", input.ShippingAddress)
}

func validateAddress(field string, addr models.Address) error {
	missing := ""
	switch {
	case addr.FirstName == "":
		missing = "first_name"
	case addr.LastName == "":
		missing = "last_name"
	case addr.AddressLine1 == "":
		missing = "address_line1"
	case addr.City == "":
		missing = "city"
	case addr.State == "":
		missing = "state"
	case addr.PostalCode == "":
		missing = "postal_code"
	case addr.Country == "":
		missing = "country"
	}
	if missing != "" {
		return apperrors.Validation(fmt.Sprintf("%s.%s is required", field, missing))
	}
	return nil
}

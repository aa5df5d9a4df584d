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

// OwnerKey identifies a cart owner: exactly one of UserID/SessionID is set.
type OwnerKey struct {
	UserID    *uuid.UUID
	SessionID *string
}

// Validate enforces the one-key invariant.
func (k OwnerKey) Validate() error {
	if (k.UserID == nil) == (k.SessionID == nil) {
		return apperrors.Validation("exactly one of user id or session id is required")
	}
	return nil
}

// AddItemInput is one line to add to a cart.
type AddItemInput struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	CustomDesignID *uuid.UUID
	Quantity       int
}

// Merge statuses for guest-cart transfer lines.
const (
	MergeStatusMerged = "merged"
	MergeStatusFailed = "failed"
)

// MergeResult reports the outcome of replaying one guest-cart line into the
// user's cart. The merge never aborts on a single line, so callers need this
// to detect a partial transfer.
type MergeResult struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int       `json:"quantity"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
}

// TransferResult is the outcome of a guest-to-user cart transfer.
type TransferResult struct {
	CartID  uuid.UUID     `json:"cart_id"`
	Results []MergeResult `json:"results,omitempty"`
}

// CartService owns the cart and cart-item lifecycle
type CartService struct {
	carts     repository.CartRepository
	catalog   repository.CatalogRepository
	inventory *InventoryService
	pricing   PricingPolicy
	ttl       time.Duration
	logger    *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(
	carts repository.CartRepository,
	catalog repository.CatalogRepository,
	inventory *InventoryService,
	pricing PricingPolicy,
	ttl time.Duration,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		carts:     carts,
		catalog:   catalog,
		inventory: inventory,
		pricing:   pricing,
		ttl:       ttl,
		logger:    logger,
	}
}

// GetOrCreate returns the owner's live cart, creating one with the configured
// TTL when none exists. Expired carts read as absent.
func (s *CartService) GetOrCreate(ctx context.Context, owner OwnerKey) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.carts.FindActiveByOwner(ctx, owner.UserID, owner.SessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	cart = &models.Cart{
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		Currency:  "USD",
		ExpiresAt: time.Now().Add(s.ttl),
		Items:     []models.CartItem{},
	}
	if err := s.carts.Create(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	s.logger.Info("Cart created", zap.String("cart_id", cart.ID.String()))
	return cart, nil
}

// AddItem validates the referenced catalog entities, resolves the unit price,
// checks availability, and adds the line. An identical line (same product,
// variant and custom design) is merged by a single atomic
// insert-or-increment, never a read-then-write pair.
func (s *CartService) AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*models.CartItem, error) {
	if input.Quantity < 1 {
		return nil, apperrors.Validation("quantity must be at least 1")
	}

	line, err := s.resolveLine(ctx, input)
	if err != nil {
		return nil, err
	}

	if input.VariantID != nil {
		check, err := s.inventory.Check(ctx, *input.VariantID, input.Quantity)
		if err != nil {
			return nil, err
		}
		if !check.Available {
			return nil, apperrors.Inventory(fmt.Sprintf(
				"insufficient stock: requested %d, available %d", check.Requested, check.OnHand))
		}
	}

	line.CartID = cartID
	if err := s.carts.AddOrIncrementItem(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	// Re-read so a merged line reports its combined quantity.
	merged, err := s.carts.FindLine(ctx, cartID, line.ProductID, line.VariantID, line.CustomDesignID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload cart item: %w", err)
	}

	s.logger.Info("Cart item added",
		zap.String("cart_id", cartID.String()),
		zap.String("product_id", line.ProductID.String()),
		zap.Int("quantity", merged.Quantity),
	)
	return merged, nil
}

// UpdateItemQuantity sets a line's quantity. A quantity of zero or less is
// defined to be equivalent to removing the line.
func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		if err := s.RemoveItem(ctx, cartID, itemID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	item, err := s.carts.FindItem(ctx, cartID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("cart item not found")
		}
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}

	if item.VariantID != uuid.Nil {
		check, err := s.inventory.Check(ctx, item.VariantID, quantity)
		if err != nil {
			return nil, err
		}
		if !check.Available {
			return nil, apperrors.Inventory(fmt.Sprintf(
				"insufficient stock: requested %d, available %d", check.Requested, check.OnHand))
		}
	}

	item.Quantity = quantity
	item.TotalPrice = item.UnitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	if err := s.carts.SaveItem(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes one line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	rows, err := s.carts.DeleteItem(ctx, cartID, itemID)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("cart item not found")
	}
	return nil
}

// ClearCart deletes all lines. Used for explicit empty-cart requests; the
// checkout path clears lines inside its own transaction instead.
func (s *CartService) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	if err := s.carts.DeleteItems(ctx, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// ComputeTotals derives the money breakdown for the cart's current lines.
// Pure given the stored lines.
func (s *CartService) ComputeTotals(ctx context.Context, cartID uuid.UUID) (*CartTotals, error) {
	items, err := s.carts.ItemsByCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	subtotal := decimal.Zero
	count := 0
	for _, item := range items {
		subtotal = subtotal.Add(item.TotalPrice)
		count += item.Quantity
	}

	totals := s.pricing.Totals(subtotal, count)
	return &totals, nil
}

// TransferGuestCartToUser merges a guest cart into the user's. When the user
// has no live cart the guest cart is simply re-owned. Otherwise every guest
// line is replayed through AddItem against the user's cart — continuing past
// per-line failures — and the guest cart is deleted. Idempotent: a second
// call finds no guest cart and reports not-found.
func (s *CartService) TransferGuestCartToUser(ctx context.Context, sessionID string, userID uuid.UUID) (*TransferResult, error) {
	sid := sessionID
	guest, err := s.carts.FindActiveByOwner(ctx, nil, &sid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("no guest cart found")
		}
		return nil, fmt.Errorf("failed to load guest cart: %w", err)
	}

	userCart, err := s.carts.FindActiveByOwner(ctx, &userID, nil)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load user cart: %w", err)
		}
		// No live user cart: re-own the guest cart wholesale.
		if err := s.carts.TransferOwnership(ctx, guest.ID, userID); err != nil {
			return nil, fmt.Errorf("failed to transfer cart ownership: %w", err)
		}
		s.logger.Info("Guest cart re-owned",
			zap.String("cart_id", guest.ID.String()),
			zap.String("user_id", userID.String()),
		)
		return &TransferResult{CartID: guest.ID}, nil
	}

	results := make([]MergeResult, 0, len(guest.Items))
	for _, item := range guest.Items {
		input := AddItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.VariantID != uuid.Nil {
			v := item.VariantID
			input.VariantID = &v
		}
		if item.CustomDesignID != uuid.Nil {
			d := item.CustomDesignID
			input.CustomDesignID = &d
		}

		result := MergeResult{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Status:    MergeStatusMerged,
		}
		if _, err := s.AddItem(ctx, userCart.ID, input); err != nil {
			result.Status = MergeStatusFailed
			result.Reason = err.Error()
			s.logger.Warn("Guest cart line failed to merge",
				zap.String("guest_cart_id", guest.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
		}
		results = append(results, result)
	}

	if err := s.carts.DeleteCart(ctx, guest.ID); err != nil {
		return nil, fmt.Errorf("failed to delete guest cart: %w", err)
	}

	s.logger.Info("Guest cart merged",
		zap.String("guest_cart_id", guest.ID.String()),
		zap.String("user_cart_id", userCart.ID.String()),
		zap.Int("lines", len(results)),
	)
	return &TransferResult{CartID: userCart.ID, Results: results}, nil
}

// CleanupExpired deletes carts past their TTL. Called by the periodic sweep.
func (s *CartService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.carts.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to clean up expired carts: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("Expired carts removed", zap.Int64("count", deleted))
	}
	return deleted, nil
}

// resolveLine validates the referenced catalog entities and resolves the unit
// price: custom-design price when a design is specified, otherwise variant
// price when the variant carries one, otherwise the product base price.
func (s *CartService) resolveLine(ctx context.Context, input AddItemInput) (*models.CartItem, error) {
	product, err := s.catalog.FindProduct(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return nil, apperrors.Validation("product is not available")
	}

	line := &models.CartItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		SKU:         product.SKU,
		Quantity:    input.Quantity,
		UnitPrice:   product.BasePrice,
		UnitCost:    product.CostPrice,
	}

	if input.VariantID != nil {
		variant, err := s.catalog.FindVariant(ctx, *input.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("product variant not found")
			}
			return nil, fmt.Errorf("failed to load variant: %w", err)
		}
		if variant.ProductID != product.ID {
			return nil, apperrors.Validation("variant does not belong to product")
		}
		if !variant.IsActive {
			return nil, apperrors.Validation("product variant is not available")
		}
		line.VariantID = variant.ID
		line.VariantTitle = variant.Title
		if variant.SKU != "" {
			line.SKU = variant.SKU
		}
		if variant.Price != nil {
			line.UnitPrice = *variant.Price
		}
	}

	if input.CustomDesignID != nil {
		design, err := s.catalog.FindDesign(ctx, *input.CustomDesignID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("custom design not found")
			}
			return nil, fmt.Errorf("failed to load custom design: %w", err)
		}
		if !design.IsActive {
			return nil, apperrors.Validation("custom design is not available")
		}
		line.CustomDesignID = design.ID
		line.UnitPrice = design.Price
	}

	line.TotalPrice = line.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))).Round(2)
	return line, nil
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockDecrement names one clamped inventory decrement to apply inside the
// checkout transaction.
type StockDecrement struct {
	VariantID uuid.UUID
	Quantity  int
}

// CheckoutBuilder turns the locked cart lines into the order to persist plus
// the inventory decrements to apply. It must be pure: it runs inside the
// checkout transaction and may be retried on order-number collision.
type CheckoutBuilder func(lines []models.CartItem) (*models.Order, []StockDecrement, error)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	CreateFromCart(ctx context.Context, cartID uuid.UUID, build CheckoutBuilder) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]interface{}) error
	ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	UpdateItemFields(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID, updates map[string]interface{}) (int64, error)
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// CreateFromCart runs the whole checkout write path in one transaction: the
// cart lines are read under FOR UPDATE so concurrent cart mutation blocks
// until the checkout commits, the order and its items are inserted, tracked
// stock is decremented with the clamped update, and the cart lines are
// deleted. Any failure rolls the entire sequence back.
func (r *GormOrderRepository) CreateFromCart(ctx context.Context, cartID uuid.UUID, build CheckoutBuilder) (*models.Order, error) {
	var order *models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lines []models.CartItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ?", cartID).
			Order("created_at ASC").
			Find(&lines).Error; err != nil {
			return err
		}

		built, decrements, err := build(lines)
		if err != nil {
			return err
		}

		if err := tx.Create(built).Error; err != nil {
			return err
		}

		for _, d := range decrements {
			if err := tx.Model(&models.InventoryRecord{}).
				Where("variant_id = ? AND track_inventory = ?", d.VariantID, true).
				Update("quantity", gorm.Expr("GREATEST(quantity - ?, 0)", d.Quantity)).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		order = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *GormOrderRepository) ItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormOrderRepository) UpdateItemFields(ctx context.Context, orderID uuid.UUID, itemIDs []uuid.UUID, updates map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("order_id = ? AND id IN ?", orderID, itemIDs).
		Updates(updates)
	return res.RowsAffected, res.Error
}

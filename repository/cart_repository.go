package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/worshipstreet/storefront-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	Create(ctx context.Context, cart *models.Cart) error
	FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	FindActiveByOwner(ctx context.Context, userID *uuid.UUID, sessionID *string) (*models.Cart, error)
	AddOrIncrementItem(ctx context.Context, item *models.CartItem) error
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindLine(ctx context.Context, cartID, productID, variantID, designID uuid.UUID) (*models.CartItem, error)
	SaveItem(ctx context.Context, item *models.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	ItemsByCart(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error)
	TransferOwnership(ctx context.Context, cartID, userID uuid.UUID) error
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// GormCartRepository implements CartRepository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new instance of GormCartRepository
func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &GormCartRepository{db: db}
}

func (r *GormCartRepository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *GormCartRepository) FindByID(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "id = ?", cartID).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindActiveByOwner returns the owner's non-expired cart. Exactly one of
// userID/sessionID must be set; the caller validates that.
func (r *GormCartRepository) FindActiveByOwner(ctx context.Context, userID *uuid.UUID, sessionID *string) (*models.Cart, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("expires_at > ?", time.Now())

	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	} else {
		query = query.Where("session_id = ?", *sessionID)
	}

	var cart models.Cart
	if err := query.Order("created_at DESC").First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddOrIncrementItem inserts a cart line or, when the same
// (cart, product, variant, custom design) line already exists, increments its
// quantity and recomputes its total in the same statement. Single-statement
// upsert so concurrent adds for the same cart cannot lose updates.
func (r *GormCartRepository) AddOrIncrementItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "cart_id"}, {Name: "product_id"},
			{Name: "variant_id"}, {Name: "custom_design_id"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":    gorm.Expr("cart_items.quantity + excluded.quantity"),
			"total_price": gorm.Expr("cart_items.unit_price * (cart_items.quantity + excluded.quantity)"),
			"updated_at":  time.Now(),
		}),
	}).Create(item).Error
}

func (r *GormCartRepository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormCartRepository) FindLine(ctx context.Context, cartID, productID, variantID, designID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND variant_id = ? AND custom_design_id = ?",
			cartID, productID, variantID, designID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormCartRepository) SaveItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *GormCartRepository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *GormCartRepository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&models.CartItem{}).Error
}

func (r *GormCartRepository) ItemsByCart(ctx context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// TransferOwnership re-owns a guest cart to a user: session key cleared, user
// key set.
func (r *GormCartRepository) TransferOwnership(ctx context.Context, cartID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"user_id":    userID,
			"session_id": nil,
		}).Error
}

func (r *GormCartRepository) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", cartID).Delete(&models.Cart{}).Error
	})
}

// DeleteExpired removes carts whose TTL has passed, lines first. Used by the
// periodic sweep, not request-path logic.
func (r *GormCartRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired := tx.Model(&models.Cart{}).Select("id").Where("expires_at <= ?", now)
		if err := tx.Where("cart_id IN (?)", expired).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("expires_at <= ?", now).Delete(&models.Cart{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

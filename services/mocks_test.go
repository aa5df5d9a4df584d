package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/repository"
	"gorm.io/gorm"
)

// In-memory repository doubles mirroring the Gorm implementations' semantics,
// including the upsert merge and the clamped decrement.

type mockCartRepo struct {
	carts map[uuid.UUID]*models.Cart
	items []models.CartItem
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{carts: make(map[uuid.UUID]*models.Cart)}
}

func (m *mockCartRepo) Create(_ context.Context, cart *models.Cart) error {
	cart.ID = uuid.New()
	m.carts[cart.ID] = cart
	return nil
}

func (m *mockCartRepo) FindByID(_ context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, ok := m.carts[cartID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *cart
	copied.Items = m.itemsOf(cartID)
	return &copied, nil
}

func (m *mockCartRepo) FindActiveByOwner(_ context.Context, userID *uuid.UUID, sessionID *string) (*models.Cart, error) {
	for _, cart := range m.carts {
		if !cart.ExpiresAt.After(time.Now()) {
			continue
		}
		if userID != nil && cart.UserID != nil && *cart.UserID == *userID {
			copied := *cart
			copied.Items = m.itemsOf(cart.ID)
			return &copied, nil
		}
		if sessionID != nil && cart.SessionID != nil && *cart.SessionID == *sessionID {
			copied := *cart
			copied.Items = m.itemsOf(cart.ID)
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCartRepo) AddOrIncrementItem(_ context.Context, item *models.CartItem) error {
	for i := range m.items {
		existing := &m.items[i]
		if existing.CartID == item.CartID &&
			existing.ProductID == item.ProductID &&
			existing.VariantID == item.VariantID &&
			existing.CustomDesignID == item.CustomDesignID {
			existing.Quantity += item.Quantity
			existing.TotalPrice = existing.UnitPrice.Mul(decimal.NewFromInt(int64(existing.Quantity))).Round(2)
			return nil
		}
	}
	item.ID = uuid.New()
	m.items = append(m.items, *item)
	return nil
}

func (m *mockCartRepo) FindItem(_ context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	for _, item := range m.items {
		if item.CartID == cartID && item.ID == itemID {
			copied := item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCartRepo) FindLine(_ context.Context, cartID, productID, variantID, designID uuid.UUID) (*models.CartItem, error) {
	for _, item := range m.items {
		if item.CartID == cartID && item.ProductID == productID &&
			item.VariantID == variantID && item.CustomDesignID == designID {
			copied := item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCartRepo) SaveItem(_ context.Context, item *models.CartItem) error {
	for i := range m.items {
		if m.items[i].ID == item.ID {
			m.items[i] = *item
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockCartRepo) DeleteItem(_ context.Context, cartID, itemID uuid.UUID) (int64, error) {
	for i := range m.items {
		if m.items[i].CartID == cartID && m.items[i].ID == itemID {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockCartRepo) DeleteItems(_ context.Context, cartID uuid.UUID) error {
	kept := m.items[:0]
	for _, item := range m.items {
		if item.CartID != cartID {
			kept = append(kept, item)
		}
	}
	m.items = kept
	return nil
}

func (m *mockCartRepo) ItemsByCart(_ context.Context, cartID uuid.UUID) ([]models.CartItem, error) {
	return m.itemsOf(cartID), nil
}

func (m *mockCartRepo) TransferOwnership(_ context.Context, cartID, userID uuid.UUID) error {
	cart, ok := m.carts[cartID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	uid := userID
	cart.UserID = &uid
	cart.SessionID = nil
	return nil
}

func (m *mockCartRepo) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	if err := m.DeleteItems(ctx, cartID); err != nil {
		return err
	}
	delete(m.carts, cartID)
	return nil
}

func (m *mockCartRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, cart := range m.carts {
		if !cart.ExpiresAt.After(now) {
			_ = m.DeleteItems(ctx, id)
			delete(m.carts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockCartRepo) itemsOf(cartID uuid.UUID) []models.CartItem {
	var out []models.CartItem
	for _, item := range m.items {
		if item.CartID == cartID {
			out = append(out, item)
		}
	}
	return out
}

type mockCatalogRepo struct {
	products map[uuid.UUID]*models.Product
	variants map[uuid.UUID]*models.ProductVariant
	designs  map[uuid.UUID]*models.CustomDesign
}

func newMockCatalogRepo() *mockCatalogRepo {
	return &mockCatalogRepo{
		products: make(map[uuid.UUID]*models.Product),
		variants: make(map[uuid.UUID]*models.ProductVariant),
		designs:  make(map[uuid.UUID]*models.CustomDesign),
	}
}

func (m *mockCatalogRepo) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) FindVariant(_ context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	if v, ok := m.variants[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCatalogRepo) FindDesign(_ context.Context, id uuid.UUID) (*models.CustomDesign, error) {
	if d, ok := m.designs[id]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockInventoryRepo struct {
	records map[uuid.UUID]*models.InventoryRecord
}

func newMockInventoryRepo() *mockInventoryRepo {
	return &mockInventoryRepo{records: make(map[uuid.UUID]*models.InventoryRecord)}
}

func (m *mockInventoryRepo) FindByVariant(_ context.Context, variantID uuid.UUID) (*models.InventoryRecord, error) {
	if rec, ok := m.records[variantID]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockInventoryRepo) SetQuantity(_ context.Context, variantID uuid.UUID, quantity int) (int64, error) {
	rec, ok := m.records[variantID]
	if !ok {
		return 0, nil
	}
	rec.Quantity = quantity
	return 1, nil
}

func (m *mockInventoryRepo) Increment(_ context.Context, variantID uuid.UUID, delta int) (int64, error) {
	rec, ok := m.records[variantID]
	if !ok {
		return 0, nil
	}
	rec.Quantity += delta
	return 1, nil
}

func (m *mockInventoryRepo) DecrementClamped(_ context.Context, variantID uuid.UUID, delta int) (int64, error) {
	rec, ok := m.records[variantID]
	if !ok {
		return 0, nil
	}
	rec.Quantity -= delta
	if rec.Quantity < 0 {
		rec.Quantity = 0
	}
	return 1, nil
}

type mockOrderRepo struct {
	lines       []models.CartItem
	orders      map[uuid.UUID]*models.Order
	decrements  []repository.StockDecrement
	cartCleared bool
	// duplicateErrs makes the first N creates fail with a unique violation
	// after the builder ran, simulating order-number collisions.
	duplicateErrs int
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *mockOrderRepo) CreateFromCart(_ context.Context, _ uuid.UUID, build repository.CheckoutBuilder) (*models.Order, error) {
	order, decrements, err := build(m.lines)
	if err != nil {
		return nil, err
	}
	if m.duplicateErrs > 0 {
		m.duplicateErrs--
		return nil, gorm.ErrDuplicatedKey
	}
	order.ID = uuid.New()
	for i := range order.OrderItems {
		order.OrderItems[i].ID = uuid.New()
		order.OrderItems[i].OrderID = order.ID
	}
	m.orders[order.ID] = order
	m.decrements = append(m.decrements, decrements...)
	m.cartCleared = true
	return order, nil
}

func (m *mockOrderRepo) FindByID(_ context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.OrderItems = append([]models.OrderItem(nil), order.OrderItems...)
	return &copied, nil
}

func (m *mockOrderRepo) UpdateFields(_ context.Context, orderID uuid.UUID, updates map[string]interface{}) error {
	order, ok := m.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for key, value := range updates {
		switch key {
		case "status":
			order.Status = value.(string)
		case "payment_status":
			order.PaymentStatus = value.(string)
		case "fulfillment_status":
			order.FulfillmentStatus = value.(string)
		case "paid_at":
			order.PaidAt = value.(*time.Time)
		case "confirmed_at":
			order.ConfirmedAt = value.(*time.Time)
		case "shipped_at":
			order.ShippedAt = value.(*time.Time)
		case "delivered_at":
			order.DeliveredAt = value.(*time.Time)
		case "cancelled_at":
			order.CancelledAt = value.(*time.Time)
		}
	}
	return nil
}

func (m *mockOrderRepo) ItemsByOrder(_ context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return append([]models.OrderItem(nil), order.OrderItems...), nil
}

func (m *mockOrderRepo) UpdateItemFields(_ context.Context, orderID uuid.UUID, itemIDs []uuid.UUID, updates map[string]interface{}) (int64, error) {
	order, ok := m.orders[orderID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	wanted := make(map[uuid.UUID]bool, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = true
	}
	var rows int64
	for i := range order.OrderItems {
		if !wanted[order.OrderItems[i].ID] {
			continue
		}
		if status, ok := updates["fulfillment_status"].(string); ok {
			order.OrderItems[i].FulfillmentStatus = status
		}
		if ts, ok := updates["fulfilled_at"].(*time.Time); ok {
			order.OrderItems[i].FulfilledAt = ts
		}
		rows++
	}
	return rows, nil
}

type mockPaymentRepo struct {
	orders *mockOrderRepo
	txns   []models.PaymentTransaction
}

func (m *mockPaymentRepo) Append(_ context.Context, txn *models.PaymentTransaction) error {
	for _, existing := range m.txns {
		if existing.OrderID == txn.OrderID && existing.ProviderTxnID == txn.ProviderTxnID {
			return gorm.ErrDuplicatedKey
		}
	}
	txn.ID = uuid.New()
	m.txns = append(m.txns, *txn)
	return nil
}

func (m *mockPaymentRepo) RecordCompletion(_ context.Context, txn *models.PaymentTransaction) (bool, error) {
	for _, existing := range m.txns {
		if existing.OrderID == txn.OrderID && existing.ProviderTxnID == txn.ProviderTxnID {
			return false, nil
		}
	}
	order, ok := m.orders.orders[txn.OrderID]
	if !ok || (order.PaymentStatus != models.PaymentStatusPending &&
		order.PaymentStatus != models.PaymentStatusFailed) {
		return false, repository.ErrOrderNotPayable
	}
	txn.ID = uuid.New()
	m.txns = append(m.txns, *txn)
	now := time.Now()
	order.PaymentStatus = models.PaymentStatusPaid
	order.PaidAt = &now
	return true, nil
}

func (m *mockPaymentRepo) FindByProviderTxnID(_ context.Context, orderID uuid.UUID, providerTxnID string) (*models.PaymentTransaction, error) {
	for _, txn := range m.txns {
		if txn.OrderID == orderID && txn.ProviderTxnID == providerTxnID {
			copied := txn
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPaymentRepo) UpdateByProviderTxnID(_ context.Context, providerTxnID string, updates map[string]interface{}) (int64, error) {
	var rows int64
	for i := range m.txns {
		if m.txns[i].ProviderTxnID != providerTxnID {
			continue
		}
		if status, ok := updates["status"].(string); ok {
			m.txns[i].Status = status
		}
		if payload, ok := updates["gateway_payload"].(string); ok {
			m.txns[i].GatewayPayload = payload
		}
		if ts, ok := updates["processed_at"].(*time.Time); ok {
			m.txns[i].ProcessedAt = ts
		}
		rows++
	}
	return rows, nil
}

func (m *mockPaymentRepo) ListByOrder(_ context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	var out []models.PaymentTransaction
	for _, txn := range m.txns {
		if txn.OrderID == orderID {
			out = append(out, txn)
		}
	}
	return out, nil
}

type mockMinistryRepo struct {
	ministries  []models.Ministry
	allocations []models.MinistryAllocation
}

func (m *mockMinistryRepo) ListActive(_ context.Context) ([]models.Ministry, error) {
	var out []models.Ministry
	for _, ministry := range m.ministries {
		if ministry.IsActive {
			out = append(out, ministry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AllocationPercentage.GreaterThan(out[j].AllocationPercentage)
	})
	return out, nil
}

func (m *mockMinistryRepo) CreateAllocation(_ context.Context, alloc *models.MinistryAllocation) (bool, error) {
	for _, existing := range m.allocations {
		if existing.OrderID == alloc.OrderID && existing.MinistryID == alloc.MinistryID {
			return false, nil
		}
	}
	alloc.ID = uuid.New()
	m.allocations = append(m.allocations, *alloc)
	return true, nil
}

func (m *mockMinistryRepo) ListAllocations(_ context.Context, orderID uuid.UUID) ([]models.MinistryAllocation, error) {
	var out []models.MinistryAllocation
	for _, alloc := range m.allocations {
		if alloc.OrderID == orderID {
			out = append(out, alloc)
		}
	}
	return out, nil
}

func (m *mockMinistryRepo) MarkDisbursed(_ context.Context, allocationID uuid.UUID) (int64, error) {
	for i := range m.allocations {
		if m.allocations[i].ID == allocationID && m.allocations[i].DisbursedAt == nil {
			now := time.Now()
			m.allocations[i].DisbursedAt = &now
			return 1, nil
		}
	}
	return 0, nil
}

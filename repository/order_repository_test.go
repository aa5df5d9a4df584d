package repository_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/worshipstreet/storefront-backend/models"
	"github.com/worshipstreet/storefront-backend/repository"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestOrderFindByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{}))

	order, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, order)
}

func TestOrderFindByID_PreloadsItems(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	orderID := uuid.New()
	itemID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "order_number", "status", "payment_status", "fulfillment_status", "subtotal", "total_amount", "created_at"}).
			AddRow(orderID, "WS-2026-00042", models.OrderStatusPending, models.PaymentStatusPending, models.FulfillmentStatusUnfulfilled, "60.00", "70.94", now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "order_items"`)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "order_id", "product_name", "quantity", "unit_price", "total_price"}).
			AddRow(itemID, orderID, "Worship Tee", 3, "20.00", "60.00"))

	order, err := repo.FindByID(context.Background(), orderID)
	assert.NoError(t, err)
	assert.Equal(t, "WS-2026-00042", order.OrderNumber)
	assert.Len(t, order.OrderItems, 1)
	assert.Equal(t, 3, order.OrderItems[0].Quantity)
}

func TestOrderUpdateFields_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateFields(context.Background(), uuid.New(), map[string]interface{}{
		"status": models.OrderStatusConfirmed,
	})
	assert.NoError(t, err)
}

func TestOrderUpdateItemFields_ReportsRows(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "order_items"`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	rows, err := repo.UpdateItemFields(context.Background(), uuid.New(), []uuid.UUID{uuid.New(), uuid.New()}, map[string]interface{}{
		"fulfillment_status": models.FulfillmentStatusFulfilled,
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), rows)
}

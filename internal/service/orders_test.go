package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func seedOrder(t *testing.T, db *gorm.DB, userID uint, status models.OrderStatus, items ...models.OrderItem) models.Order {
	t.Helper()
	order := models.Order{
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
		Items:     items,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestConfirmNewOrder(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusNew)

	svc := &OrderService{DB: db}
	confirmed, err := svc.Confirm(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusConfirmed, confirmed.Status)
	require.Empty(t, confirmed.CancelledReason)
}

func TestConfirmTwiceRejected(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusNew)

	svc := &OrderService{DB: db}
	_, err := svc.Confirm(context.Background(), order.ID)
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestConfirmCancelledRejected(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusCancelled)

	svc := &OrderService{DB: db}
	_, err := svc.Confirm(context.Background(), order.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRestoresStockAndStoresReason(t *testing.T) {
	db := newTestDB(t)
	cat := seedCategory(t, db, "Guitars", "guitars")
	prod := seedProduct(t, db, cat.ID, "Telecaster", 10, 0)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusNew, models.OrderItem{
		ProductID: prod.ID, Quantity: 3, Price: 10,
	})

	svc := &OrderService{DB: db}
	cancelled, err := svc.Cancel(context.Background(), order.ID, "changed mind")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, "changed mind", cancelled.CancelledReason)
	require.EqualValues(t, 3, productStock(t, db, prod.ID))
}

func TestDoubleCancelRestoresStockOnce(t *testing.T) {
	db := newTestDB(t)
	cat := seedCategory(t, db, "Guitars", "guitars")
	prod := seedProduct(t, db, cat.ID, "Telecaster", 10, 0)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusNew, models.OrderItem{
		ProductID: prod.ID, Quantity: 3, Price: 10,
	})

	svc := &OrderService{DB: db}
	_, err := svc.Cancel(context.Background(), order.ID, "changed mind")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), order.ID, "changed mind again")
	require.NoError(t, err)
	require.Equal(t, "changed mind again", cancelled.CancelledReason)

	// second cancel only rewrote the reason
	require.EqualValues(t, 3, productStock(t, db, prod.ID))
}

func TestCancelConfirmedOrder(t *testing.T) {
	db := newTestDB(t)
	cat := seedCategory(t, db, "Guitars", "guitars")
	prod := seedProduct(t, db, cat.ID, "Telecaster", 10, 1)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusConfirmed, models.OrderItem{
		ProductID: prod.ID, Quantity: 2, Price: 10,
	})

	svc := &OrderService{DB: db}
	cancelled, err := svc.Cancel(context.Background(), order.ID, "supplier issue")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.EqualValues(t, 3, productStock(t, db, prod.ID))
}

func TestCancelReasonTruncated(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusNew)

	svc := &OrderService{DB: db}
	long := strings.Repeat("x", 300)
	cancelled, err := svc.Cancel(context.Background(), order.ID, long)
	require.NoError(t, err)
	require.Len(t, cancelled.CancelledReason, 255)

	// multi-byte reasons are cut per character, never mid-rune
	cyrillic := strings.Repeat("ы", 300)
	cancelled, err = svc.Cancel(context.Background(), order.ID, cyrillic)
	require.NoError(t, err)
	require.True(t, utf8.ValidString(cancelled.CancelledReason))
	require.Equal(t, 255, utf8.RuneCountInString(cancelled.CancelledReason))
	require.Equal(t, strings.Repeat("ы", 255), cancelled.CancelledReason)
}

func TestCustomerDeleteNewOrderRestoresStock(t *testing.T) {
	db := newTestDB(t)
	cat := seedCategory(t, db, "Guitars", "guitars")
	prod := seedProduct(t, db, cat.ID, "Telecaster", 10, 0)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusNew, models.OrderItem{
		ProductID: prod.ID, Quantity: 2, Price: 10,
	})

	svc := &OrderService{DB: db}
	require.NoError(t, svc.CustomerDelete(context.Background(), order.ID, user.ID))

	require.EqualValues(t, 2, productStock(t, db, prod.ID))

	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	require.EqualValues(t, 0, orders)
	require.EqualValues(t, 0, items)
}

func TestCustomerDeleteConfirmedOrderForbidden(t *testing.T) {
	db := newTestDB(t)
	cat := seedCategory(t, db, "Guitars", "guitars")
	prod := seedProduct(t, db, cat.ID, "Telecaster", 10, 0)
	user := seedUser(t, db, "alice", "password")
	order := seedOrder(t, db, user.ID, models.OrderStatusConfirmed, models.OrderItem{
		ProductID: prod.ID, Quantity: 2, Price: 10,
	})

	svc := &OrderService{DB: db}
	err := svc.CustomerDelete(context.Background(), order.ID, user.ID)
	require.ErrorIs(t, err, ErrForbidden)

	// untouched: order, items and stock
	var orders, items int64
	require.NoError(t, db.Model(&models.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&models.OrderItem{}).Count(&items).Error)
	require.EqualValues(t, 1, orders)
	require.EqualValues(t, 1, items)
	require.EqualValues(t, 0, productStock(t, db, prod.ID))
}

func TestCustomerDeleteForeignOrderForbidden(t *testing.T) {
	db := newTestDB(t)
	owner := seedUser(t, db, "alice", "password")
	other := seedUser(t, db, "bob", "password")
	order := seedOrder(t, db, owner.ID, models.OrderStatusNew)

	svc := &OrderService{DB: db}
	err := svc.CustomerDelete(context.Background(), order.ID, other.ID)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestListOrdersFilteredByStatus(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "alice", "password")
	seedOrder(t, db, user.ID, models.OrderStatusNew)
	seedOrder(t, db, user.ID, models.OrderStatusCancelled)
	seedOrder(t, db, user.ID, models.OrderStatusNew)

	svc := &OrderService{DB: db}
	orders, err := svc.List(context.Background(), user.ID, models.OrderStatusNew, 0, 20)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	_, err = svc.List(context.Background(), user.ID, "shipped", 0, 20)
	require.ErrorIs(t, err, ErrValidation)
}

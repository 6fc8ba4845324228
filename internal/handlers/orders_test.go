package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (env *testEnv) seedOrder(userID uint, status models.OrderStatus, items ...models.OrderItem) models.Order {
	env.T.Helper()
	order := models.Order{
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
		Items:     items,
	}
	require.NoError(env.T, env.DB.Create(&order).Error)
	return order
}

func TestGetOrderHidesForeignOrders(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser("alice", "password", "user")
	other := env.seedUser("bob", "password", "user")
	admin := env.seedUser("root", "password", "admin")
	order := env.seedOrder(owner.ID, models.OrderStatusNew)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, owner.ID, "user")
	require.NoError(t, env.Orders.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	_, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, other.ID, "user")
	requireHTTPError(t, env.Orders.GetOrder(c), http.StatusNotFound)

	rec, c = env.doJSONRequest(http.MethodGet, "/api/v1/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, admin.ID, "admin")
	require.NoError(t, env.Orders.GetOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, order.ID, got.ID)
}

func TestConfirmOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("alice", "password", "user")
	env.seedOrder(user.ID, models.OrderStatusNew)

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/orders/1/confirm", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Orders.ConfirmOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, models.OrderStatusConfirmed, got.Status)

	// a second confirm hits the state machine
	rec, c = env.doJSONRequest(http.MethodPost, "/api/v1/admin/orders/1/confirm", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Orders.ConfirmOrder(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "invalid_transition", decodeEnvelope(t, rec).Code)
}

func TestCancelOrderRequiresReason(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("alice", "password", "user")
	env.seedOrder(user.ID, models.OrderStatusNew)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/orders/1/cancel", map[string]string{})
	c.SetParamNames("id")
	c.SetParamValues("1")
	requireHTTPError(t, env.Orders.CancelOrder(c), http.StatusBadRequest)
}

func TestCancelOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cat := env.seedCategory("Guitars", "guitars")
	prod := env.seedProduct(cat.ID, "Telecaster", 10, 0)
	user := env.seedUser("alice", "password", "user")
	env.seedOrder(user.ID, models.OrderStatusNew, models.OrderItem{
		ProductID: prod.ID, Quantity: 2, Price: 10,
	})

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/admin/orders/1/cancel",
		map[string]string{"reason": "out of season"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.Orders.CancelOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, models.OrderStatusCancelled, got.Status)
	require.Equal(t, "out of season", got.CancelledReason)

	var stock models.Product
	require.NoError(t, env.DB.First(&stock, prod.ID).Error)
	require.EqualValues(t, 2, stock.CountAvailable)
}

func TestDeleteOrderEndpoint(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser("alice", "password", "user")
	env.seedOrder(user.ID, models.OrderStatusNew)

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/v1/orders/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	asUser(c, user.ID, "user")
	require.NoError(t, env.Orders.DeleteOrder(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var n int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&n).Error)
	require.EqualValues(t, 0, n)
}

func TestAdminGetOrdersFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedUser("alice", "password", "user")
	bob := env.seedUser("bob", "password", "user")
	env.seedOrder(alice.ID, models.OrderStatusNew)
	env.seedOrder(bob.ID, models.OrderStatusConfirmed)
	env.seedOrder(bob.ID, models.OrderStatusNew)

	rec, c := env.doJSONRequest(http.MethodGet, "/api/v1/admin/orders?status=new", nil)
	require.NoError(t, env.Orders.AdminGetOrders(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
}

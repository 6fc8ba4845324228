package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/service"
)

type BasketHandler struct {
	Basket   *service.BasketService
	Checkout *service.CheckoutService
	Producer *mykafka.Producer
}

func (h *BasketHandler) events() *publisher {
	return &publisher{Producer: h.Producer, Topic: "basket_events"}
}

func (h *BasketHandler) GetBasket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	lines, err := h.Basket.List(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, lines)
}

func (h *BasketHandler) AddToBasket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	line, err := h.Basket.Add(c.Request().Context(), userID, req.ProductID)
	if err != nil {
		return serviceError(c, err)
	}

	h.events().publish(c, map[string]any{
		"type":      "basket_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  line.Quantity,
	})
	return c.JSON(http.StatusOK, line)
}

func (h *BasketHandler) RemoveFromBasket(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Param("productID"))
	if err != nil || productID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	line, err := h.Basket.Remove(c.Request().Context(), userID, uint(productID))
	if err != nil {
		return serviceError(c, err)
	}

	event := map[string]any{
		"type":      "basket_item_removed",
		"userID":    userID,
		"productID": productID,
	}
	if line == nil {
		event["remaining_quantity"] = 0
		h.events().publish(c, event)
		return c.JSON(http.StatusOK, map[string]any{"deleted_product": productID})
	}
	event["remaining_quantity"] = line.Quantity
	h.events().publish(c, event)
	return c.JSON(http.StatusOK, line)
}

// MakeOrder converts the basket into an order. The password field is the
// re-authentication gate: an active session is not enough to place an
// order.
func (h *BasketHandler) MakeOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	l := logging.FromContext(c.Request().Context()).With("handler", "basket.make_order")

	order, err := h.Checkout.Checkout(c.Request().Context(), userID, req.Password)
	if err != nil {
		l.Warn("checkout_failed", "userID", userID, "error", err)
		return serviceError(c, err)
	}

	l.Info("checkout_success", "userID", userID, "orderID", order.ID)
	h.events().publish(c, map[string]any{
		"type":    "order_created",
		"userID":  userID,
		"orderID": order.ID,
		"items":   len(order.Items),
	})

	var total int64
	for _, it := range order.Items {
		total += int64(it.Quantity) * it.Price
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"order_id": order.ID,
		"status":   order.Status,
		"total":    total,
		"items":    order.Items,
	})
}

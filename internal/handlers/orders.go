package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/service/token"
	"github.com/Skotchmaster/storefront/internal/util"
)

type OrderHandler struct {
	Svc      *service.OrderService
	Producer *mykafka.Producer
}

func (h *OrderHandler) events() *publisher {
	return &publisher{Producer: h.Producer, Topic: "order_events"}
}

func orderIDParam(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func (h *OrderHandler) GetOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	status := models.OrderStatus(c.QueryParam("status"))
	orders, err := h.Svc.List(c.Request().Context(), userID, status, offset, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Get(c.Request().Context(), orderID)
	if err != nil {
		return serviceError(c, err)
	}
	if order.UserID != userID && !token.IsPrivileged(getRole(c)) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	if err := h.Svc.CustomerDelete(c.Request().Context(), orderID, userID); err != nil {
		return serviceError(c, err)
	}

	h.events().publish(c, map[string]any{
		"type":    "order_deleted",
		"userID":  userID,
		"orderID": orderID,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) AdminGetOrders(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	status := models.OrderStatus(c.QueryParam("status"))
	orders, err := h.Svc.List(c.Request().Context(), 0, status, offset, limit)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) ConfirmOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	l := logging.FromContext(c.Request().Context()).With("handler", "orders.confirm")

	order, err := h.Svc.Confirm(c.Request().Context(), orderID)
	if err != nil {
		l.Warn("confirm_failed", "orderID", orderID, "error", err)
		return serviceError(c, err)
	}

	l.Info("confirm_success", "orderID", orderID)
	h.events().publish(c, map[string]any{
		"type":    "order_confirmed",
		"userID":  order.UserID,
		"orderID": order.ID,
	})
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	orderID, err := orderIDParam(c)
	if err != nil {
		return err
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	l := logging.FromContext(c.Request().Context()).With("handler", "orders.cancel")

	order, err := h.Svc.Cancel(c.Request().Context(), orderID, req.Reason)
	if err != nil {
		l.Warn("cancel_failed", "orderID", orderID, "error", err)
		return serviceError(c, err)
	}

	l.Info("cancel_success", "orderID", orderID)
	h.events().publish(c, map[string]any{
		"type":    "order_cancelled",
		"userID":  order.UserID,
		"orderID": order.ID,
		"reason":  order.CancelledReason,
	})
	return c.JSON(http.StatusOK, order)
}

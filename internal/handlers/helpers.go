package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/service"
)

// Response is the error envelope; code is the machine-readable flag
// programmatic callers branch on.
type Response struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, httpCode int, code string, err error) error {
	return c.JSON(httpCode, Response{
		Status:  "error",
		Code:    code,
		Message: err.Error(),
	})
}

func serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return errorResponse(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrValidation):
		return errorResponse(c, http.StatusBadRequest, "validation_error", err)
	case errors.Is(err, service.ErrOutOfStock):
		return errorResponse(c, http.StatusConflict, "out_of_stock", err)
	case errors.Is(err, service.ErrEmptyBasket):
		return errorResponse(c, http.StatusBadRequest, "empty_basket", err)
	case errors.Is(err, service.ErrInvalidCredential):
		return errorResponse(c, http.StatusUnauthorized, "invalid_credential", err)
	case errors.Is(err, service.ErrInvalidTransition):
		return errorResponse(c, http.StatusConflict, "invalid_transition", err)
	case errors.Is(err, service.ErrForbidden):
		return errorResponse(c, http.StatusForbidden, "forbidden", err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func getUserID(c echo.Context) (uint, error) {
	id, ok := c.Get("userID").(uint)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func getRole(c echo.Context) string {
	role, _ := c.Get("role").(string)
	return role
}

type publisher struct {
	Producer *mykafka.Producer
	Topic    string
}

func (p *publisher) publish(c echo.Context, event map[string]any) {
	if p.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := p.Producer.PublishEvent(ctx, p.Topic, fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "topic", p.Topic, "error", err)
	}
}

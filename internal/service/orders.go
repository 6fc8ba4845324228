package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const cancelReasonMaxLen = 255

// OrderService runs the order state machine. Cancellation and customer
// deletion give reserved units back to the catalog; confirmation never
// touches stock. Each restoring operation is one transaction, so a
// concurrent double-cancel credits stock at most once.
type OrderService struct {
	DB *gorm.DB
}

func (s *OrderService) Get(ctx context.Context, orderID uint) (*models.Order, error) {
	r := repo.OrderRepo{DB: s.DB}
	order, err := r.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, orderID)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context, userID uint, status models.OrderStatus, offset, limit int) ([]models.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	r := repo.OrderRepo{DB: s.DB}
	return r.List(ctx, userID, status, offset, limit)
}

// Confirm moves an order from new to confirmed. Any other starting
// status is rejected, including confirming twice.
func (s *OrderService) Confirm(ctx context.Context, orderID uint) (*models.Order, error) {
	var order *models.Order

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := repo.LoadOrder(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if !current.Status.CanTransitionTo(models.OrderStatusConfirmed) {
			return fmt.Errorf("%w: %s -> confirmed", ErrInvalidTransition, current.Status)
		}

		rows, err := repo.TransitionStatus(tx, orderID,
			[]models.OrderStatus{models.OrderStatusNew},
			models.OrderStatusConfirmed,
			map[string]any{"cancelled_reason": ""})
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: %s -> confirmed", ErrInvalidTransition, current.Status)
		}

		current.Status = models.OrderStatusConfirmed
		current.CancelledReason = ""
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Cancel transitions to cancelled and restores stock for every item.
// Cancelling an already-cancelled order only rewrites the reason; the
// conditional status flip decides which caller restores, so stock is
// credited exactly once no matter how often cancel runs.
func (s *OrderService) Cancel(ctx context.Context, orderID uint, reason string) (*models.Order, error) {
	// Truncate on rune boundaries so a long multi-byte reason is never
	// cut into invalid UTF-8.
	if runes := []rune(reason); len(runes) > cancelReasonMaxLen {
		reason = string(runes[:cancelReasonMaxLen])
	}

	var order *models.Order
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := repo.LoadOrder(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}

		rows, err := repo.TransitionStatus(tx, orderID,
			[]models.OrderStatus{models.OrderStatusNew, models.OrderStatusConfirmed},
			models.OrderStatusCancelled,
			map[string]any{"cancelled_reason": reason})
		if err != nil {
			return err
		}

		if rows > 0 {
			if err := restoreStock(tx, current.Items); err != nil {
				return err
			}
		} else {
			// Already cancelled: update the reason, leave stock alone.
			res := tx.Model(&models.Order{}).
				Where("id = ? AND status = ?", orderID, models.OrderStatusCancelled).
				Update("cancelled_reason", reason)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s -> cancelled", ErrInvalidTransition, current.Status)
			}
		}

		current.Status = models.OrderStatusCancelled
		current.CancelledReason = reason
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CustomerDelete lets the owner withdraw an order that is still new.
// The reserved stock goes back first, then the order and its items are
// removed.
func (s *OrderService) CustomerDelete(ctx context.Context, orderID, userID uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := repo.LoadOrder(tx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %d", ErrNotFound, orderID)
			}
			return err
		}
		if current.UserID != userID {
			return fmt.Errorf("%w: order %d belongs to another user", ErrForbidden, orderID)
		}
		if current.Status != models.OrderStatusNew {
			return fmt.Errorf("%w: only new orders can be deleted", ErrForbidden)
		}

		res := tx.Where("id = ? AND user_id = ? AND status = ?", orderID, userID, models.OrderStatusNew).
			Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: only new orders can be deleted", ErrForbidden)
		}

		if err := restoreStock(tx, current.Items); err != nil {
			return err
		}
		return tx.Where("order_id = ?", orderID).Delete(&models.OrderItem{}).Error
	})
}

func restoreStock(tx *gorm.DB, items []models.OrderItem) error {
	for _, it := range items {
		rows, err := repo.AdjustStock(tx, it.ProductID, int64(it.Quantity))
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
		}
	}
	return nil
}

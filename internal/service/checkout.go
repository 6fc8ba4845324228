package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// CheckoutService turns a basket into an order. Checkout re-verifies the
// account password even inside an active session; stock is untouched
// here because every unit was already reserved at add-to-basket time.
type CheckoutService struct {
	DB *gorm.DB
}

func (s *CheckoutService) Checkout(ctx context.Context, userID uint, password string) (*models.Order, error) {
	db := s.DB.WithContext(ctx)

	var lineCount int64
	if err := db.Model(&models.BasketItem{}).Where("user_id = ?", userID).Count(&lineCount).Error; err != nil {
		return nil, err
	}
	if lineCount == 0 {
		return nil, ErrEmptyBasket
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredential
	}

	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		// The basket can be emptied between the precondition check and
		// the credential prompt; re-read it inside the transaction.
		items, err := repo.LoadBasket(tx, userID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyBasket
		}

		order = models.Order{
			UserID:    userID,
			Status:    models.OrderStatusNew,
			CreatedAt: time.Now().UTC(),
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		orderItems := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			var p models.Product
			if err := tx.First(&p, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
				}
				return err
			}
			orderItems = append(orderItems, models.OrderItem{
				OrderID:   order.ID,
				ProductID: it.ProductID,
				Quantity:  it.Quantity,
				Price:     p.Price,
			})
		}
		if err := tx.Create(&orderItems).Error; err != nil {
			return err
		}
		order.Items = orderItems

		// Only the snapshotted lines are cleared; a line added from
		// another session after the read keeps its reservation.
		lineIDs := make([]uint, 0, len(items))
		for _, it := range items {
			lineIDs = append(lineIDs, it.ID)
		}
		return repo.ClearBasketLines(tx, lineIDs)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

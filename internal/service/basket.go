package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

// BasketService keeps basket lines and product stock in lockstep: every
// add reserves one unit, every remove releases one. Both sides of the
// pair happen in a single transaction, and quantities only move through
// expression updates so concurrent mutations of one line never collide.
type BasketService struct {
	DB *gorm.DB
}

type BasketLine struct {
	models.BasketItem
	LineTotal int64 `json:"line_total"`
}

func (s *BasketService) Add(ctx context.Context, userID, productID uint) (*models.BasketItem, error) {
	var line models.BasketItem

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := repo.AdjustStock(tx, productID, -1)
		if err != nil {
			return err
		}
		if rows == 0 {
			var exists int64
			if err := tx.Model(&models.Product{}).Where("id = ?", productID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return fmt.Errorf("%w: product %d", ErrNotFound, productID)
			}
			return fmt.Errorf("%w: product %d", ErrOutOfStock, productID)
		}

		bumped, err := repo.IncrementBasketLine(tx, userID, productID)
		if err != nil {
			return err
		}
		if bumped == 0 {
			line = models.BasketItem{
				UserID:    userID,
				ProductID: productID,
				Quantity:  1,
				AddedAt:   time.Now().UTC(),
			}
			return tx.Create(&line).Error
		}

		found, err := repo.FindBasketLine(tx, userID, productID)
		if err != nil {
			return err
		}
		line = *found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *BasketService) Remove(ctx context.Context, userID, productID uint) (*models.BasketItem, error) {
	var line *models.BasketItem

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lowered, err := repo.DecrementBasketLine(tx, userID, productID)
		if err != nil {
			return err
		}
		if lowered > 0 {
			found, err := repo.FindBasketLine(tx, userID, productID)
			if err != nil {
				return err
			}
			line = found
		} else {
			deleted, err := repo.DeleteBasketLine(tx, userID, productID)
			if err != nil {
				return err
			}
			if deleted == 0 {
				return fmt.Errorf("%w: basket line for product %d", ErrNotFound, productID)
			}
			line = nil
		}

		rows, err := repo.AdjustStock(tx, productID, +1)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: product %d", ErrNotFound, productID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *BasketService) List(ctx context.Context, userID uint) ([]BasketLine, error) {
	r := repo.BasketRepo{DB: s.DB}
	items, err := r.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	lines := make([]BasketLine, 0, len(items))
	for _, it := range items {
		var total int64
		if it.Product != nil {
			total = int64(it.Quantity) * it.Product.Price
		}
		lines = append(lines, BasketLine{BasketItem: it, LineTotal: total})
	}
	return lines, nil
}

package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderRepo struct {
	DB *gorm.DB
}

func (r *OrderRepo) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) List(ctx context.Context, userID uint, status models.OrderStatus, offset, limit int) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Preload("Items")
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func LoadOrder(tx *gorm.DB, id uint) (*models.Order, error) {
	var order models.Order
	if err := tx.Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionStatus flips the order status only when the current status is
// one of from. The returned row count tells the caller whether this call
// won the transition; under concurrent cancels at most one does.
func TransitionStatus(tx *gorm.DB, orderID uint, from []models.OrderStatus, to models.OrderStatus, updates map[string]any) (int64, error) {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

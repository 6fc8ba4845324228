package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type BasketRepo struct {
	DB *gorm.DB
}

func (r *BasketRepo) List(ctx context.Context, userID uint) ([]models.BasketItem, error) {
	var items []models.BasketItem
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func FindBasketLine(tx *gorm.DB, userID, productID uint) (*models.BasketItem, error) {
	var item models.BasketItem
	if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func LoadBasket(tx *gorm.DB, userID uint) ([]models.BasketItem, error) {
	var items []models.BasketItem
	if err := tx.Where("user_id = ?", userID).Order("added_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// IncrementBasketLine bumps the quantity with an expression update, so
// concurrent adds for the same line never lose each other's increment.
// Returns 0 rows when no line exists yet.
func IncrementBasketLine(tx *gorm.DB, userID, productID uint) (int64, error) {
	res := tx.Model(&models.BasketItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Update("quantity", gorm.Expr("quantity + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DecrementBasketLine lowers the quantity only while the result stays
// positive; a line at quantity 1 is handled by DeleteBasketLine.
func DecrementBasketLine(tx *gorm.DB, userID, productID uint) (int64, error) {
	res := tx.Model(&models.BasketItem{}).
		Where("user_id = ? AND product_id = ? AND quantity > 1", userID, productID).
		Update("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// DeleteBasketLine removes the line only at quantity 1, mirroring the
// guard in DecrementBasketLine.
func DeleteBasketLine(tx *gorm.DB, userID, productID uint) (int64, error) {
	res := tx.Where("user_id = ? AND product_id = ? AND quantity = 1", userID, productID).
		Delete(&models.BasketItem{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ClearBasketLines deletes exactly the given lines. Checkout passes the
// IDs it snapshotted, so a line added concurrently is left alone.
func ClearBasketLines(tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.Where("id IN ?", ids).Delete(&models.BasketItem{}).Error
}

// ClearBasketsForProduct removes the product from every basket. Used when
// a product (or its whole category) is taken out of the catalog.
func ClearBasketsForProduct(tx *gorm.DB, productID uint) error {
	return tx.Where("product_id = ?", productID).Delete(&models.BasketItem{}).Error
}

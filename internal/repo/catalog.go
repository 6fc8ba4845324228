package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type CatalogRepo struct {
	DB *gorm.DB
}

// productSortOrders maps the public sort keys onto SQL order clauses.
var productSortOrders = map[string]string{
	"newest":     "created_at DESC",
	"year-desc":  "year_of_production DESC",
	"year-asc":   "year_of_production ASC",
	"title-asc":  "title ASC",
	"title-desc": "title DESC",
	"price-asc":  "price ASC",
	"price-desc": "price DESC",
}

func ValidProductSort(sort string) bool {
	_, ok := productSortOrders[sort]
	return ok
}

func (r *CatalogRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *CatalogRepo) ListProducts(ctx context.Context, categorySlug, sort string, offset, limit int) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if categorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", categorySlug)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	order, ok := productSortOrders[sort]
	if !ok {
		order = productSortOrders["newest"]
	}

	var items []models.Product
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

// CountOrderReferences reports how many order items still point at the
// product. A non-zero result blocks deletion.
func CountOrderReferences(tx *gorm.DB, productID uint) (int64, error) {
	var n int64
	err := tx.Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

// AdjustStock is the single mutation path for count_available. The guard
// in the WHERE clause keeps the counter non-negative without a
// read-modify-write cycle; callers learn from the returned row count
// whether the adjustment applied.
func AdjustStock(tx *gorm.DB, productID uint, delta int64) (int64, error) {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND count_available + ? >= 0", productID, delta).
		Update("count_available", gorm.Expr("count_available + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *CatalogRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("title ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *CatalogRepo) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

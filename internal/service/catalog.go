package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
)

const (
	titleMaxLen  = 99
	minYear      = 2000
	slugMaxTries = 50
)

type CatalogService struct {
	DB *gorm.DB
}

type CreateProductInput struct {
	Title             string `json:"title"`
	Model             string `json:"model"`
	YearOfProduction  uint   `json:"year_of_production"`
	ProductionCountry string `json:"production_country"`
	Price             int64  `json:"price"`
	CountAvailable    uint   `json:"count_available"`
	CategoryID        uint   `json:"category_id"`
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	r := repo.CatalogRepo{DB: s.DB}
	product, err := r.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, categorySlug, sort string, offset, limit int) (int64, []models.Product, error) {
	if sort != "" && !repo.ValidProductSort(sort) {
		return 0, nil, fmt.Errorf("%w: unknown sort %q", ErrValidation, sort)
	}
	r := repo.CatalogRepo{DB: s.DB}
	if categorySlug != "" {
		if _, err := r.GetCategoryBySlug(ctx, categorySlug); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, nil, fmt.Errorf("%w: category %q", ErrNotFound, categorySlug)
			}
			return 0, nil, err
		}
	}
	return r.ListProducts(ctx, categorySlug, sort, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*models.Product, error) {
	if in.Title == "" || len(in.Title) > titleMaxLen {
		return nil, fmt.Errorf("%w: title must be 1..%d characters", ErrValidation, titleMaxLen)
	}
	if in.Price < 1 {
		return nil, fmt.Errorf("%w: price must be >= 1", ErrValidation)
	}
	if in.YearOfProduction != 0 {
		maxYear := uint(time.Now().Year() + 1)
		if in.YearOfProduction < minYear || in.YearOfProduction > maxYear {
			return nil, fmt.Errorf("%w: year_of_production must be in [%d, %d]", ErrValidation, minYear, maxYear)
		}
	}

	var cat models.Category
	if err := s.DB.WithContext(ctx).First(&cat, in.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %d", ErrNotFound, in.CategoryID)
		}
		return nil, err
	}

	product := models.Product{
		Title:             in.Title,
		Model:             in.Model,
		YearOfProduction:  in.YearOfProduction,
		ProductionCountry: in.ProductionCountry,
		Price:             in.Price,
		CountAvailable:    in.CountAvailable,
		CategoryID:        cat.ID,
		CreatedAt:         time.Now().UTC(),
	}
	r := repo.CatalogRepo{DB: s.DB}
	if err := r.CreateProduct(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct removes a product from the catalog and from every
// basket. Products referenced by order items are protected; they carry
// the price history of placed orders.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: product %d", ErrNotFound, id)
			}
			return err
		}

		refs, err := repo.CountOrderReferences(tx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: product %d is referenced by order items", ErrForbidden, id)
		}

		if err := repo.ClearBasketsForProduct(tx, id); err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	r := repo.CatalogRepo{DB: s.DB}
	return r.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, title, slug string) (*models.Category, error) {
	if title == "" || len(title) > titleMaxLen {
		return nil, fmt.Errorf("%w: title must be 1..%d characters", ErrValidation, titleMaxLen)
	}

	r := repo.CatalogRepo{DB: s.DB}
	if slug == "" {
		derived, err := s.deriveSlug(ctx, &r, title)
		if err != nil {
			return nil, err
		}
		slug = derived
	}

	cat := models.Category{Title: title, Slug: slug}
	if err := r.CreateCategory(ctx, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CatalogService) deriveSlug(ctx context.Context, r *repo.CatalogRepo, title string) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		return "", fmt.Errorf("%w: title produces an empty slug", ErrValidation)
	}

	slug := base
	for i := 2; i <= slugMaxTries; i++ {
		taken, err := r.SlugTaken(ctx, slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w: cannot derive a unique slug for %q", ErrValidation, title)
}

// DeleteCategory cascades to the category's products and their basket
// lines. Blocked while any of those products appears on an order.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: category %d", ErrNotFound, id)
			}
			return err
		}

		var productIDs []uint
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}

		if len(productIDs) > 0 {
			var refs int64
			if err := tx.Model(&models.OrderItem{}).Where("product_id IN ?", productIDs).Count(&refs).Error; err != nil {
				return err
			}
			if refs > 0 {
				return fmt.Errorf("%w: category %d has products referenced by order items", ErrForbidden, id)
			}

			if err := tx.Where("product_id IN ?", productIDs).Delete(&models.BasketItem{}).Error; err != nil {
				return err
			}
			if err := tx.Where("category_id = ?", id).Delete(&models.Product{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.Category{}, id).Error
	})
}

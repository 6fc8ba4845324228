package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.User{},
		&models.RefreshToken{},
		&models.BasketItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, title, slug string) models.Category {
	t.Helper()
	cat := models.Category{Title: title, Slug: slug}
	require.NoError(t, db.Create(&cat).Error)
	return cat
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uint, title string, price int64, count uint) models.Product {
	t.Helper()
	p := models.Product{
		Title:          title,
		Price:          price,
		CountAvailable: count,
		CategoryID:     categoryID,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, username, password string) models.User {
	t.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		Role:         "user",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func mustParseTime(t *testing.T, v string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return ts
}

func productStock(t *testing.T, db *gorm.DB, id uint) uint {
	t.Helper()
	var p models.Product
	require.NoError(t, db.First(&p, id).Error)
	return p.CountAvailable
}

func basketSize(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.BasketItem{}).Where("user_id = ?", userID).Count(&n).Error)
	return n
}

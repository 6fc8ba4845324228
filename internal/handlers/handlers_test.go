package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
)

type testEnv struct {
	T       *testing.T
	E       *echo.Echo
	DB      *gorm.DB
	Auth    *AuthHandler
	Basket  *BasketHandler
	Orders  *OrderHandler
	Catalog *CatalogHandler
	Search  *SearchHandler
}

func newTestEnv(t *testing.T) *testEnv {
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

	jwtSecret := []byte("test-jwt-secret")
	refreshSecret := []byte("test-refresh-secret")

	return &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		Auth: &AuthHandler{
			DB:            db,
			JWTSecret:     jwtSecret,
			RefreshSecret: refreshSecret,
		},
		Basket: &BasketHandler{
			Basket:   &service.BasketService{DB: db},
			Checkout: &service.CheckoutService{DB: db},
		},
		Orders: &OrderHandler{
			Svc: &service.OrderService{DB: db},
		},
		Catalog: &CatalogHandler{
			Svc: &service.CatalogService{DB: db},
		},
		Search: &SearchHandler{},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body any, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

// asUser mimics what the auth middleware puts on the context.
func asUser(c echo.Context, userID uint, role string) {
	c.Set("userID", userID)
	c.Set("role", role)
}

func (env *testEnv) seedCategory(title, slug string) models.Category {
	env.T.Helper()
	cat := models.Category{Title: title, Slug: slug}
	require.NoError(env.T, env.DB.Create(&cat).Error)
	return cat
}

func (env *testEnv) seedProduct(categoryID uint, title string, price int64, count uint) models.Product {
	env.T.Helper()
	p := models.Product{
		Title:          title,
		Price:          price,
		CountAvailable: count,
		CategoryID:     categoryID,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(env.T, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) seedUser(username, password, role string) models.User {
	env.T.Helper()
	pwHash, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func requireHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, code, he.Code)
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/handlers"
	"github.com/Skotchmaster/storefront/internal/service/token"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	CatalogHandler *handlers.CatalogHandler
	BasketHandler  *handlers.BasketHandler
	OrderHandler   *handlers.OrderHandler
	SearchHandler  *handlers.SearchHandler
	TokenService   *token.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.LogOut)

	v1.GET("/products", d.CatalogHandler.GetProducts)
	v1.GET("/products/:id", d.CatalogHandler.GetProduct)
	v1.GET("/categories", d.CatalogHandler.GetCategories)
	v1.GET("/search", d.SearchHandler.Search)

	basket := v1.Group("/basket", d.TokenService.AutoRefreshMiddleware)
	basket.GET("", d.BasketHandler.GetBasket)
	basket.POST("", d.BasketHandler.AddToBasket)
	basket.DELETE("/:productID", d.BasketHandler.RemoveFromBasket)
	basket.POST("/checkout", d.BasketHandler.MakeOrder)

	orders := v1.Group("/orders", d.TokenService.AutoRefreshMiddleware)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	admin := v1.Group("/admin", d.TokenService.AutoRefreshMiddlewareAdmin)
	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.POST("/categories", d.CatalogHandler.CreateCategory)
	admin.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory)
	admin.GET("/orders", d.OrderHandler.AdminGetOrders)
	admin.POST("/orders/:id/confirm", d.OrderHandler.ConfirmOrder)
	admin.POST("/orders/:id/cancel", d.OrderHandler.CancelOrder)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/mykafka"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/service/search"
	"github.com/Skotchmaster/storefront/internal/util"
)

type CatalogHandler struct {
	Svc      *service.CatalogService
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *CatalogHandler) events() *publisher {
	return &publisher{Producer: h.Producer, Topic: "product_events"}
}

func (h *CatalogHandler) syncIndex(c echo.Context, fn func() error) {
	if h.ES == nil {
		return
	}
	if err := fn(); err != nil {
		logging.FromContext(c.Request().Context()).Error("search index sync error", "error", err)
	}
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	product, err := h.Svc.GetProduct(c.Request().Context(), uint(id))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHandler) GetProducts(c echo.Context) error {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	categorySlug := c.QueryParam("category")
	sort := c.QueryParam("sort")

	total, items, err := h.Svc.ListProducts(c.Request().Context(), categorySlug, sort, offset, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	var req service.CreateProductInput
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	product, err := h.Svc.CreateProduct(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}

	h.syncIndex(c, func() error {
		return search.IndexProduct(c.Request().Context(), h.ES, h.Index, product)
	})
	h.events().publish(c, map[string]any{
		"type":      "product_created",
		"userID":    c.Get("userID"),
		"productID": product.ID,
		"title":     product.Title,
	})
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.DeleteProduct(c.Request().Context(), uint(id)); err != nil {
		return serviceError(c, err)
	}

	h.syncIndex(c, func() error {
		return search.RemoveProduct(c.Request().Context(), h.ES, h.Index, uint(id))
	})
	h.events().publish(c, map[string]any{
		"type":      "product_deleted",
		"userID":    c.Get("userID"),
		"productID": id,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHandler) GetCategories(c echo.Context) error {
	cats, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var req struct {
		Title string `json:"title"`
		Slug  string `json:"slug"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cat, err := h.Svc.CreateCategory(c.Request().Context(), req.Title, req.Slug)
	if err != nil {
		return serviceError(c, err)
	}

	h.events().publish(c, map[string]any{
		"type":       "category_created",
		"userID":     c.Get("userID"),
		"categoryID": cat.ID,
		"slug":       cat.Slug,
	})
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHandler) DeleteCategory(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if err := h.Svc.DeleteCategory(c.Request().Context(), uint(id)); err != nil {
		return serviceError(c, err)
	}

	h.events().publish(c, map[string]any{
		"type":       "category_deleted",
		"userID":     c.Get("userID"),
		"categoryID": id,
	})
	return c.NoContent(http.StatusNoContent)
}

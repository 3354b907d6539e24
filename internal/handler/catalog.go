package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/qes00/allahuv3/internal/repository"
)

// CatalogHandler serves the public product browse endpoints. These are the
// only routes fronted by the Redis response cache.
type CatalogHandler struct {
	Products *repository.ProductRepo
}

func NewCatalogHandler(products *repository.ProductRepo) *CatalogHandler {
	return &CatalogHandler{Products: products}
}

// List returns the catalog, optionally filtered by ?category=.
func (h *CatalogHandler) List(c echo.Context) error {
	products, err := h.Products.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		c.Logger().Errorf("catalog list: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load products"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": products})
}

// Get returns a single product by id.
func (h *CatalogHandler) Get(c echo.Context) error {
	p, err := h.Products.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		c.Logger().Errorf("catalog get: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load product"})
	}
	return c.JSON(http.StatusOK, p)
}

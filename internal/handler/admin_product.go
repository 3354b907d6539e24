package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qes00/allahuv3/internal/describe"
	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/repository"
)

// AdminProductHandler is the admin-only catalog management surface. Generator
// may be nil when no Gemini key is configured; the describe endpoint then
// answers 503 and the rest of the panel keeps working.
type AdminProductHandler struct {
	Products  *repository.ProductRepo
	Generator *describe.Generator
}

func NewAdminProductHandler(products *repository.ProductRepo, gen *describe.Generator) *AdminProductHandler {
	return &AdminProductHandler{Products: products, Generator: gen}
}

type productReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
	IsFeatured  bool    `json:"is_featured"`
}

func (req *productReq) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name required"
	}
	if req.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

// Create inserts a new catalog product.
func (h *AdminProductHandler) Create(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	p, err := h.Products.Create(c.Request().Context(), model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		c.Logger().Errorf("admin create product: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create product"})
	}
	return c.JSON(http.StatusCreated, p)
}

// Update replaces the mutable fields of an existing product.
func (h *AdminProductHandler) Update(c echo.Context) error {
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	p, err := h.Products.Update(c.Request().Context(), model.Product{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		IsFeatured:  req.IsFeatured,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		c.Logger().Errorf("admin update product: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update product"})
	}
	return c.JSON(http.StatusOK, p)
}

type describeReq struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Describe generates a short sales description for the product form. The
// caller keeps editing while this runs; a failure only surfaces as a message
// on the description field.
func (h *AdminProductHandler) Describe(c echo.Context) error {
	if h.Generator == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "description generation is not configured"})
	}
	var req describeReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	text, err := h.Generator.ProductDescription(c.Request().Context(), req.Name, req.Category)
	if err != nil {
		c.Logger().Errorf("describe product: %v", err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "could not generate description"})
	}
	return c.JSON(http.StatusOK, echo.Map{"description": text})
}

package handler

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/qes00/allahuv3/internal/cart"
	"github.com/qes00/allahuv3/internal/money"
	"github.com/qes00/allahuv3/internal/repository"
)

// cartTokenHeader carries the guest cart identity. Authenticated requests use
// the JWT subject instead, so a signed-in user keeps one cart across devices.
const cartTokenHeader = "X-Cart-Token"

// CartHandler exposes the cart over HTTP. It owns none of the pricing rules:
// lines and totals always come from the cart engine, recomputed per request.
type CartHandler struct {
	Store    *cart.Store
	Products *repository.ProductRepo
	TaxRate  float64
}

func NewCartHandler(store *cart.Store, products *repository.ProductRepo, taxRate float64) *CartHandler {
	return &CartHandler{Store: store, Products: products, TaxRate: taxRate}
}

type cartResp struct {
	Lines          cart.Cart   `json:"lines"`
	Totals         cart.Totals `json:"totals"`
	TotalFormatted string      `json:"total_formatted"`
	Units          int         `json:"units"`
	OpenCart       bool        `json:"open_cart,omitempty"`
}

// cartOwner resolves who this cart belongs to: the authenticated user id, the
// guest token header, or a freshly minted token echoed back to the client.
func cartOwner(c echo.Context) string {
	if v, ok := c.Get("user_id").(string); ok && v != "" {
		return v
	}
	if tok := c.Request().Header.Get(cartTokenHeader); tok != "" {
		c.Response().Header().Set(cartTokenHeader, tok)
		return tok
	}
	tok := uuid.NewString()
	c.Response().Header().Set(cartTokenHeader, tok)
	return tok
}

func (h *CartHandler) respond(c echo.Context, cur cart.Cart, opened bool) error {
	totals := cart.ComputeTotals(cur, h.TaxRate)
	return c.JSON(http.StatusOK, cartResp{
		Lines:          cur,
		Totals:         totals,
		TotalFormatted: money.Format(totals.Total),
		Units:          cart.CountUnits(cur),
		OpenCart:       opened,
	})
}

// Get returns the owner's cart with its freshly decomposed totals.
func (h *CartHandler) Get(c echo.Context) error {
	return h.respond(c, h.Store.Get(cartOwner(c)), false)
}

type addItemReq struct {
	ProductID string `json:"product_id"`
}

// AddItem looks the product up in the catalog and adds one unit of it. The
// response asks the client to open the cart panel.
func (h *CartHandler) AddItem(c echo.Context) error {
	var req addItemReq
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id required"})
	}

	p, err := h.Products.GetByID(c.Request().Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		c.Logger().Errorf("cart add: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not add item"})
	}

	next := h.Store.Add(cartOwner(c), cart.Item{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		ImageURL: p.ImageURL,
	})
	return h.respond(c, next, true)
}

// RemoveItem drops the whole line for the given product id, whatever its
// quantity. Removing an id that is not in the cart is not an error.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	next := h.Store.Remove(cartOwner(c), c.Param("id"))
	return h.respond(c, next, false)
}

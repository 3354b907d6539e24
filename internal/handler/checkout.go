package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/qes00/allahuv3/internal/cart"
	"github.com/qes00/allahuv3/internal/model"
	"github.com/qes00/allahuv3/internal/money"
	"github.com/qes00/allahuv3/internal/queue"
	"github.com/qes00/allahuv3/internal/repository"
	queue_publisher "github.com/qes00/allahuv3/internal/service"
)

// CheckoutHandler turns the caller's cart into a persisted order and publishes
// the confirmation event. All routes require authentication.
type CheckoutHandler struct {
	Store   *cart.Store
	Orders  *repository.OrderRepo
	Users   *repository.UserRepo
	TaxRate float64
}

func NewCheckoutHandler(store *cart.Store, orders *repository.OrderRepo, users *repository.UserRepo, taxRate float64) *CheckoutHandler {
	return &CheckoutHandler{Store: store, Orders: orders, Users: users, TaxRate: taxRate}
}

// Checkout persists the cart as a PENDING order, publishes order.confirmed to
// the broker, and on successful publish flips the order to CONFIRMED and
// empties the cart. When the broker is down the order stays PENDING and the
// cart is kept so the buyer can retry.
func (h *CheckoutHandler) Checkout(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	cur := h.Store.Get(userID)
	if len(cur) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cart is empty"})
	}

	totals := cart.ComputeTotals(cur, h.TaxRate)
	order := model.Order{
		UserID: userID,
		Status: model.OrderStatusPending,
		Total:  totals.Total,
		Base:   totals.Base,
		Tax:    totals.Tax,
	}
	for _, ln := range cur {
		order.Items = append(order.Items, model.OrderItem{
			ProductID: ln.Item.ID,
			Name:      ln.Item.Name,
			Price:     ln.Item.Price,
			Quantity:  ln.Quantity,
		})
	}

	created, err := h.Orders.Create(ctx, order)
	if err != nil {
		c.Logger().Errorf("checkout: create order: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create order"})
	}

	email := ""
	if u, err := h.Users.GetByID(ctx, userID); err == nil {
		email = u.Email
	}

	event := queue.OrderConfirmedEvent{
		OrderID:     created.ID,
		UserID:      userID,
		Email:       email,
		Total:       totals.Total,
		Base:        totals.Base,
		Tax:         totals.Tax,
		Currency:    money.Code,
		ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, it := range created.Items {
		event.Lines = append(event.Lines, queue.OrderLine{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	if err := queue_publisher.PublishOrderConfirmed(ctx, event); err != nil {
		c.Logger().Warnf("checkout: publish failed, order %s stays pending: %v", created.ID, err)
		return c.JSON(http.StatusAccepted, echo.Map{
			"order":  created,
			"status": created.Status,
		})
	}

	if err := h.Orders.SetStatus(ctx, created.ID, model.OrderStatusConfirmed); err != nil {
		c.Logger().Errorf("checkout: confirm order %s: %v", created.ID, err)
	} else {
		created.Status = model.OrderStatusConfirmed
	}
	h.Store.Clear(userID)

	return c.JSON(http.StatusCreated, echo.Map{
		"order":           created,
		"status":          created.Status,
		"total_formatted": money.Format(created.Total),
	})
}

// ListOrders returns the caller's order history, newest first.
func (h *CheckoutHandler) ListOrders(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orders, err := h.Orders.ListByUser(c.Request().Context(), userID)
	if err != nil {
		c.Logger().Errorf("orders list: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load orders"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

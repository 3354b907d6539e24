package model

import "time"

// Order statuses.  An order is created as pending and moves to confirmed once
// the confirmation event has been accepted by the broker.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
)

// Order mirrors the `orders` table.  Totals are stored tax-inclusive along
// with their decomposition so historical orders keep the rate they were
// charged under even if the configured rate changes later.
type Order struct {
	ID        string      `json:"id"`      // orders.id (UUID)
	UserID    string      `json:"user_id"` // orders.user_id
	Status    string      `json:"status"`  // orders.status
	Total     float64     `json:"total"`   // orders.total, tax-inclusive
	Base      float64     `json:"base"`    // orders.base, total without tax
	Tax       float64     `json:"tax"`     // orders.tax
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `json:"items"`
}

// OrderItem mirrors the `order_items` table.  Price is the unit price copied
// from the product at checkout time.
type OrderItem struct {
	ID        uint64  `json:"id"`         // order_items.id
	OrderID   string  `json:"order_id"`   // order_items.order_id
	ProductID string  `json:"product_id"` // order_items.product_id
	Name      string  `json:"name"`       // order_items.name
	Price     float64 `json:"price"`      // order_items.price
	Quantity  int     `json:"quantity"`   // order_items.quantity
}

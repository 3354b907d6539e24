// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderLine is a single purchased position inside an OrderConfirmedEvent.
type OrderLine struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

// OrderConfirmedEvent is published when a checkout completes. It carries
// enough information for downstream consumers to log, notify, or trigger
// analytics without querying the primary database.
type OrderConfirmedEvent struct {
	OrderID     string      `json:"order_id"`
	UserID      string      `json:"user_id"`
	Email       string      `json:"email"`
	Lines       []OrderLine `json:"lines"`
	Total       float64     `json:"total"`
	Base        float64     `json:"base"`
	Tax         float64     `json:"tax"`
	Currency    string      `json:"currency"`
	ConfirmedAt string      `json:"confirmed_at"`
}

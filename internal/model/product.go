package model

import "time"

// Product is a catalog item as stored in the `products` table.  Rows are
// immutable reference data from the storefront's point of view: carts and
// orders copy the fields they need instead of holding foreign keys into a
// mutable row.
type Product struct {
	ID          string    `json:"id"`          // products.id (UUID)
	Name        string    `json:"name"`        // products.name
	Description string    `json:"description"` // products.description
	Price       float64   `json:"price"`       // products.price, tax-inclusive
	ImageURL    string    `json:"image_url"`   // products.image_url
	Category    string    `json:"category"`    // products.category
	IsFeatured  bool      `json:"is_featured"` // products.is_featured
	CreatedAt   time.Time `json:"created_at"`  // products.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // products.updated_at
}

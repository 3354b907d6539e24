// Package cart implements the storefront cart: a pure pricing engine over an
// ordered list of lines, plus an in-memory per-owner store used by the HTTP
// layer. Displayed prices are tax-inclusive; totals are decomposed into their
// base and tax parts on every read and never cached.
package cart

import "fmt"

// Item is immutable catalog reference data copied into a cart line. The
// engine never mutates an Item.
type Item struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"` // unit price, tax-inclusive
	Category string  `json:"category"`
	ImageURL string  `json:"image_url"`
}

// Line pairs an item with a positive quantity. A cart holds at most one line
// per item id.
type Line struct {
	Item     Item `json:"item"`
	Quantity int  `json:"quantity"`
}

// Cart is an ordered sequence of lines, insertion order preserved for
// display. Operations are pure: they return a new cart and leave the input
// untouched.
type Cart []Line

// Totals is the tax-inclusive total and its decomposition at a given rate.
type Totals struct {
	Total float64 `json:"total"`
	Base  float64 `json:"base"`
	Tax   float64 `json:"tax"`
}

// Add returns a new cart with the item's quantity incremented by one, or a
// new line at quantity 1 when the item is not yet present. A negative unit
// price is a caller contract violation.
func Add(c Cart, it Item) Cart {
	if it.Price < 0 {
		panic(fmt.Sprintf("cart: negative price for item %q", it.ID))
	}
	out := make(Cart, len(c))
	copy(out, c)
	for i := range out {
		if out[i].Item.ID == it.ID {
			out[i].Quantity++
			return out
		}
	}
	return append(out, Line{Item: it, Quantity: 1})
}

// Remove returns a new cart with the line matching id excluded entirely,
// regardless of its quantity. Removing an absent id is a no-op.
func Remove(c Cart, id string) Cart {
	out := make(Cart, 0, len(c))
	for _, ln := range c {
		if ln.Item.ID != id {
			out = append(out, ln)
		}
	}
	return out
}

// ComputeTotals sums the lines and decomposes the tax-inclusive total:
// base = total / (1 + rate), tax = total - base. The rate is injected by the
// caller (configured IGV by default). Non-positive quantities are a caller
// contract violation.
func ComputeTotals(c Cart, rate float64) Totals {
	if rate < 0 {
		panic(fmt.Sprintf("cart: negative tax rate %v", rate))
	}
	var total float64
	for _, ln := range c {
		if ln.Quantity <= 0 {
			panic(fmt.Sprintf("cart: non-positive quantity for item %q", ln.Item.ID))
		}
		total += ln.Item.Price * float64(ln.Quantity)
	}
	base := total / (1 + rate)
	return Totals{Total: total, Base: base, Tax: total - base}
}

// CountUnits returns the sum of quantities across lines, used for the cart
// badge independently of the distinct-line count.
func CountUnits(c Cart) int {
	n := 0
	for _, ln := range c {
		n += ln.Quantity
	}
	return n
}

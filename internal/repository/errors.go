// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNotFound indicates a point lookup matched no row, while
// ErrEmailExists signals that account creation collided with an
// existing email address.
package repository

import "errors"

// ErrNotFound is returned when a point lookup (product, order, profile)
// matches no row. Handlers should translate this into an HTTP 404
// response; the session manager treats a missing profile as "no profile
// data available" rather than an error.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when inserting a user collides with the
// unique email index. Handlers should translate this into an HTTP 409
// response.
var ErrEmailExists = errors.New("email already exists")

// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios; for
// example, ErrRideNotFound lets a handler answer 404 instead of 500.
package repository

import "errors"

// ErrRideNotFound is returned when a ride lookup matches no row.
// Handlers should translate this into an HTTP 404 response.
var ErrRideNotFound = errors.New("ride not found")

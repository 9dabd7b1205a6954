// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to act on a resource owned by someone else, while the
// not-found sentinels identify which entity a lookup missed.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrListingNotFound is returned when a listing does not exist or is
// inactive and inactive rows were not requested.
var ErrListingNotFound = errors.New("listing not found")

// ErrRequestNotFound is returned when a booking request does not exist.
var ErrRequestNotFound = errors.New("booking request not found")

// ErrBookingNotFound is returned when a booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

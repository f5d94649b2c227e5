// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrConflict signals that an operation
// cannot proceed due to existing dependent records (e.g. deleting
// a package that already has bookings).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a package that still has bookings, or confirming a
// booking that is no longer pending. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrInsufficientSlots is returned when a booking requests more
// traveller slots than an availability window has left. Handlers
// should translate this into an HTTP 400 response.
var ErrInsufficientSlots = errors.New("not enough available slots")

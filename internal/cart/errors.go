package cart

import "errors"

var (
	// Configuration errors: returned before any network I/O.
	ErrNoSession = errors.New("no session identifier configured")
	ErrNoStore   = errors.New("no store selected")

	// Validation errors: rejected before the network call so the UI can
	// reflect exactly what failed.
	ErrInvalidID       = errors.New("identifier must be a positive integer")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrCheckoutInFlight rejects a duplicate checkout while one of the
	// same mode is outstanding. The duplicate is dropped, never queued.
	ErrCheckoutInFlight = errors.New("a checkout is already in progress")
)

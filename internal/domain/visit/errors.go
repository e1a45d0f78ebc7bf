package visit

import "errors"

// Failure taxonomy for station updates. Every rejection leaves the
// visit untouched; an update either fully applies (data, ledger, state)
// or not at all.
var (
	// ErrNotFound marks an unknown visit or lab order id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition marks an update submitted for a visit that is
	// not currently at the originating station.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrValidation marks a structurally bad station input, rejected
	// before any state change.
	ErrValidation = errors.New("validation failed")
)

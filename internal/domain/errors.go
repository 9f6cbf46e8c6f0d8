package domain

import (
	"errors"
	"fmt"
)

var (
	// Malformed request data. Rejected before any simulation work starts.
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyRoute   = errors.New("route has no segments")
	// Negative distance or duration on a route segment.
	ErrInvalidSegment = errors.New("invalid route segment")

	// The trip cannot meet a hard arrival deadline even with minimum rests.
	ErrInfeasibleTrip = errors.New("trip infeasible before deadline")

	// Routing or geocoding collaborator failed; raised before the core runs.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	ErrNotFound = errors.New("not found")

	// An internal consistency check failed. Indicates a defect, not bad input.
	ErrInvariant = errors.New("invariant violated")
)

// InputError describes which field was rejected. It matches ErrInvalidInput
// and, through Cause, the more specific sentinel when one applies.
type InputError struct {
	Field  string
	Reason string
	Cause  error
}

func NewInputError(field, reason string) *InputError {
	return &InputError{Field: field, Reason: reason}
}

func (e *InputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput || (e.Cause != nil && errors.Is(e.Cause, target))
}

func (e *InputError) Unwrap() error { return e.Cause }

// InfeasibleError reports how far past the deadline the best schedule lands.
type InfeasibleError struct {
	Deadline   string
	EarliestAt string
}

func (e *InfeasibleError) Error() string {
	return fmt.Sprintf("trip infeasible: earliest arrival %s is after deadline %s", e.EarliestAt, e.Deadline)
}

func (e *InfeasibleError) Is(target error) bool { return target == ErrInfeasibleTrip }

// UpstreamError wraps a failure from a routing or geocoding provider.
type UpstreamError struct {
	Provider string
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamUnavailable }

func (e *UpstreamError) Unwrap() error { return e.Err }

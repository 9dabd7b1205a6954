package model

import (
	"fmt"
	"time"
)

// The reservation engine reports failures through typed errors rather than
// free-form strings so handlers can map each class to a precise HTTP
// response and callers receive the payloads they need to recover (stay
// bounds, conflicting ranges, allowed transitions).

// ValidationError covers malformed or missing input.  Fully recoverable:
// the caller corrects the field and retries.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// StayDurationError is returned when the requested number of nights falls
// outside the effective min/max stay for the covered dates.  It carries
// the resolved bounds and a list of genuinely available dates so the
// caller can suggest alternatives.
type StayDurationError struct {
	Nights         int
	MinStay        int
	MaxStay        int // 0 means unbounded
	AvailableDates []time.Time
}

func (e *StayDurationError) Error() string {
	if e.MaxStay > 0 {
		return fmt.Sprintf("stay of %d nights is outside the allowed range of %d-%d nights", e.Nights, e.MinStay, e.MaxStay)
	}
	return fmt.Sprintf("stay of %d nights is below the minimum of %d nights", e.Nights, e.MinStay)
}

// PricingError indicates the computed total was not a positive amount,
// which points at bad calendar or listing data rather than a valid
// reservation.  Not retried automatically.
type PricingError struct {
	TotalCents int64
}

func (e *PricingError) Error() string {
	return fmt.Sprintf("computed total of %d cents is not a positive amount", e.TotalCents)
}

// ConflictError is returned when the requested dates intersect an active
// booking or a host blackout.  The conflicting ranges are included so the
// caller can explain exactly why without re-querying.
type ConflictError struct {
	Requested StayRange
	Conflicts []StayRange
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("dates %s conflict with %d existing reservation(s)", e.Requested, len(e.Conflicts))
}

// InvalidTransitionError reports an illegal booking status change.  This
// is a programming or UI error and is surfaced as-is.
type InvalidTransitionError struct {
	Current   BookingStatus
	Requested BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition booking from %s to %s", e.Current, e.Requested)
}

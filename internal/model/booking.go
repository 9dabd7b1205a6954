package model

import "time"

// BookingStatus enumerates the booking state machine.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCompleted BookingStatus = "COMPLETED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// ParseBookingStatus validates a status string from a request body.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return BookingStatus(s), nil
	}
	return "", &ValidationError{Field: "status", Reason: "must be one of PENDING, CONFIRMED, COMPLETED, CANCELLED"}
}

// transitions is the allowed booking state machine: status advances
// monotonically PENDING -> CONFIRMED -> COMPLETED, with CANCELLED
// reachable from PENDING or CONFIRMED.  COMPLETED and CANCELLED are
// terminal.
var transitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
}

// ValidateTransition returns an InvalidTransitionError when moving from
// current to next is not allowed.
func ValidateTransition(current, next BookingStatus) error {
	for _, allowed := range transitions[current] {
		if allowed == next {
			return nil
		}
	}
	return &InvalidTransitionError{Current: current, Requested: next}
}

// Booking is a confirmed-or-confirmable reservation created by approving a
// BookingRequest (or directly by the host).  The central invariant of the
// whole engine: for one listing, all bookings whose status is not
// CANCELLED have pairwise disjoint stay ranges.
//
// PaymentStatus is owned by the external payment collaborator and only
// mirrored here.
type Booking struct {
	ID                 uint64        // bookings.id
	BookingRef         string        // bookings.booking_ref
	ListingID          uint64        // bookings.listing_id
	GuestID            uint64        // bookings.guest_id
	HostID             uint64        // bookings.host_id
	RequestID          uint64        // bookings.request_id (0 when host-created)
	Stay               StayRange     // bookings.check_in / check_out
	NumberOfGuests     int           // bookings.number_of_guests
	TotalPriceCents    int64         // bookings.total_price_cents
	Status             BookingStatus // bookings.status
	PaymentStatus      string        // bookings.payment_status (mirror)
	CancellationReason *string       // bookings.cancellation_reason (nullable)
	DeletedAt          *time.Time    // bookings.deleted_at (nullable)
	CreatedAt          time.Time     // bookings.created_at
	UpdatedAt          time.Time     // bookings.updated_at
}

// Active reports whether the booking currently blocks its calendar dates.
func (b *Booking) Active() bool {
	return b.Status != BookingCancelled
}

package model

import "time"

// RequestStatus enumerates the lifecycle of a booking request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
	RequestExpired  RequestStatus = "EXPIRED"
)

// BookingRequest is a guest's time-boxed soft hold on a stay.  While
// pending it never blocks the calendar; it only signals intent until the
// host responds or the TTL lapses.  Requests are soft-deleted, never
// physically removed, to preserve the audit trail.
//
// Fields:
//  ID               – primary key identifier.
//  RequestRef       – public UUID exposed in APIs and events.
//  ListingID        – listing the stay is requested on.
//  GuestID          – requesting guest.
//  HostID           – listing host, copied at creation so responses can be
//                     authorized without a join.
//  Stay             – half-open [check_in, check_out) interval.
//  NumberOfGuests   – party size.
//  TotalPriceCents  – quoted total at creation time.
//  Message          – guest's note to the host.
//  Status           – PENDING, APPROVED, REJECTED or EXPIRED.
//  ExpiresAt        – soft-hold deadline; pending past this is dead.
//  ResponseMessage  – host's mandatory reply on approve/reject.
//  ResponseDate     – when the host responded.
type BookingRequest struct {
	ID              uint64        // booking_requests.id
	RequestRef      string        // booking_requests.request_ref
	ListingID       uint64        // booking_requests.listing_id
	GuestID         uint64        // booking_requests.guest_id
	HostID          uint64        // booking_requests.host_id
	Stay            StayRange     // booking_requests.check_in / check_out
	NumberOfGuests  int           // booking_requests.number_of_guests
	TotalPriceCents int64         // booking_requests.total_price_cents
	Message         string        // booking_requests.message
	Status          RequestStatus // booking_requests.status
	ExpiresAt       time.Time     // booking_requests.expires_at
	ResponseMessage *string       // booking_requests.response_message (nullable)
	ResponseDate    *time.Time    // booking_requests.response_date (nullable)
	DeletedAt       *time.Time    // booking_requests.deleted_at (nullable)
	CreatedAt       time.Time     // booking_requests.created_at
	UpdatedAt       time.Time     // booking_requests.updated_at
}

// Actionable reports whether the host can still respond to the request at
// the given instant: it must be pending and unexpired.  Expiry is
// re-checked at response time, not just at creation, so a stale request
// the sweeper has not reached yet is already treated as expired.
func (r *BookingRequest) Actionable(now time.Time) bool {
	return r.Status == RequestPending && r.ExpiresAt.After(now)
}

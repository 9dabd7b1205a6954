// Package queue defines the notification payloads exchanged over the
// message broker. Every notification is a versioned envelope with a typed
// payload per category, so downstream consumers can decode exactly what
// they were handed instead of poking at an untyped metadata blob.
package queue

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// NotificationQueue is the durable queue notifications are published to.
const NotificationQueue = "reservation.notifications"

// Notification categories. The category selects the payload type.
const (
	CategoryRequestCreated       = "request.created"
	CategoryRequestApproved      = "request.approved"
	CategoryRequestRejected      = "request.rejected"
	CategoryBookingStatusChanged = "booking.status_changed"
)

// Envelope wraps every notification. Version is bumped when a payload
// shape changes so consumers can dispatch on (Category, Version).
type Envelope struct {
	EventID     string          `json:"event_id"`
	Version     int             `json:"version"`
	Category    string          `json:"category"`
	RecipientID uint64          `json:"recipient_id"`
	Title       string          `json:"title"`
	Message     string          `json:"message"`
	OccurredAt  string          `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// RequestCreatedPayload notifies a host that a guest wants a stay.
type RequestCreatedPayload struct {
	RequestID       uint64 `json:"request_id"`
	RequestRef      string `json:"request_ref"`
	ListingID       uint64 `json:"listing_id"`
	GuestID         uint64 `json:"guest_id"`
	CheckIn         string `json:"check_in"`
	CheckOut        string `json:"check_out"`
	Nights          int    `json:"nights"`
	NumberOfGuests  int    `json:"number_of_guests"`
	TotalPriceCents int64  `json:"total_price_cents"`
	ExpiresAt       string `json:"expires_at"`
}

// RequestDecidedPayload notifies a guest of the host's decision. On
// approval BookingID and BookingRef identify the created booking.
type RequestDecidedPayload struct {
	RequestID       uint64  `json:"request_id"`
	RequestRef      string  `json:"request_ref"`
	ListingID       uint64  `json:"listing_id"`
	Decision        string  `json:"decision"`
	ResponseMessage string  `json:"response_message"`
	BookingID       *uint64 `json:"booking_id,omitempty"`
	BookingRef      *string `json:"booking_ref,omitempty"`
}

// BookingStatusChangedPayload notifies a party of a booking transition.
type BookingStatusChangedPayload struct {
	BookingID  uint64  `json:"booking_id"`
	BookingRef string  `json:"booking_ref"`
	ListingID  uint64  `json:"listing_id"`
	CheckIn    string  `json:"check_in"`
	CheckOut   string  `json:"check_out"`
	OldStatus  string  `json:"old_status"`
	NewStatus  string  `json:"new_status"`
	Reason     *string `json:"reason,omitempty"`
}

// NewEnvelope builds a versioned envelope around a typed payload.
func NewEnvelope(category string, recipientID uint64, title, message string, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		EventID:     uuid.NewString(),
		Version:     1,
		Category:    category,
		RecipientID: recipientID,
		Title:       title,
		Message:     message,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		Payload:     raw,
	}, nil
}

// WireDates formats a stay range for payload fields.
func WireDates(r model.StayRange) (string, string) {
	return r.CheckIn.Format(model.DateFormat), r.CheckOut.Format(model.DateFormat)
}

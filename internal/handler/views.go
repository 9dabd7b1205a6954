package handler

import (
	"time"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// Wire representations returned by the API.  Dates use YYYY-MM-DD,
// instants use RFC3339 UTC, money is integer cents.

type requestJSON struct {
	ID              uint64  `json:"id"`
	RequestRef      string  `json:"request_ref"`
	ListingID       uint64  `json:"listing_id"`
	GuestID         uint64  `json:"guest_id"`
	HostID          uint64  `json:"host_id"`
	CheckIn         string  `json:"check_in"`
	CheckOut        string  `json:"check_out"`
	Nights          int     `json:"nights"`
	NumberOfGuests  int     `json:"number_of_guests"`
	TotalPriceCents int64   `json:"total_price_cents"`
	Message         string  `json:"message"`
	Status          string  `json:"status"`
	ExpiresAt       string  `json:"expires_at"`
	ResponseMessage *string `json:"response_message,omitempty"`
	ResponseDate    *string `json:"response_date,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

func toRequestJSON(r *model.BookingRequest) requestJSON {
	out := requestJSON{
		ID:              r.ID,
		RequestRef:      r.RequestRef,
		ListingID:       r.ListingID,
		GuestID:         r.GuestID,
		HostID:          r.HostID,
		CheckIn:         r.Stay.CheckIn.Format(model.DateFormat),
		CheckOut:        r.Stay.CheckOut.Format(model.DateFormat),
		Nights:          r.Stay.Nights(),
		NumberOfGuests:  r.NumberOfGuests,
		TotalPriceCents: r.TotalPriceCents,
		Message:         r.Message,
		Status:          string(r.Status),
		ExpiresAt:       r.ExpiresAt.UTC().Format(time.RFC3339),
		CreatedAt:       r.CreatedAt.UTC().Format(time.RFC3339),
	}
	out.ResponseMessage = r.ResponseMessage
	if r.ResponseDate != nil {
		iso := r.ResponseDate.UTC().Format(time.RFC3339)
		out.ResponseDate = &iso
	}
	return out
}

func toRequestsJSON(rs []model.BookingRequest) []requestJSON {
	out := make([]requestJSON, 0, len(rs))
	for i := range rs {
		out = append(out, toRequestJSON(&rs[i]))
	}
	return out
}

type bookingJSON struct {
	ID                 uint64  `json:"id"`
	BookingRef         string  `json:"booking_ref"`
	ListingID          uint64  `json:"listing_id"`
	GuestID            uint64  `json:"guest_id"`
	HostID             uint64  `json:"host_id"`
	RequestID          uint64  `json:"request_id,omitempty"`
	CheckIn            string  `json:"check_in"`
	CheckOut           string  `json:"check_out"`
	Nights             int     `json:"nights"`
	NumberOfGuests     int     `json:"number_of_guests"`
	TotalPriceCents    int64   `json:"total_price_cents"`
	Status             string  `json:"status"`
	PaymentStatus      string  `json:"payment_status"`
	CancellationReason *string `json:"cancellation_reason,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

func toBookingJSON(b *model.Booking) bookingJSON {
	return bookingJSON{
		ID:                 b.ID,
		BookingRef:         b.BookingRef,
		ListingID:          b.ListingID,
		GuestID:            b.GuestID,
		HostID:             b.HostID,
		RequestID:          b.RequestID,
		CheckIn:            b.Stay.CheckIn.Format(model.DateFormat),
		CheckOut:           b.Stay.CheckOut.Format(model.DateFormat),
		Nights:             b.Stay.Nights(),
		NumberOfGuests:     b.NumberOfGuests,
		TotalPriceCents:    b.TotalPriceCents,
		Status:             string(b.Status),
		PaymentStatus:      b.PaymentStatus,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toBookingsJSON(bs []model.Booking) []bookingJSON {
	out := make([]bookingJSON, 0, len(bs))
	for i := range bs {
		out = append(out, toBookingJSON(&bs[i]))
	}
	return out
}

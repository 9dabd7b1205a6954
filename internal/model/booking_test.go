package model

import (
	"errors"
	"testing"
	"time"
)

func TestValidateTransition(t *testing.T) {
	all := []BookingStatus{BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled}
	allowed := map[[2]BookingStatus]bool{
		{BookingPending, BookingConfirmed}:   true,
		{BookingPending, BookingCancelled}:   true,
		{BookingConfirmed, BookingCompleted}: true,
		{BookingConfirmed, BookingCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			err := ValidateTransition(from, to)
			if allowed[[2]BookingStatus{from, to}] {
				if err != nil {
					t.Errorf("%s -> %s should be allowed, got %v", from, to, err)
				}
				continue
			}
			var ite *InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Errorf("%s -> %s should fail with InvalidTransitionError, got %v", from, to, err)
				continue
			}
			if ite.Current != from || ite.Requested != to {
				t.Errorf("error payload = %+v, want %s -> %s", ite, from, to)
			}
		}
	}
}

func TestParseBookingStatus(t *testing.T) {
	if _, err := ParseBookingStatus("CONFIRMED"); err != nil {
		t.Errorf("CONFIRMED should parse, got %v", err)
	}
	if _, err := ParseBookingStatus("confirmed"); err == nil {
		t.Error("lowercase status must be rejected")
	}
	if _, err := ParseBookingStatus("ON_HOLD"); err == nil {
		t.Error("unknown status must be rejected")
	}
}

func TestRequestActionable(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	req := &BookingRequest{Status: RequestPending, ExpiresAt: now.Add(time.Hour)}
	if !req.Actionable(now) {
		t.Error("pending unexpired request must be actionable")
	}
	req.ExpiresAt = now.Add(-time.Minute)
	if req.Actionable(now) {
		t.Error("expired-but-not-yet-swept request must not be actionable")
	}
	req.ExpiresAt = now.Add(time.Hour)
	req.Status = RequestApproved
	if req.Actionable(now) {
		t.Error("non-pending request must not be actionable")
	}
}

func TestBookingActive(t *testing.T) {
	b := &Booking{Status: BookingCancelled}
	if b.Active() {
		t.Error("cancelled booking must not block the calendar")
	}
	for _, s := range []BookingStatus{BookingPending, BookingConfirmed, BookingCompleted} {
		b.Status = s
		if !b.Active() {
			t.Errorf("%s booking must count as active", s)
		}
	}
}

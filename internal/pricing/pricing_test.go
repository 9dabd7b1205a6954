package pricing

import (
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/stay-reservation/internal/model"
)

func mustRange(t *testing.T, in, out string) model.StayRange {
	t.Helper()
	r, err := model.ParseStayRange(in, out)
	if err != nil {
		t.Fatalf("bad test range: %v", err)
	}
	return r
}

// Three nights at the $100 default plus a $20 cleaning fee comes to $320.
func TestComputeDefaultsOnly(t *testing.T) {
	listing := &model.Listing{
		NightlyPriceCents: 10000,
		CleaningFeeCents:  2000,
		MinStay:           2,
	}
	r := mustRange(t, "2026-06-10", "2026-06-13")
	entries := model.SynthesizeRange(listing, nil, r)
	q, err := Compute(listing, entries)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if q.Nights != 3 {
		t.Errorf("Nights = %d, want 3", q.Nights)
	}
	if q.PerNightTotalCents != 30000 {
		t.Errorf("PerNightTotalCents = %d, want 30000", q.PerNightTotalCents)
	}
	if q.TotalCents != 32000 {
		t.Errorf("TotalCents = %d, want 32000", q.TotalCents)
	}
	if len(q.NightlyBreakdown) != 3 || q.NightlyBreakdown[0].Day != "2026-06-10" {
		t.Errorf("breakdown = %+v", q.NightlyBreakdown)
	}
}

func TestComputeUsesCalendarOverridePrice(t *testing.T) {
	listing := &model.Listing{NightlyPriceCents: 10000, CleaningFeeCents: 2000}
	override := int64(25000)
	stored := []model.CalendarEntry{{
		Day:            time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC),
		IsAvailable:    true,
		BasePriceCents: &override,
	}}
	r := mustRange(t, "2026-06-10", "2026-06-13")
	entries := model.SynthesizeRange(listing, stored, r)
	q, err := Compute(listing, entries)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// 10000 + 25000 + 10000 nights + 2000 fee
	if q.PerNightTotalCents != 45000 {
		t.Errorf("PerNightTotalCents = %d, want 45000", q.PerNightTotalCents)
	}
	if q.TotalCents != 47000 {
		t.Errorf("TotalCents = %d, want 47000", q.TotalCents)
	}
}

func TestComputeFeesAddedOncePerBooking(t *testing.T) {
	listing := &model.Listing{
		NightlyPriceCents:    5000,
		CleaningFeeCents:     3000,
		SecurityDepositCents: 10000,
	}
	r := mustRange(t, "2026-06-01", "2026-06-08") // 7 nights
	entries := model.SynthesizeRange(listing, nil, r)
	q, err := Compute(listing, entries)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	want := int64(7*5000 + 3000 + 10000)
	if q.TotalCents != want {
		t.Errorf("TotalCents = %d, want %d", q.TotalCents, want)
	}
}

func TestComputeRejectsNonPositiveTotal(t *testing.T) {
	listing := &model.Listing{NightlyPriceCents: 0, CleaningFeeCents: 0}
	r := mustRange(t, "2026-06-10", "2026-06-12")
	entries := model.SynthesizeRange(listing, nil, r)
	_, err := Compute(listing, entries)
	var pe *model.PricingError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PricingError, got %v", err)
	}
	if pe.TotalCents != 0 {
		t.Errorf("error payload total = %d, want 0", pe.TotalCents)
	}
}

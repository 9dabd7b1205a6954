package model

import (
	"errors"
	"testing"
	"time"
)

func intp(n int) *int { return &n }

func testListing() *Listing {
	return &Listing{
		ID:                   1,
		HostID:               7,
		NightlyPriceCents:    10000,
		CleaningFeeCents:     2000,
		SecurityDepositCents: 0,
		MinStay:              2,
		MaxGuests:            4,
		IsActive:             true,
	}
}

func TestSynthesizeRangeFallsBackToDefaults(t *testing.T) {
	r := stay(t, "2026-06-10", "2026-06-13")
	entries := SynthesizeRange(testListing(), nil, r)
	if len(entries) != 3 {
		t.Fatalf("synthesized %d entries, want 3", len(entries))
	}
	for _, e := range entries {
		if !e.Inferred {
			t.Errorf("%s: entry with no stored row must be inferred", e.Day.Format(DateFormat))
		}
		if !e.IsAvailable {
			t.Errorf("%s: missing entry must default to available", e.Day.Format(DateFormat))
		}
		if e.BasePriceCents != 10000 {
			t.Errorf("%s: price = %d, want listing default 10000", e.Day.Format(DateFormat), e.BasePriceCents)
		}
		if e.MinStay != 2 || e.MaxStay != 0 {
			t.Errorf("%s: stay bounds = %d/%d, want 2/0", e.Day.Format(DateFormat), e.MinStay, e.MaxStay)
		}
	}
}

func TestSynthesizeRangeMergesOverrides(t *testing.T) {
	r := stay(t, "2026-06-10", "2026-06-13")
	price := int64(15000)
	stored := []CalendarEntry{
		{
			ListingID:       1,
			Day:             day(t, "2026-06-11"),
			IsAvailable:     false,
			BasePriceCents:  &price,
			MinStay:         intp(3),
			MaxStay:         intp(7),
			CheckInAllowed:  false,
			CheckOutAllowed: true,
		},
	}
	entries := SynthesizeRange(testListing(), stored, r)
	if len(entries) != 3 {
		t.Fatalf("synthesized %d entries, want 3", len(entries))
	}
	mid := entries[1]
	if mid.Inferred {
		t.Error("stored day must not be inferred")
	}
	if mid.IsAvailable || mid.CheckInAllowed || !mid.CheckOutAllowed {
		t.Errorf("override flags not applied: %+v", mid)
	}
	if mid.BasePriceCents != 15000 || mid.MinStay != 3 || mid.MaxStay != 7 {
		t.Errorf("override values not applied: %+v", mid)
	}
	// neighbours stay on defaults
	if entries[0].BasePriceCents != 10000 || !entries[0].Inferred {
		t.Errorf("unexpected synthesis for uncovered day: %+v", entries[0])
	}
}

func TestResolveStayBoundsTakesStrictest(t *testing.T) {
	entries := []EffectiveEntry{
		{MinStay: 2, MaxStay: 0},
		{MinStay: 5, MaxStay: 10},
		{MinStay: 3, MaxStay: 8},
	}
	b := ResolveStayBounds(entries)
	if b.MinStay != 5 {
		t.Errorf("MinStay = %d, want 5 (maximum of minimums)", b.MinStay)
	}
	if b.MaxStay != 8 {
		t.Errorf("MaxStay = %d, want 8 (minimum of bounded maximums)", b.MaxStay)
	}
}

func TestCheckStayDuration(t *testing.T) {
	bounds := StayBounds{MinStay: 2, MaxStay: 5}
	if err := CheckStayDuration(3, bounds, nil); err != nil {
		t.Errorf("3 nights within 2-5 should pass, got %v", err)
	}
	free := []time.Time{day(t, "2026-07-01")}
	err := CheckStayDuration(1, bounds, free)
	var sde *StayDurationError
	if !errors.As(err, &sde) {
		t.Fatalf("expected StayDurationError, got %v", err)
	}
	if sde.MinStay != 2 || sde.MaxStay != 5 || sde.Nights != 1 {
		t.Errorf("error payload = %+v", sde)
	}
	if len(sde.AvailableDates) != 1 {
		t.Errorf("suggestion payload missing, got %v", sde.AvailableDates)
	}
	if err := CheckStayDuration(6, bounds, nil); err == nil {
		t.Error("6 nights above max of 5 should fail")
	}
	if err := CheckStayDuration(30, StayBounds{MinStay: 2}, nil); err != nil {
		t.Errorf("unbounded max must accept long stays, got %v", err)
	}
}

func TestUnavailableDays(t *testing.T) {
	entries := []EffectiveEntry{
		{Day: day(t, "2026-06-10"), IsAvailable: true},
		{Day: day(t, "2026-06-11"), IsAvailable: false},
		{Day: day(t, "2026-06-12"), IsAvailable: false},
	}
	blocked := UnavailableDays(entries)
	if len(blocked) != 2 {
		t.Fatalf("UnavailableDays returned %d days, want 2", len(blocked))
	}
	if blocked[0].Format(DateFormat) != "2026-06-11" {
		t.Errorf("first blocked day = %s", blocked[0].Format(DateFormat))
	}
}

func TestCheckStayRules(t *testing.T) {
	open := func(d string) EffectiveEntry {
		return EffectiveEntry{Day: day(t, d), CheckInAllowed: true, CheckOutAllowed: true}
	}
	nights := []EffectiveEntry{open("2026-06-10"), open("2026-06-11")}
	departure := open("2026-06-12")

	if err := CheckStayRules(nights, departure); err != nil {
		t.Errorf("fully open range must pass, got %v", err)
	}

	noArrival := []EffectiveEntry{
		{Day: day(t, "2026-06-10"), CheckInAllowed: false, CheckOutAllowed: true},
		open("2026-06-11"),
	}
	err := CheckStayRules(noArrival, departure)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "check_in" {
		t.Errorf("blocked arrival day must fail on check_in, got %v", err)
	}

	noDeparture := EffectiveEntry{Day: day(t, "2026-06-12"), CheckInAllowed: true, CheckOutAllowed: false}
	err = CheckStayRules(nights, noDeparture)
	if !errors.As(err, &ve) || ve.Field != "check_out" {
		t.Errorf("blocked departure day must fail on check_out, got %v", err)
	}

	// Interior nights never constrain arrival or departure.
	interior := []EffectiveEntry{
		open("2026-06-10"),
		{Day: day(t, "2026-06-11"), CheckInAllowed: false, CheckOutAllowed: false},
	}
	if err := CheckStayRules(interior, departure); err != nil {
		t.Errorf("interior night flags must not apply, got %v", err)
	}
}

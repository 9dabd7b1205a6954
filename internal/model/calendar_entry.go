package model

import "time"

// CalendarEntry is the authoritative per-day override for a listing.
// Absence of a row for a date means "listing defaults, assume available".
// Rows are created lazily when a host customizes a date or in bulk when a
// booking blocks or releases a range.  Removal tombstones the row rather
// than deleting it.
type CalendarEntry struct {
	ID              uint64     // calendar_entries.id
	ListingID       uint64     // calendar_entries.listing_id
	Day             time.Time  // calendar_entries.day (UTC midnight)
	IsAvailable     bool       // calendar_entries.is_available
	BasePriceCents  *int64     // calendar_entries.base_price_cents (nullable)
	MinStay         *int       // calendar_entries.min_stay (nullable)
	MaxStay         *int       // calendar_entries.max_stay (nullable)
	CheckInAllowed  bool       // calendar_entries.check_in_allowed
	CheckOutAllowed bool       // calendar_entries.check_out_allowed
	DeletedAt       *time.Time // calendar_entries.deleted_at (nullable)
	CreatedAt       time.Time  // calendar_entries.created_at
	UpdatedAt       time.Time  // calendar_entries.updated_at
}

// EffectiveEntry is one synthesized night of a listing's calendar: stored
// override values merged with listing defaults.  Inferred is true when no
// stored row covered the night, which callers treat as a soft condition
// (the booking still proceeds on defaults).
type EffectiveEntry struct {
	Day             time.Time
	IsAvailable     bool
	BasePriceCents  int64
	MinStay         int
	MaxStay         int // 0 means unbounded
	CheckInAllowed  bool
	CheckOutAllowed bool
	Inferred        bool
}

// SynthesizeRange produces one EffectiveEntry per night of r, merging the
// stored entries with the listing defaults for missing days.  The stored
// slice may cover any subset of the range in any order; tombstoned rows
// must be filtered out by the caller before synthesis.
func SynthesizeRange(listing *Listing, stored []CalendarEntry, r StayRange) []EffectiveEntry {
	byDay := make(map[time.Time]*CalendarEntry, len(stored))
	for i := range stored {
		e := &stored[i]
		byDay[Midnight(e.Day)] = e
	}
	defaultMax := 0
	if listing.MaxStay != nil {
		defaultMax = *listing.MaxStay
	}
	out := make([]EffectiveEntry, 0, r.Nights())
	for _, day := range r.Days() {
		eff := EffectiveEntry{
			Day:             day,
			IsAvailable:     true,
			BasePriceCents:  listing.NightlyPriceCents,
			MinStay:         listing.MinStay,
			MaxStay:         defaultMax,
			CheckInAllowed:  true,
			CheckOutAllowed: true,
			Inferred:        true,
		}
		if e, ok := byDay[day]; ok {
			eff.Inferred = false
			eff.IsAvailable = e.IsAvailable
			eff.CheckInAllowed = e.CheckInAllowed
			eff.CheckOutAllowed = e.CheckOutAllowed
			if e.BasePriceCents != nil {
				eff.BasePriceCents = *e.BasePriceCents
			}
			if e.MinStay != nil {
				eff.MinStay = *e.MinStay
			}
			if e.MaxStay != nil {
				eff.MaxStay = *e.MaxStay
			}
		}
		out = append(out, eff)
	}
	return out
}

// StayBounds is the effective min/max stay resolved over a date range.
type StayBounds struct {
	MinStay int
	MaxStay int // 0 means unbounded
}

// ResolveStayBounds reduces per-night constraints over the covered nights:
// the strictest minimum wins and the strictest bounded maximum wins.
func ResolveStayBounds(entries []EffectiveEntry) StayBounds {
	b := StayBounds{}
	for _, e := range entries {
		if e.MinStay > b.MinStay {
			b.MinStay = e.MinStay
		}
		if e.MaxStay > 0 && (b.MaxStay == 0 || e.MaxStay < b.MaxStay) {
			b.MaxStay = e.MaxStay
		}
	}
	return b
}

// CheckStayDuration validates the requested night count against the
// resolved bounds.  The availableDates suggestion payload is supplied by
// the caller, which computes it from the booking ledger and calendar.
func CheckStayDuration(nights int, bounds StayBounds, availableDates []time.Time) error {
	if nights < bounds.MinStay || (bounds.MaxStay > 0 && nights > bounds.MaxStay) {
		return &StayDurationError{
			Nights:         nights,
			MinStay:        bounds.MinStay,
			MaxStay:        bounds.MaxStay,
			AvailableDates: availableDates,
		}
	}
	return nil
}

// CheckStayRules enforces the per-day arrival and departure flags: the
// stay may only begin on a night whose entry allows check-in and may only
// end on a day whose entry allows check-out.  The departure entry is the
// day after the last night, synthesized separately by the caller.
func CheckStayRules(nights []EffectiveEntry, departure EffectiveEntry) error {
	if len(nights) == 0 {
		return nil
	}
	if !nights[0].CheckInAllowed {
		return &ValidationError{
			Field:  "check_in",
			Reason: "check-in is not allowed on " + nights[0].Day.Format(DateFormat),
		}
	}
	if !departure.CheckOutAllowed {
		return &ValidationError{
			Field:  "check_out",
			Reason: "check-out is not allowed on " + departure.Day.Format(DateFormat),
		}
	}
	return nil
}

// UnavailableDays returns the nights of the synthesized range a host has
// blacked out directly.  Booking conflicts are detected separately against
// the ledger.
func UnavailableDays(entries []EffectiveEntry) []time.Time {
	var days []time.Time
	for _, e := range entries {
		if !e.IsAvailable {
			days = append(days, e.Day)
		}
	}
	return days
}

package model

import "time"

// Listing is the minimal view of a rental listing consumed by the
// reservation engine.  Listing management happens elsewhere; this
// subsystem only reads defaults and locks the row while writing to the
// booking ledger.
//
// Fields:
//  ID                    – primary key identifier.
//  HostID                – owning host.
//  NightlyPriceCents     – default price per night.
//  CleaningFeeCents      – fee added once per booking.
//  SecurityDepositCents  – deposit added once per booking.
//  MinStay               – default minimum nights.
//  MaxStay               – default maximum nights (nil = unbounded).
//  MaxGuests             – occupancy cap.
//  IsActive              – soft-delete flag maintained by the listing service.
type Listing struct {
	ID                   uint64    // listings.id
	HostID               uint64    // listings.host_id
	NightlyPriceCents    int64     // listings.nightly_price_cents
	CleaningFeeCents     int64     // listings.cleaning_fee_cents
	SecurityDepositCents int64     // listings.security_deposit_cents
	MinStay              int       // listings.min_stay
	MaxStay              *int      // listings.max_stay (nullable)
	MaxGuests            int       // listings.max_guests
	IsActive             bool      // listings.is_active
	CreatedAt            time.Time // listings.created_at
	UpdatedAt            time.Time // listings.updated_at
}

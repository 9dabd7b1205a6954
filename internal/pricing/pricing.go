// Package pricing computes the total price attached to a reservation.
// Seasonal or rule-based price adjustment is an external concern; this
// calculator only resolves the per-night base price from the calendar
// (falling back to listing defaults) and adds the one-off fees.
package pricing

import (
	"github.com/iliyamo/stay-reservation/internal/model"
)

// NightPrice is one night of the quote breakdown.
type NightPrice struct {
	Day        string `json:"day"`
	PriceCents int64  `json:"price_cents"`
}

// Quote is the computed price for a stay. All amounts are integer cents;
// cleaning fee and security deposit are added once per booking, not per
// night.
type Quote struct {
	Nights               int          `json:"nights"`
	NightlyBreakdown     []NightPrice `json:"nightly_breakdown"`
	PerNightTotalCents   int64        `json:"per_night_total_cents"`
	CleaningFeeCents     int64        `json:"cleaning_fee_cents"`
	SecurityDepositCents int64        `json:"security_deposit_cents"`
	TotalCents           int64        `json:"total_cents"`
}

// Compute prices the stay from the synthesized calendar entries (one per
// night; stored overrides already merged with listing defaults) plus the
// listing's one-off fees. A non-positive total indicates bad calendar or
// listing data and fails with a PricingError rather than producing a free
// reservation.
func Compute(listing *model.Listing, entries []model.EffectiveEntry) (*Quote, error) {
	q := &Quote{
		Nights:               len(entries),
		NightlyBreakdown:     make([]NightPrice, 0, len(entries)),
		CleaningFeeCents:     listing.CleaningFeeCents,
		SecurityDepositCents: listing.SecurityDepositCents,
	}
	for _, e := range entries {
		q.NightlyBreakdown = append(q.NightlyBreakdown, NightPrice{
			Day:        e.Day.Format(model.DateFormat),
			PriceCents: e.BasePriceCents,
		})
		q.PerNightTotalCents += e.BasePriceCents
	}
	q.TotalCents = q.PerNightTotalCents + q.CleaningFeeCents + q.SecurityDepositCents
	if q.TotalCents <= 0 {
		return nil, &model.PricingError{TotalCents: q.TotalCents}
	}
	return q, nil
}

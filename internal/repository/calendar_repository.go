package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// CalendarRepo provides data access to the calendar_entries table, the
// authoritative per-day availability record for each listing. It never
// validates against the booking ledger; conflict detection is the
// BookingRepo's concern. Mutating methods run inside the caller's
// transaction so blocking and releasing dates stays atomic with whatever
// ledger write triggered it. All dates are UTC.
type CalendarRepo struct {
	db *sql.DB
}

// NewCalendarRepo returns a new CalendarRepo bound to the given database.
func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{db: db} }

const calendarColumns = `id, listing_id, day, is_available, base_price_cents, min_stay, max_stay,
       check_in_allowed, check_out_allowed, deleted_at, created_at, updated_at`

func scanEntries(rows *sql.Rows) ([]model.CalendarEntry, error) {
	defer rows.Close()
	var out []model.CalendarEntry
	for rows.Next() {
		var e model.CalendarEntry
		var price, minStay, maxStay sql.NullInt64
		var deletedAt sql.NullTime
		if err := rows.Scan(
			&e.ID, &e.ListingID, &e.Day, &e.IsAvailable, &price, &minStay, &maxStay,
			&e.CheckInAllowed, &e.CheckOutAllowed, &deletedAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if price.Valid {
			p := price.Int64
			e.BasePriceCents = &p
		}
		if minStay.Valid {
			n := int(minStay.Int64)
			e.MinStay = &n
		}
		if maxStay.Valid {
			n := int(maxStay.Int64)
			e.MaxStay = &n
		}
		if deletedAt.Valid {
			t := deletedAt.Time
			e.DeletedAt = &t
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// EntriesInRange returns the stored rows covering the nights of r in day
// order. Missing days are not synthesized here; callers merge with
// listing defaults via model.SynthesizeRange. Tombstoned rows are hidden
// unless includeInactive is set.
func (r *CalendarRepo) EntriesInRange(ctx context.Context, listingID uint64, stay model.StayRange, includeInactive bool) ([]model.CalendarEntry, error) {
	q := `SELECT ` + calendarColumns + ` FROM calendar_entries
          WHERE listing_id = ? AND day >= ? AND day < ?`
	if !includeInactive {
		q += ` AND deleted_at IS NULL`
	}
	q += ` ORDER BY day`
	rows, err := r.db.QueryContext(ctx, q, listingID,
		stay.CheckIn.Format(model.DateFormat), stay.CheckOut.Format(model.DateFormat))
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// EntriesInRangeTx is EntriesInRange inside the caller's transaction.
// Pass forUpdate to lock the covered rows while re-validating a write.
func (r *CalendarRepo) EntriesInRangeTx(ctx context.Context, tx *sql.Tx, listingID uint64, stay model.StayRange, forUpdate bool) ([]model.CalendarEntry, error) {
	q := `SELECT ` + calendarColumns + ` FROM calendar_entries
          WHERE listing_id = ? AND day >= ? AND day < ? AND deleted_at IS NULL
          ORDER BY day`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	rows, err := tx.QueryContext(ctx, q, listingID,
		stay.CheckIn.Format(model.DateFormat), stay.CheckOut.Format(model.DateFormat))
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// SetAvailabilityRangeTx is the idempotent bulk upsert used when a booking
// blocks or releases its nights. One row per night of the range is
// inserted or updated; rows created here carry only the availability flag
// and fall back to listing defaults for everything else. Always runs in
// the caller's transaction; it never opens its own.
func (r *CalendarRepo) SetAvailabilityRangeTx(ctx context.Context, tx *sql.Tx, listingID uint64, stay model.StayRange, available bool) error {
	days := stay.Days()
	if len(days) == 0 {
		return nil
	}
	query := `INSERT INTO calendar_entries (listing_id, day, is_available) VALUES `
	args := make([]interface{}, 0, len(days)*3)
	for i, d := range days {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, listingID, d.Format(model.DateFormat), available)
	}
	// A release also revives tombstoned rows so the day is visibly free again.
	query += ` ON DUPLICATE KEY UPDATE is_available = VALUES(is_available), deleted_at = NULL`
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// UpsertOverridesTx writes host-authored per-day overrides (price, stay
// bounds, check-in/out rules, blackouts). Each entry must carry
// ListingID and Day; nil override fields store NULL and keep falling back
// to listing defaults on read.
func (r *CalendarRepo) UpsertOverridesTx(ctx context.Context, tx *sql.Tx, entries []model.CalendarEntry) error {
	if len(entries) == 0 {
		return nil
	}
	query := `INSERT INTO calendar_entries
              (listing_id, day, is_available, base_price_cents, min_stay, max_stay, check_in_allowed, check_out_allowed)
              VALUES `
	args := make([]interface{}, 0, len(entries)*8)
	for i, e := range entries {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?, ?, ?, ?)"
		var price, minStay, maxStay interface{}
		if e.BasePriceCents != nil {
			price = *e.BasePriceCents
		}
		if e.MinStay != nil {
			minStay = *e.MinStay
		}
		if e.MaxStay != nil {
			maxStay = *e.MaxStay
		}
		args = append(args, e.ListingID, e.Day.Format(model.DateFormat), e.IsAvailable,
			price, minStay, maxStay, e.CheckInAllowed, e.CheckOutAllowed)
	}
	query += ` ON DUPLICATE KEY UPDATE
               is_available = VALUES(is_available),
               base_price_cents = VALUES(base_price_cents),
               min_stay = VALUES(min_stay),
               max_stay = VALUES(max_stay),
               check_in_allowed = VALUES(check_in_allowed),
               check_out_allowed = VALUES(check_out_allowed),
               deleted_at = NULL`
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// SoftDeleteRangeTx tombstones the stored overrides covering the range.
// Reads then fall back to listing defaults for those days. Rows are never
// physically deleted.
func (r *CalendarRepo) SoftDeleteRangeTx(ctx context.Context, tx *sql.Tx, listingID uint64, stay model.StayRange) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE calendar_entries SET deleted_at = UTC_TIMESTAMP()
         WHERE listing_id = ? AND day >= ? AND day < ? AND deleted_at IS NULL`,
		listingID, stay.CheckIn.Format(model.DateFormat), stay.CheckOut.Format(model.DateFormat))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

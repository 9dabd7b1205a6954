package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// BookingRepo provides data access to the bookings table, the ledger the
// no-overlap invariant is enforced against. FindConflictsTx is the
// conflict detector: it must run inside the same transaction as any write
// that depends on its result, with the listing row already locked, so a
// racing approval re-observes the winner's booking instead of committing
// alongside it. All timestamps are UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, booking_ref, listing_id, guest_id, host_id, request_id, check_in, check_out,
       number_of_guests, total_price_cents, status, payment_status, cancellation_reason,
       deleted_at, created_at, updated_at`

func scanBooking(scan func(dest ...interface{}) error) (*model.Booking, error) {
	var b model.Booking
	var checkIn, checkOut time.Time
	var reason sql.NullString
	var deletedAt sql.NullTime
	var requestID sql.NullInt64
	err := scan(
		&b.ID, &b.BookingRef, &b.ListingID, &b.GuestID, &b.HostID, &requestID, &checkIn, &checkOut,
		&b.NumberOfGuests, &b.TotalPriceCents, &b.Status, &b.PaymentStatus, &reason,
		&deletedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Stay = model.StayRange{CheckIn: model.Midnight(checkIn), CheckOut: model.Midnight(checkOut)}
	if requestID.Valid {
		b.RequestID = uint64(requestID.Int64)
	}
	if reason.Valid {
		s := reason.String
		b.CancellationReason = &s
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		b.DeletedAt = &t
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]model.Booking, error) {
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTx inserts a new booking within the caller's transaction and
// populates the generated ID, reference and timestamps on the passed
// record. Status should already be a valid enumeration value.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if b.BookingRef == "" {
		b.BookingRef = uuid.NewString()
	}
	if b.PaymentStatus == "" {
		b.PaymentStatus = "UNPAID"
	}
	var requestID sql.NullInt64
	if b.RequestID != 0 {
		requestID = sql.NullInt64{Int64: int64(b.RequestID), Valid: true}
	}
	const q = `INSERT INTO bookings
               (booking_ref, listing_id, guest_id, host_id, request_id, check_in, check_out,
                number_of_guests, total_price_cents, status, payment_status)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.BookingRef, b.ListingID, b.GuestID, b.HostID, requestID,
		b.Stay.CheckIn.Format(model.DateFormat), b.Stay.CheckOut.Format(model.DateFormat),
		b.NumberOfGuests, b.TotalPriceCents, b.Status, b.PaymentStatus)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back the row to populate DB-side defaults.
	row := tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, b.ID)
	got, err := scanBooking(row.Scan)
	if err != nil {
		return err
	}
	*b = *got
	return nil
}

// FindConflictsTx returns every non-cancelled booking on the listing whose
// half-open interval intersects stay: [a,b) and [c,d) intersect iff
// a < d AND c < b. excludeID (when non-zero) skips a booking being
// re-validated against itself during an edit. The matching rows are
// locked FOR UPDATE so a concurrent writer observes them after blocking
// on the listing lock.
func (r *BookingRepo) FindConflictsTx(ctx context.Context, tx *sql.Tx, listingID uint64, stay model.StayRange, excludeID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
          WHERE listing_id = ? AND status <> 'CANCELLED' AND deleted_at IS NULL
            AND check_in < ? AND ? < check_out`
	args := []interface{}{listingID,
		stay.CheckOut.Format(model.DateFormat), stay.CheckIn.Format(model.DateFormat)}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	q += ` ORDER BY check_in FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// FindConflicts is the read-only variant used for display and request
// creation. It runs at the default isolation level; authoritative
// re-validation always goes through FindConflictsTx.
func (r *BookingRepo) FindConflicts(ctx context.Context, listingID uint64, stay model.StayRange, excludeID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
          WHERE listing_id = ? AND status <> 'CANCELLED' AND deleted_at IS NULL
            AND check_in < ? AND ? < check_out`
	args := []interface{}{listingID,
		stay.CheckOut.Format(model.DateFormat), stay.CheckIn.Format(model.DateFormat)}
	if excludeID != 0 {
		q += ` AND id <> ?`
		args = append(args, excludeID)
	}
	q += ` ORDER BY check_in`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// GetByID returns a booking by primary key. Soft-deleted rows are hidden
// unless includeInactive is set.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64, includeInactive bool) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	if !includeInactive {
		q += ` AND deleted_at IS NULL`
	}
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// GetByIDTx loads a booking FOR UPDATE inside the caller's transaction.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? AND deleted_at IS NULL FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// UpdateStatusTx advances the booking status within the caller's
// transaction, recording the cancellation reason when one is supplied.
// Transition legality is validated by the caller beforehand.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.BookingStatus, reason *string) error {
	if reason != nil {
		_, err := tx.ExecContext(ctx,
			`UPDATE bookings SET status = ?, cancellation_reason = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
			status, *reason, id)
		return err
	}
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		status, id)
	return err
}

// UpdatePaymentStatusTx mirrors the payment collaborator's state onto the
// booking row.
func (r *BookingRepo) UpdatePaymentStatusTx(ctx context.Context, tx *sql.Tx, id uint64, paymentStatus string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		paymentStatus, id)
	return err
}

// UpdateStayTx persists an edited booking: new dates, party size and
// total. Callers re-validate conflicts and constraints inside the same
// transaction before calling this.
func (r *BookingRepo) UpdateStayTx(ctx context.Context, tx *sql.Tx, id uint64, stay model.StayRange, guests int, totalCents int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE bookings SET check_in = ?, check_out = ?, number_of_guests = ?,
                total_price_cents = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
		stay.CheckIn.Format(model.DateFormat), stay.CheckOut.Format(model.DateFormat),
		guests, totalCents, id)
	return err
}

// ListByGuest returns the guest's bookings, newest first.
func (r *BookingRepo) ListByGuest(ctx context.Context, guestID uint64) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
          WHERE guest_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, guestID)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ListByHost returns the host's bookings, newest first, optionally
// filtered by status.
func (r *BookingRepo) ListByHost(ctx context.Context, hostID uint64, status model.BookingStatus) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE host_id = ? AND deleted_at IS NULL`
	args := []interface{}{hostID}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectBookings(rows)
}

// ActiveStaysInWindow returns the stay ranges of every active booking on
// the listing intersecting the window. Used to compute genuinely free
// dates for suggestion payloads.
func (r *BookingRepo) ActiveStaysInWindow(ctx context.Context, listingID uint64, window model.StayRange) ([]model.StayRange, error) {
	bookings, err := r.FindConflicts(ctx, listingID, window, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.StayRange, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Stay)
	}
	return out, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// RequestRepo provides data access to the booking_requests table. A
// pending request is a time-boxed soft hold: it never blocks calendar
// dates, so expiry is a pure status transition with no compensating
// action, performed in one bulk statement. Requests are soft-deleted,
// never physically removed. All timestamps are UTC.
type RequestRepo struct {
	db *sql.DB
}

// NewRequestRepo returns a new RequestRepo bound to the given database.
func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{db: db} }

const requestColumns = `id, request_ref, listing_id, guest_id, host_id, check_in, check_out,
       number_of_guests, total_price_cents, message, status, expires_at,
       response_message, response_date, deleted_at, created_at, updated_at`

func scanRequest(scan func(dest ...interface{}) error) (*model.BookingRequest, error) {
	var r model.BookingRequest
	var checkIn, checkOut time.Time
	var respMsg sql.NullString
	var respDate, deletedAt sql.NullTime
	err := scan(
		&r.ID, &r.RequestRef, &r.ListingID, &r.GuestID, &r.HostID, &checkIn, &checkOut,
		&r.NumberOfGuests, &r.TotalPriceCents, &r.Message, &r.Status, &r.ExpiresAt,
		&respMsg, &respDate, &deletedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Stay = model.StayRange{CheckIn: model.Midnight(checkIn), CheckOut: model.Midnight(checkOut)}
	if respMsg.Valid {
		s := respMsg.String
		r.ResponseMessage = &s
	}
	if respDate.Valid {
		t := respDate.Time
		r.ResponseDate = &t
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		r.DeletedAt = &t
	}
	return &r, nil
}

func collectRequests(rows *sql.Rows) ([]model.BookingRequest, error) {
	defer rows.Close()
	out := make([]model.BookingRequest, 0)
	for rows.Next() {
		r, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create persists a new pending request and populates the generated ID,
// reference and timestamps on the passed record. ExpiresAt must already
// be set by the caller (creation time + TTL).
func (r *RequestRepo) Create(ctx context.Context, req *model.BookingRequest) error {
	if req.RequestRef == "" {
		req.RequestRef = uuid.NewString()
	}
	const q = `INSERT INTO booking_requests
               (request_ref, listing_id, guest_id, host_id, check_in, check_out,
                number_of_guests, total_price_cents, message, status, expires_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		req.RequestRef, req.ListingID, req.GuestID, req.HostID,
		req.Stay.CheckIn.Format(model.DateFormat), req.Stay.CheckOut.Format(model.DateFormat),
		req.NumberOfGuests, req.TotalPriceCents, req.Message, req.Status,
		req.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	row := r.db.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM booking_requests WHERE id = ?`, req.ID)
	got, err := scanRequest(row.Scan)
	if err != nil {
		return err
	}
	*req = *got
	return nil
}

// GetByID returns a request by primary key. Soft-deleted rows are hidden
// unless includeInactive is set.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64, includeInactive bool) (*model.BookingRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM booking_requests WHERE id = ?`
	if !includeInactive {
		q += ` AND deleted_at IS NULL`
	}
	req, err := scanRequest(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

// GetByIDTx loads a request FOR UPDATE inside the caller's transaction so
// a response decision holds the row until commit.
func (r *RequestRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.BookingRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM booking_requests
          WHERE id = ? AND deleted_at IS NULL FOR UPDATE`
	req, err := scanRequest(tx.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRequestNotFound
	}
	return req, err
}

// MarkRespondedTx stamps the host's decision onto the request within the
// caller's transaction: target status, mandatory response message and the
// response date.
func (r *RequestRepo) MarkRespondedTx(ctx context.Context, tx *sql.Tx, id uint64, status model.RequestStatus, responseMessage string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE booking_requests
         SET status = ?, response_message = ?, response_date = UTC_TIMESTAMP(), updated_at = UTC_TIMESTAMP()
         WHERE id = ?`,
		status, responseMessage, id)
	return err
}

// MarkExpiredTx transitions a single request to EXPIRED. Used when a host
// responds to a request that lapsed before the sweeper reached it.
func (r *RequestRepo) MarkExpiredTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE booking_requests SET status = 'EXPIRED', updated_at = UTC_TIMESTAMP()
         WHERE id = ? AND status = 'PENDING'`,
		id)
	return err
}

// ExpireStale transitions every pending request whose TTL has lapsed to
// EXPIRED in a single bulk statement and returns the count. Running it
// twice in a row is a no-op the second time.
func (r *RequestRepo) ExpireStale(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE booking_requests SET status = 'EXPIRED', updated_at = UTC_TIMESTAMP()
         WHERE status = 'PENDING' AND expires_at <= UTC_TIMESTAMP()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpireStaleForListingTx is the per-listing variant used at the top of
// mutating transactions, mirroring the sweep so an approval never races a
// stale competitor.
func (r *RequestRepo) ExpireStaleForListingTx(ctx context.Context, tx *sql.Tx, listingID uint64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE booking_requests SET status = 'EXPIRED', updated_at = UTC_TIMESTAMP()
         WHERE listing_id = ? AND status = 'PENDING' AND expires_at <= UTC_TIMESTAMP()`,
		listingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByGuest returns the guest's requests, newest first.
func (r *RequestRepo) ListByGuest(ctx context.Context, guestID uint64) ([]model.BookingRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM booking_requests
          WHERE guest_id = ? AND deleted_at IS NULL ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, guestID)
	if err != nil {
		return nil, err
	}
	return collectRequests(rows)
}

// ListByHost returns the host's requests, newest first, optionally
// filtered by status. Callers listing pending requests should sweep
// first so stale holds are never shown as actionable.
func (r *RequestRepo) ListByHost(ctx context.Context, hostID uint64, status model.RequestStatus) ([]model.BookingRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM booking_requests WHERE host_id = ? AND deleted_at IS NULL`
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
	return collectRequests(rows)
}

// SoftDelete tombstones a request, preserving it as an audit record.
func (r *RequestRepo) SoftDelete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE booking_requests SET deleted_at = UTC_TIMESTAMP() WHERE id = ? AND deleted_at IS NULL`,
		id)
	return err
}

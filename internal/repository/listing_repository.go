package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stay-reservation/internal/model"
)

// ListingRepo reads the minimal listing view the reservation engine
// depends on. Listings are managed by an external collaborator; this
// repository only provides the defaults lookup and the per-listing row
// lock that serializes ledger writes.
type ListingRepo struct {
	db *sql.DB
}

// NewListingRepo returns a new ListingRepo bound to the given database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

// DB exposes the underlying handle so handlers can begin transactions.
func (r *ListingRepo) DB() *sql.DB { return r.db }

const listingColumns = `id, host_id, nightly_price_cents, cleaning_fee_cents, security_deposit_cents,
       min_stay, max_stay, max_guests, is_active, created_at, updated_at`

func scanListing(row *sql.Row) (*model.Listing, error) {
	var l model.Listing
	var maxStay sql.NullInt64
	err := row.Scan(
		&l.ID, &l.HostID, &l.NightlyPriceCents, &l.CleaningFeeCents, &l.SecurityDepositCents,
		&l.MinStay, &maxStay, &l.MaxGuests, &l.IsActive, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	if maxStay.Valid {
		n := int(maxStay.Int64)
		l.MaxStay = &n
	}
	return &l, nil
}

// GetByID returns the listing defaults. Inactive listings are hidden
// unless includeInactive is set.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64, includeInactive bool) (*model.Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	if !includeInactive {
		q += ` AND is_active = 1`
	}
	return scanListing(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *ListingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64, includeInactive bool) (*model.Listing, error) {
	q := `SELECT ` + listingColumns + ` FROM listings WHERE id = ?`
	if !includeInactive {
		q += ` AND is_active = 1`
	}
	return scanListing(tx.QueryRowContext(ctx, q, id))
}

// LockTx takes a row lock on the listing, serializing every transaction
// that mutates the listing's booking ledger or calendar. A second
// transaction targeting the same listing blocks here until the first
// commits or aborts, then re-observes the ledger it left behind.
func (r *ListingRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	var got uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM listings WHERE id = ? FOR UPDATE`, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrListingNotFound
	}
	return err
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/repository"
)

var bookingTestColumns = []string{
	"id", "booking_ref", "listing_id", "guest_id", "host_id", "request_id", "check_in", "check_out",
	"number_of_guests", "total_price_cents", "status", "payment_status", "cancellation_reason",
	"deleted_at", "created_at", "updated_at",
}

const (
	testRequestID = 1
	testListingID = 5
	testGuestID   = 2
	testHostID    = 9
)

func newMockHandlers(t *testing.T) (*RequestHandler, *BookingHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	listings := repository.NewListingRepo(db)
	calendars := repository.NewCalendarRepo(db)
	bookings := repository.NewBookingRepo(db)
	requests := repository.NewRequestRepo(db)
	rh := NewRequestHandler(listings, calendars, bookings, requests, nil, nil, time.Hour, 2*time.Second)
	bh := NewBookingHandler(listings, calendars, bookings, nil, 2*time.Second)
	return rh, bh, mock, func() { _ = db.Close() }
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func requestRow(t *testing.T, status string, expiresAt time.Time) *sqlmock.Rows {
	t.Helper()
	now := time.Now().UTC()
	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "request_ref", "listing_id", "guest_id", "host_id", "check_in", "check_out",
		"number_of_guests", "total_price_cents", "message", "status", "expires_at",
		"response_message", "response_date", "deleted_at", "created_at", "updated_at",
	}).AddRow(
		testRequestID, "req-ref", testListingID, testGuestID, testHostID, checkIn, checkOut,
		2, 40000, "hi", status, expiresAt,
		nil, nil, nil, now, now,
	)
}

func bookingRow(t *testing.T, id int64, status string) *sqlmock.Rows {
	t.Helper()
	now := time.Now().UTC()
	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(bookingTestColumns).AddRow(
		id, "bk-ref", testListingID, testGuestID, testHostID, testRequestID, checkIn, checkOut,
		2, 40000, status, "UNPAID", nil,
		nil, now, now,
	)
}

func respondContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := newJSONContext(t, http.MethodPost, "/v1/requests/1/respond",
		`{"status":"approved","response_message":"Welcome!"}`)
	c.Set("user_id", uint64(testHostID))
	c.SetParamNames("id")
	c.SetParamValues("1")
	return c, rec
}

// A conflicting booking surfacing during the in-transaction re-check must
// abort the whole approval: the request stays PENDING and neither a
// booking row nor a calendar write reaches the database.
func TestRespondToRequestConflictAborts(t *testing.T) {
	rh, _, mock, done := newMockHandlers(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM booking_requests WHERE id = \? AND deleted_at IS NULL FOR UPDATE`).
		WithArgs(testRequestID).
		WillReturnRows(requestRow(t, "PENDING", time.Now().UTC().Add(time.Hour)))
	mock.ExpectQuery(`SELECT id FROM listings WHERE id = \? FOR UPDATE`).
		WithArgs(testListingID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testListingID))
	mock.ExpectExec(`UPDATE booking_requests SET status = 'EXPIRED', updated_at = UTC_TIMESTAMP\(\) WHERE listing_id = \? AND status = 'PENDING'`).
		WithArgs(testListingID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM bookings WHERE listing_id = \? AND status <> 'CANCELLED' AND deleted_at IS NULL AND check_in < \? AND \? < check_out ORDER BY check_in FOR UPDATE`).
		WithArgs(testListingID, "2026-07-04", "2026-07-01").
		WillReturnRows(bookingRow(t, 42, "CONFIRMED"))
	mock.ExpectRollback()

	c, rec := respondContext(t)
	if err := rh.RespondToRequest(c); err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	// No UPDATE on the request, no booking INSERT, no calendar write:
	// anything beyond the expected statements fails the mock.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database activity: %v", err)
	}
}

// The approval happy path flips the request, creates the booking and
// blocks the nights in one transaction, in that order, and commits once.
func TestRespondToRequestApproves(t *testing.T) {
	rh, _, mock, done := newMockHandlers(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM booking_requests WHERE id = \? AND deleted_at IS NULL FOR UPDATE`).
		WithArgs(testRequestID).
		WillReturnRows(requestRow(t, "PENDING", time.Now().UTC().Add(time.Hour)))
	mock.ExpectQuery(`SELECT id FROM listings WHERE id = \? FOR UPDATE`).
		WithArgs(testListingID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testListingID))
	mock.ExpectExec(`UPDATE booking_requests SET status = 'EXPIRED', updated_at = UTC_TIMESTAMP\(\) WHERE listing_id = \? AND status = 'PENDING'`).
		WithArgs(testListingID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM bookings WHERE listing_id = \? AND status <> 'CANCELLED' AND deleted_at IS NULL AND check_in < \? AND \? < check_out ORDER BY check_in FOR UPDATE`).
		WithArgs(testListingID, "2026-07-04", "2026-07-01").
		WillReturnRows(sqlmock.NewRows(bookingTestColumns))
	mock.ExpectExec(`UPDATE booking_requests SET status = \?, response_message = \?, response_date = UTC_TIMESTAMP\(\)`).
		WithArgs("APPROVED", "Welcome!", testRequestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(sqlmock.AnyArg(), testListingID, testGuestID, testHostID, testRequestID,
			"2026-07-01", "2026-07-04", 2, 40000, "PENDING", "UNPAID").
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(`SELECT .+ FROM bookings WHERE id = \?`).
		WithArgs(11).
		WillReturnRows(bookingRow(t, 11, "PENDING"))
	mock.ExpectExec(`INSERT INTO calendar_entries \(listing_id, day, is_available\) VALUES`).
		WithArgs(testListingID, "2026-07-01", false,
			testListingID, "2026-07-02", false,
			testListingID, "2026-07-03", false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT .+ FROM booking_requests WHERE id = \? AND deleted_at IS NULL`).
		WithArgs(testRequestID).
		WillReturnRows(requestRow(t, "APPROVED", time.Now().UTC().Add(time.Hour)))

	c, rec := respondContext(t)
	if err := rh.RespondToRequest(c); err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusCreated)
	}
	if !strings.Contains(rec.Body.String(), `"booking"`) {
		t.Errorf("response lacks the created booking: %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("approval statements out of order or missing: %v", err)
	}
}

// A request whose TTL lapsed before the sweeper reached it is marked
// EXPIRED on the spot and the host gets a 400, with no approval writes.
func TestRespondToRequestLapsedBeforeSweep(t *testing.T) {
	rh, _, mock, done := newMockHandlers(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM booking_requests WHERE id = \? AND deleted_at IS NULL FOR UPDATE`).
		WithArgs(testRequestID).
		WillReturnRows(requestRow(t, "PENDING", time.Now().UTC().Add(-time.Minute)))
	mock.ExpectExec(`UPDATE booking_requests SET status = 'EXPIRED', updated_at = UTC_TIMESTAMP\(\) WHERE id = \? AND status = 'PENDING'`).
		WithArgs(testRequestID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := respondContext(t)
	if err := rh.RespondToRequest(c); err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database activity: %v", err)
	}
}

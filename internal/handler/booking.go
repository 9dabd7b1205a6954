package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/notifier"
	"github.com/iliyamo/stay-reservation/internal/pricing"
	"github.com/iliyamo/stay-reservation/internal/repository"
)

// BookingHandler serves booking reads and the host-side mutations:
// status transitions and in-place edits. Mutations run inside a single
// transaction so the calendar ledger and the booking row never disagree.
// Every writer acquires the listing row lock before touching any booking
// row; the approval path locks in the same order.
type BookingHandler struct {
	ListingRepo  *repository.ListingRepo
	CalendarRepo *repository.CalendarRepo
	BookingRepo  *repository.BookingRepo
	Notifier     *notifier.Notifier
	TxTimeout    time.Duration
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(listingRepo *repository.ListingRepo, calendarRepo *repository.CalendarRepo, bookingRepo *repository.BookingRepo, n *notifier.Notifier, txTimeout time.Duration) *BookingHandler {
	if listingRepo == nil || calendarRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{
		ListingRepo:  listingRepo,
		CalendarRepo: calendarRepo,
		BookingRepo:  bookingRepo,
		Notifier:     n,
		TxTimeout:    txTimeout,
	}
}

// ChangeStatus handles POST /v1/bookings/:id/status. Transitions follow
// the booking state machine; cancelling releases the blocked nights in
// the same transaction and records a mandatory reason. The body may also
// carry a payment_status mirror update. Both parties are notified after
// commit.
func (h *BookingHandler) ChangeStatus(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Status        string `json:"status"`
		Reason        string `json:"reason"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	next, err := model.ParseBookingStatus(strings.ToUpper(strings.TrimSpace(body.Status)))
	if err != nil {
		return respondDomainError(c, err)
	}
	if next == model.BookingCancelled && strings.TrimSpace(body.Reason) == "" {
		return respondDomainError(c, &model.ValidationError{Field: "reason", Reason: "is required when cancelling"})
	}

	// Unlocked pre-read to learn the listing; listing_id and host_id
	// never change after creation.
	peek, err := h.BookingRepo.GetByID(c.Request().Context(), bookingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if peek.HostID != hostID {
		return respondDomainError(c, repository.ErrForbidden)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.TxTimeout)
	defer cancel()

	tx, err := h.ListingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock order is the listing row first, then booking rows.
	if err := h.ListingRepo.LockTx(ctx, tx, peek.ListingID); err != nil {
		return respondTxFailure(c, "status change", err)
	}
	booking, err := h.BookingRepo.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return respondDomainError(c, err)
	}
	if err := model.ValidateTransition(booking.Status, next); err != nil {
		return respondDomainError(c, err)
	}

	oldStatus := booking.Status
	var reason *string
	if next == model.BookingCancelled {
		r := body.Reason
		reason = &r
		if err := h.CalendarRepo.SetAvailabilityRangeTx(ctx, tx, booking.ListingID, booking.Stay, true); err != nil {
			return respondTxFailure(c, "status change", err)
		}
	}
	if err := h.BookingRepo.UpdateStatusTx(ctx, tx, booking.ID, next, reason); err != nil {
		return respondTxFailure(c, "status change", err)
	}
	if ps := strings.ToUpper(strings.TrimSpace(body.PaymentStatus)); ps != "" {
		if err := h.BookingRepo.UpdatePaymentStatusTx(ctx, tx, booking.ID, ps); err != nil {
			return respondTxFailure(c, "status change", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return respondTxFailure(c, "status change", err)
	}
	committed = true

	updated, err := h.BookingRepo.GetByID(c.Request().Context(), booking.ID, false)
	if err != nil {
		updated = booking
		updated.Status = next
	}
	h.Notifier.BookingStatusChanged(c.Request().Context(), updated.GuestID, updated, oldStatus, reason)
	h.Notifier.BookingStatusChanged(c.Request().Context(), updated.HostID, updated, oldStatus, reason)

	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingJSON(updated)})
}

// EditBooking handles PUT /v1/bookings/:id. The host may change dates,
// party size and total price on a live booking. The whole edit is one
// transaction: release the old nights, re-validate the new range against
// the ledger (excluding this booking), re-check stay bounds, arrival and
// departure rules and guest count, then block the new nights.
// force_update skips those checks but never the date-order check. A
// rollback restores the old blocks untouched.
func (h *BookingHandler) EditBooking(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		CheckIn         string `json:"check_in"`
		CheckOut        string `json:"check_out"`
		NumberOfGuests  *int   `json:"number_of_guests"`
		TotalPriceCents *int64 `json:"total_price_cents"`
		ForceUpdate     bool   `json:"force_update"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	// Unlocked pre-read; the immutable listing_id decides which lock to
	// take first.
	peek, err := h.BookingRepo.GetByID(c.Request().Context(), bookingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if peek.HostID != hostID {
		return respondDomainError(c, repository.ErrForbidden)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.TxTimeout)
	defer cancel()

	tx, err := h.ListingRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock order is the listing row first, then booking rows.
	if err := h.ListingRepo.LockTx(ctx, tx, peek.ListingID); err != nil {
		return respondTxFailure(c, "booking edit", err)
	}
	booking, err := h.BookingRepo.GetByIDTx(ctx, tx, bookingID)
	if err != nil {
		return respondDomainError(c, err)
	}
	if booking.Status == model.BookingCompleted || booking.Status == model.BookingCancelled {
		return respondDomainError(c, &model.ValidationError{
			Field:  "status",
			Reason: "completed and cancelled bookings cannot be edited",
		})
	}

	// Editing uses includeInactive so a deactivated listing's live
	// bookings remain manageable.
	listing, err := h.ListingRepo.GetByIDTx(ctx, tx, booking.ListingID, true)
	if err != nil {
		return respondDomainError(c, err)
	}

	newStay := booking.Stay
	if body.CheckIn != "" || body.CheckOut != "" {
		in := body.CheckIn
		if in == "" {
			in = booking.Stay.CheckIn.Format(model.DateFormat)
		}
		out := body.CheckOut
		if out == "" {
			out = booking.Stay.CheckOut.Format(model.DateFormat)
		}
		newStay, err = model.ParseStayRange(in, out)
		if err != nil {
			return respondDomainError(c, err)
		}
	}
	guests := booking.NumberOfGuests
	if body.NumberOfGuests != nil {
		guests = *body.NumberOfGuests
	}
	if !body.ForceUpdate && (guests < 1 || guests > listing.MaxGuests) {
		return respondDomainError(c, &model.ValidationError{
			Field:  "number_of_guests",
			Reason: "must be between 1 and the listing's maximum occupancy",
		})
	}

	if err := h.CalendarRepo.SetAvailabilityRangeTx(ctx, tx, booking.ListingID, booking.Stay, true); err != nil {
		return respondTxFailure(c, "booking edit", err)
	}

	// Synthesize one extra day past checkout so the departure day's
	// check-out rule is visible.
	extended := model.StayRange{CheckIn: newStay.CheckIn, CheckOut: newStay.CheckOut.AddDate(0, 0, 1)}
	stored, err := h.CalendarRepo.EntriesInRangeTx(ctx, tx, booking.ListingID, extended, true)
	if err != nil {
		return respondTxFailure(c, "booking edit", err)
	}
	all := model.SynthesizeRange(listing, stored, extended)
	entries, departure := all[:len(all)-1], all[len(all)-1]
	if !body.ForceUpdate {
		conflicts, err := h.BookingRepo.FindConflictsTx(ctx, tx, booking.ListingID, newStay, booking.ID)
		if err != nil {
			return respondTxFailure(c, "booking edit", err)
		}
		var ranges []model.StayRange
		for _, b := range conflicts {
			ranges = append(ranges, b.Stay)
		}
		for _, d := range model.UnavailableDays(entries) {
			ranges = append(ranges, model.StayRange{CheckIn: d, CheckOut: d.AddDate(0, 0, 1)})
		}
		if len(ranges) > 0 {
			return respondDomainError(c, &model.ConflictError{Requested: newStay, Conflicts: ranges})
		}
		if err := model.CheckStayRules(entries, departure); err != nil {
			return respondDomainError(c, err)
		}
		bounds := model.ResolveStayBounds(entries)
		if err := model.CheckStayDuration(newStay.Nights(), bounds, nil); err != nil {
			return respondDomainError(c, err)
		}
	}

	totalCents := booking.TotalPriceCents
	switch {
	case body.TotalPriceCents != nil:
		totalCents = *body.TotalPriceCents
	case !newStay.CheckIn.Equal(booking.Stay.CheckIn) || !newStay.CheckOut.Equal(booking.Stay.CheckOut):
		quote, err := pricing.Compute(listing, entries)
		if err != nil {
			return respondDomainError(c, err)
		}
		totalCents = quote.TotalCents
	}

	if err := h.CalendarRepo.SetAvailabilityRangeTx(ctx, tx, booking.ListingID, newStay, false); err != nil {
		return respondTxFailure(c, "booking edit", err)
	}
	if err := h.BookingRepo.UpdateStayTx(ctx, tx, booking.ID, newStay, guests, totalCents); err != nil {
		return respondTxFailure(c, "booking edit", err)
	}
	if err := tx.Commit(); err != nil {
		return respondTxFailure(c, "booking edit", err)
	}
	committed = true

	updated, err := h.BookingRepo.GetByID(c.Request().Context(), booking.ID, false)
	if err != nil {
		updated = booking
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": toBookingJSON(updated)})
}

// GetBooking handles GET /v1/bookings/:id for either party.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, err := h.BookingRepo.GetByID(c.Request().Context(), bookingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if booking.GuestID != userID && booking.HostID != userID {
		return respondDomainError(c, repository.ErrForbidden)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toBookingJSON(booking)})
}

// ListMyBookings handles GET /v1/my-bookings for the guest.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.BookingRepo.ListByGuest(c.Request().Context(), guestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toBookingsJSON(items)})
}

// ListHostBookings handles GET /v1/host/bookings?status= for the host.
func (h *BookingHandler) ListHostBookings(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var status model.BookingStatus
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		status = model.BookingStatus(s)
	}
	items, err := h.BookingRepo.ListByHost(c.Request().Context(), hostID, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toBookingsJSON(items)})
}

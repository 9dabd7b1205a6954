package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/repository"
)

// RespondToRequest handles POST /v1/requests/:id/respond. The host either
// rejects or approves a pending request; both paths require a response
// message. Approval is the critical section of the whole engine and runs
// as one transaction: lock the request row, verify it is still
// actionable, lock the listing, expire stale siblings, re-check the
// ledger for conflicts, then flip the request, create the booking and
// block the dates. Any failure before commit leaves the request PENDING
// so the host can retry.
func (h *RequestHandler) RespondToRequest(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var body struct {
		Status          string `json:"status"`
		ResponseMessage string `json:"response_message"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	decision := strings.ToUpper(strings.TrimSpace(body.Status))
	if decision != "APPROVED" && decision != "REJECTED" {
		return respondDomainError(c, &model.ValidationError{Field: "status", Reason: "must be 'approved' or 'rejected'"})
	}
	if strings.TrimSpace(body.ResponseMessage) == "" {
		return respondDomainError(c, &model.ValidationError{Field: "response_message", Reason: "is required"})
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

	req, err := h.RequestRepo.GetByIDTx(ctx, tx, reqID)
	if err != nil {
		return respondDomainError(c, err)
	}
	if req.HostID != hostID {
		return respondDomainError(c, repository.ErrForbidden)
	}
	if req.Status != model.RequestPending {
		return respondDomainError(c, &model.ValidationError{Field: "status", Reason: "request is no longer pending"})
	}
	now := time.Now().UTC()
	if !req.Actionable(now) {
		// The sweeper has not reached this request yet; mark it on the
		// spot so the stored state matches the answer we give.
		if err := h.RequestRepo.MarkExpiredTx(ctx, tx, req.ID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := tx.Commit(); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		committed = true
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "request has expired"})
	}

	if decision == "REJECTED" {
		if err := h.RequestRepo.MarkRespondedTx(ctx, tx, req.ID, model.RequestRejected, body.ResponseMessage); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		if err := tx.Commit(); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		committed = true

		h.Notifier.RequestDecided(c.Request().Context(), req, nil, body.ResponseMessage)

		updated, err := h.RequestRepo.GetByID(c.Request().Context(), req.ID, false)
		if err != nil {
			updated = req
		}
		return c.JSON(http.StatusOK, echo.Map{"request": toRequestJSON(updated)})
	}

	// Approval path. The listing row lock serializes every writer that
	// touches this listing's ledger, so the conflict re-check below sees
	// a settled picture.
	if err := h.ListingRepo.LockTx(ctx, tx, req.ListingID); err != nil {
		return respondTxFailure(c, "approval", err)
	}
	if _, err := h.RequestRepo.ExpireStaleForListingTx(ctx, tx, req.ListingID); err != nil {
		return respondTxFailure(c, "approval", err)
	}
	conflicts, err := h.BookingRepo.FindConflictsTx(ctx, tx, req.ListingID, req.Stay, 0)
	if err != nil {
		return respondTxFailure(c, "approval", err)
	}
	if len(conflicts) > 0 {
		ranges := make([]model.StayRange, 0, len(conflicts))
		for _, b := range conflicts {
			ranges = append(ranges, b.Stay)
		}
		return respondDomainError(c, &model.ConflictError{Requested: req.Stay, Conflicts: ranges})
	}

	if err := h.RequestRepo.MarkRespondedTx(ctx, tx, req.ID, model.RequestApproved, body.ResponseMessage); err != nil {
		return respondTxFailure(c, "approval", err)
	}
	booking := &model.Booking{
		ListingID:       req.ListingID,
		GuestID:         req.GuestID,
		HostID:          req.HostID,
		RequestID:       req.ID,
		Stay:            req.Stay,
		NumberOfGuests:  req.NumberOfGuests,
		TotalPriceCents: req.TotalPriceCents,
		Status:          model.BookingPending,
	}
	if err := h.BookingRepo.CreateTx(ctx, tx, booking); err != nil {
		return respondTxFailure(c, "approval", err)
	}
	if err := h.CalendarRepo.SetAvailabilityRangeTx(ctx, tx, req.ListingID, req.Stay, false); err != nil {
		return respondTxFailure(c, "approval", err)
	}
	if err := tx.Commit(); err != nil {
		return respondTxFailure(c, "approval", err)
	}
	committed = true

	h.Notifier.RequestDecided(c.Request().Context(), req, booking, body.ResponseMessage)

	updated, err := h.RequestRepo.GetByID(c.Request().Context(), req.ID, false)
	if err != nil {
		updated = req
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"request": toRequestJSON(updated),
		"booking": toBookingJSON(booking),
	})
}

// ListRequestsForHost handles GET /v1/host/requests?status=. Stale
// pending requests are swept first so the host never sees a request that
// is already dead.
func (h *RequestHandler) ListRequestsForHost(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	if h.Sweeper != nil {
		if _, err := h.Sweeper.Sweep(ctx); err != nil {
			log.Printf("pre-list sweep failed: %v", err)
		}
	}
	var status model.RequestStatus
	if s := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); s != "" {
		status = model.RequestStatus(s)
	}
	items, err := h.RequestRepo.ListByHost(ctx, hostID, status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRequestsJSON(items)})
}

// SweepExpired handles POST /v1/host/requests/sweep, an on-demand run of
// the expiry pass the background sweeper performs periodically.
func (h *RequestHandler) SweepExpired(c echo.Context) error {
	if h.Sweeper == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "sweeper not configured"})
	}
	count, err := h.Sweeper.Sweep(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"expired": count})
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/notifier"
	"github.com/iliyamo/stay-reservation/internal/pricing"
	"github.com/iliyamo/stay-reservation/internal/repository"
	"github.com/iliyamo/stay-reservation/internal/sweeper"
)

// availabilityProbeDays bounds the window scanned when building the
// free-date suggestions attached to a StayDurationError.
const availabilityProbeDays = 90

// RequestHandler owns the booking-request lifecycle: guests create
// time-boxed requests, hosts respond to them. All methods assume JWT
// authentication and role validation have already run in middleware.
// The approval path runs its critical section inside a single
// transaction; see RespondToRequest.
type RequestHandler struct {
	ListingRepo  *repository.ListingRepo
	CalendarRepo *repository.CalendarRepo
	BookingRepo  *repository.BookingRepo
	RequestRepo  *repository.RequestRepo
	Notifier     *notifier.Notifier
	Sweeper      *sweeper.Sweeper
	RequestTTL   time.Duration // pending request lifetime
	TxTimeout    time.Duration // deadline for the approval transaction
}

// NewRequestHandler constructs a RequestHandler. Repositories must be
// non-nil; the notifier and sweeper may be nil and degrade gracefully.
func NewRequestHandler(listingRepo *repository.ListingRepo, calendarRepo *repository.CalendarRepo, bookingRepo *repository.BookingRepo, requestRepo *repository.RequestRepo, n *notifier.Notifier, sw *sweeper.Sweeper, requestTTL, txTimeout time.Duration) *RequestHandler {
	if listingRepo == nil || calendarRepo == nil || bookingRepo == nil || requestRepo == nil {
		panic("nil repository passed to NewRequestHandler")
	}
	return &RequestHandler{
		ListingRepo:  listingRepo,
		CalendarRepo: calendarRepo,
		BookingRepo:  bookingRepo,
		RequestRepo:  requestRepo,
		Notifier:     n,
		Sweeper:      sw,
		RequestTTL:   requestTTL,
		TxTimeout:    txTimeout,
	}
}

// CreateRequest handles POST /v1/listings/:id/requests. A guest asks for
// a stay; validation runs in a fixed order and the first failure wins:
// dates, party size, stay-duration bounds, conflicts/blackouts, price.
// On success the request is persisted PENDING with a TTL and the host is
// notified after the write. A pending request blocks nothing: the
// authoritative conflict check happens again at approval time.
func (h *RequestHandler) CreateRequest(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	var body struct {
		CheckIn        string `json:"check_in"`
		CheckOut       string `json:"check_out"`
		NumberOfGuests int    `json:"number_of_guests"`
		Message        string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx := c.Request().Context()

	listing, err := h.ListingRepo.GetByID(ctx, listingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if listing.HostID == guestID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "hosts cannot request a stay on their own listing"})
	}

	stay, err := model.ParseStayRange(body.CheckIn, body.CheckOut)
	if err != nil {
		return respondDomainError(c, err)
	}
	today := model.Midnight(time.Now())
	if !stay.CheckIn.After(today) {
		return respondDomainError(c, &model.ValidationError{Field: "check_in", Reason: "must be in the future"})
	}
	if body.NumberOfGuests < 1 || body.NumberOfGuests > listing.MaxGuests {
		return respondDomainError(c, &model.ValidationError{
			Field:  "number_of_guests",
			Reason: "must be between 1 and the listing's maximum occupancy",
		})
	}

	// Fetch one day past checkout so the departure day's check-out rule
	// can be evaluated alongside the nights.
	extended := model.StayRange{CheckIn: stay.CheckIn, CheckOut: stay.CheckOut.AddDate(0, 0, 1)}
	stored, err := h.CalendarRepo.EntriesInRange(ctx, listingID, extended, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	all := model.SynthesizeRange(listing, stored, extended)
	entries, departure := all[:len(all)-1], all[len(all)-1]
	if err := model.CheckStayRules(entries, departure); err != nil {
		return respondDomainError(c, err)
	}
	bounds := model.ResolveStayBounds(entries)
	if err := model.CheckStayDuration(stay.Nights(), bounds, nil); err != nil {
		var sdErr *model.StayDurationError
		if errors.As(err, &sdErr) {
			// Suggestions are best effort; a probe failure just omits them.
			if free, ferr := h.freeDates(c, listing); ferr == nil {
				sdErr.AvailableDates = free
			}
		}
		return respondDomainError(c, err)
	}

	// Blackouts set directly by the host and existing active bookings both
	// make the range unbookable. This read is advisory; approval re-checks
	// under the listing lock.
	var conflicts []model.StayRange
	for _, d := range model.UnavailableDays(entries) {
		conflicts = append(conflicts, model.StayRange{CheckIn: d, CheckOut: d.AddDate(0, 0, 1)})
	}
	booked, err := h.BookingRepo.FindConflicts(ctx, listingID, stay, 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	for _, b := range booked {
		conflicts = append(conflicts, b.Stay)
	}
	if len(conflicts) > 0 {
		return respondDomainError(c, &model.ConflictError{Requested: stay, Conflicts: conflicts})
	}

	quote, err := pricing.Compute(listing, entries)
	if err != nil {
		return respondDomainError(c, err)
	}

	req := &model.BookingRequest{
		ListingID:       listingID,
		GuestID:         guestID,
		HostID:          listing.HostID,
		Stay:            stay,
		NumberOfGuests:  body.NumberOfGuests,
		TotalPriceCents: quote.TotalCents,
		Message:         body.Message,
		Status:          model.RequestPending,
		ExpiresAt:       time.Now().UTC().Add(h.RequestTTL),
	}
	if err := h.RequestRepo.Create(ctx, req); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create request"})
	}

	// Best effort; a failed notification never rolls back the request.
	h.Notifier.RequestCreated(ctx, req)

	return c.JSON(http.StatusCreated, echo.Map{
		"request": toRequestJSON(req),
		"quote":   quote,
		"stay_requirements": echo.Map{
			"min_stay": bounds.MinStay,
			"max_stay": bounds.MaxStay,
		},
	})
}

// freeDates scans a bounded window ahead and returns days that are
// genuinely bookable: not blacked out by the host and not covered by an
// active booking.
func (h *RequestHandler) freeDates(c echo.Context, listing *model.Listing) ([]time.Time, error) {
	ctx := c.Request().Context()
	start := model.Midnight(time.Now()).AddDate(0, 0, 1)
	window := model.StayRange{CheckIn: start, CheckOut: start.AddDate(0, 0, availabilityProbeDays)}

	stored, err := h.CalendarRepo.EntriesInRange(ctx, listing.ID, window, false)
	if err != nil {
		return nil, err
	}
	entries := model.SynthesizeRange(listing, stored, window)
	stays, err := h.BookingRepo.ActiveStaysInWindow(ctx, listing.ID, window)
	if err != nil {
		return nil, err
	}
	var free []time.Time
	for _, e := range entries {
		if !e.IsAvailable {
			continue
		}
		booked := false
		for _, s := range stays {
			if s.Contains(e.Day) {
				booked = true
				break
			}
		}
		if !booked {
			free = append(free, e.Day)
		}
	}
	return free, nil
}

// ListMyRequests handles GET /v1/my-requests and returns the guest's
// requests, newest first.
func (h *RequestHandler) ListMyRequests(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.RequestRepo.ListByGuest(c.Request().Context(), guestID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load requests"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toRequestsJSON(items)})
}

// GetRequest handles GET /v1/requests/:id. Only the guest who created
// the request or the listing host may view it.
func (h *RequestHandler) GetRequest(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	req, err := h.RequestRepo.GetByID(c.Request().Context(), reqID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if req.GuestID != userID && req.HostID != userID {
		return respondDomainError(c, repository.ErrForbidden)
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRequestJSON(req)})
}

// WithdrawRequest handles DELETE /v1/requests/:id. The guest who created
// a request may withdraw it at any point before the host responds;
// withdrawal soft-deletes the row so it disappears from both parties'
// lists. A pending request blocks no calendar dates, so nothing needs
// compensating.
func (h *RequestHandler) WithdrawRequest(c echo.Context) error {
	guestID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reqID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	req, err := h.RequestRepo.GetByID(c.Request().Context(), reqID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if req.GuestID != guestID {
		return respondDomainError(c, repository.ErrForbidden)
	}
	if req.Status != model.RequestPending {
		return respondDomainError(c, &model.ValidationError{
			Field:  "status",
			Reason: "only pending requests can be withdrawn",
		})
	}
	if err := h.RequestRepo.SoftDelete(c.Request().Context(), reqID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "request withdrawn"})
}

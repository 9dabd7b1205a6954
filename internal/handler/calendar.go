package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/pricing"
	"github.com/iliyamo/stay-reservation/internal/repository"
)

// defaultCalendarDays is the window returned when the caller omits the
// from/to query parameters.
const defaultCalendarDays = 30

// CalendarHandler serves the synthesized availability calendar and the
// host-side override management. The public read merges stored overrides
// with listing defaults and overlays the booking ledger, so a day shows
// unavailable whether the host blocked it or a booking covers it.
type CalendarHandler struct {
	ListingRepo  *repository.ListingRepo
	CalendarRepo *repository.CalendarRepo
	BookingRepo  *repository.BookingRepo
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(listingRepo *repository.ListingRepo, calendarRepo *repository.CalendarRepo, bookingRepo *repository.BookingRepo) *CalendarHandler {
	if listingRepo == nil || calendarRepo == nil || bookingRepo == nil {
		panic("nil repository passed to NewCalendarHandler")
	}
	return &CalendarHandler{ListingRepo: listingRepo, CalendarRepo: calendarRepo, BookingRepo: bookingRepo}
}

type calendarDayJSON struct {
	Day             string `json:"day"`
	IsAvailable     bool   `json:"is_available"`
	PriceCents      int64  `json:"price_cents"`
	MinStay         int    `json:"min_stay"`
	MaxStay         int    `json:"max_stay"`
	CheckInAllowed  bool   `json:"check_in_allowed"`
	CheckOutAllowed bool   `json:"check_out_allowed"`
	Inferred        bool   `json:"inferred"`
}

// windowParams reads the from/to query parameters, defaulting to a
// window starting today.
func windowParams(c echo.Context) (model.StayRange, error) {
	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" && to == "" {
		start := model.Midnight(time.Now())
		return model.StayRange{CheckIn: start, CheckOut: start.AddDate(0, 0, defaultCalendarDays)}, nil
	}
	if from == "" || to == "" {
		return model.StayRange{}, &model.ValidationError{Field: "from", Reason: "from and to must be supplied together"}
	}
	return model.ParseStayRange(from, to)
}

// GetCalendar handles GET /v1/listings/:id/calendar, the public
// availability view. Responses are cacheable; writes that change the
// calendar go through transactions elsewhere and short cache TTLs keep
// the view honest.
func (h *CalendarHandler) GetCalendar(c echo.Context) error {
	listingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	window, err := windowParams(c)
	if err != nil {
		return respondDomainError(c, err)
	}
	ctx := c.Request().Context()

	listing, err := h.ListingRepo.GetByID(ctx, listingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	stored, err := h.CalendarRepo.EntriesInRange(ctx, listingID, window, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	entries := model.SynthesizeRange(listing, stored, window)
	stays, err := h.BookingRepo.ActiveStaysInWindow(ctx, listingID, window)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	days := make([]calendarDayJSON, 0, len(entries))
	for _, e := range entries {
		available := e.IsAvailable
		for _, s := range stays {
			if s.Contains(e.Day) {
				available = false
				break
			}
		}
		days = append(days, calendarDayJSON{
			Day:             e.Day.Format(model.DateFormat),
			IsAvailable:     available,
			PriceCents:      e.BasePriceCents,
			MinStay:         e.MinStay,
			MaxStay:         e.MaxStay,
			CheckInAllowed:  e.CheckInAllowed,
			CheckOutAllowed: e.CheckOutAllowed,
			Inferred:        e.Inferred,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"listing_id": listingID,
		"from":       window.CheckIn.Format(model.DateFormat),
		"to":         window.CheckOut.Format(model.DateFormat),
		"days":       days,
	})
}

// CheckAvailability handles GET /v1/listings/:id/availability, a public
// probe for a concrete stay: is the range free, what would it conflict
// with, and what would it cost. The answer is advisory; the approval
// transaction remains the only authority.
func (h *CalendarHandler) CheckAvailability(c echo.Context) error {
	listingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	stay, err := model.ParseStayRange(c.QueryParam("check_in"), c.QueryParam("check_out"))
	if err != nil {
		return respondDomainError(c, err)
	}
	ctx := c.Request().Context()

	listing, err := h.ListingRepo.GetByID(ctx, listingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	stored, err := h.CalendarRepo.EntriesInRange(ctx, listingID, stay, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	entries := model.SynthesizeRange(listing, stored, stay)

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

	resp := echo.Map{
		"listing_id": listingID,
		"stay":       toRangeJSON(stay),
		"available":  len(conflicts) == 0,
		"conflicts":  toRangesJSON(conflicts),
	}
	if len(conflicts) == 0 {
		if quote, qerr := pricing.Compute(listing, entries); qerr == nil {
			resp["quote"] = quote
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateCalendar handles PUT /v1/listings/:id/calendar. The host applies
// one override shape to every day of a range; omitted fields fall back
// to listing defaults at read time rather than being stored.
func (h *CalendarHandler) UpdateCalendar(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	var body struct {
		From            string `json:"from"`
		To              string `json:"to"`
		IsAvailable     *bool  `json:"is_available"`
		BasePriceCents  *int64 `json:"base_price_cents"`
		MinStay         *int   `json:"min_stay"`
		MaxStay         *int   `json:"max_stay"`
		CheckInAllowed  *bool  `json:"check_in_allowed"`
		CheckOutAllowed *bool  `json:"check_out_allowed"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rng, err := model.ParseStayRange(body.From, body.To)
	if err != nil {
		return respondDomainError(c, err)
	}
	if body.BasePriceCents != nil && *body.BasePriceCents <= 0 {
		return respondDomainError(c, &model.ValidationError{Field: "base_price_cents", Reason: "must be positive"})
	}
	ctx := c.Request().Context()

	listing, err := h.ListingRepo.GetByID(ctx, listingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if listing.HostID != hostID {
		return respondDomainError(c, repository.ErrForbidden)
	}

	available := true
	if body.IsAvailable != nil {
		available = *body.IsAvailable
	}
	checkIn := true
	if body.CheckInAllowed != nil {
		checkIn = *body.CheckInAllowed
	}
	checkOut := true
	if body.CheckOutAllowed != nil {
		checkOut = *body.CheckOutAllowed
	}
	entries := make([]model.CalendarEntry, 0, rng.Nights())
	for _, day := range rng.Days() {
		entries = append(entries, model.CalendarEntry{
			ListingID:       listingID,
			Day:             day,
			IsAvailable:     available,
			BasePriceCents:  body.BasePriceCents,
			MinStay:         body.MinStay,
			MaxStay:         body.MaxStay,
			CheckInAllowed:  checkIn,
			CheckOutAllowed: checkOut,
		})
	}

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
	if err := h.ListingRepo.LockTx(ctx, tx, listingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.CalendarRepo.UpsertOverridesTx(ctx, tx, entries); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"listing_id": listingID,
		"from":       rng.CheckIn.Format(model.DateFormat),
		"to":         rng.CheckOut.Format(model.DateFormat),
		"updated":    len(entries),
	})
}

// DeleteCalendarRange handles DELETE /v1/listings/:id/calendar. Stored
// overrides in the range are tombstoned; the affected days revert to
// listing defaults.
func (h *CalendarHandler) DeleteCalendarRange(c echo.Context) error {
	hostID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	listingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
	}
	rng, err := model.ParseStayRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return respondDomainError(c, err)
	}
	ctx := c.Request().Context()

	listing, err := h.ListingRepo.GetByID(ctx, listingID, false)
	if err != nil {
		return respondDomainError(c, err)
	}
	if listing.HostID != hostID {
		return respondDomainError(c, repository.ErrForbidden)
	}

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
	if err := h.ListingRepo.LockTx(ctx, tx, listingID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	removed, err := h.CalendarRepo.SoftDeleteRangeTx(ctx, tx, listingID, rng)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}

package handler // handler defines http handlers

import (
	"context"
	"errors" // errors provides sentinel and As comparisons
	"log"
	"net/http"
	"strconv" // strconv converts strings to numeric types

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/repository"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// rangeJSON is the wire form of a half-open stay range.
type rangeJSON struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
}

func toRangeJSON(r model.StayRange) rangeJSON {
	return rangeJSON{
		CheckIn:  r.CheckIn.Format(model.DateFormat),
		CheckOut: r.CheckOut.Format(model.DateFormat),
	}
}

func toRangesJSON(rs []model.StayRange) []rangeJSON {
	out := make([]rangeJSON, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRangeJSON(r))
	}
	return out
}

// innodbDeadlock is MySQL error 1213 (ER_LOCK_DEADLOCK): InnoDB chose
// this transaction as the deadlock victim and rolled it back.
const innodbDeadlock = 1213

// lockContention reports whether a reservation transaction failed because
// another writer held the locks: the deadline lapsed waiting on the
// listing lock, or InnoDB aborted the transaction as a deadlock victim.
func lockContention(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == innodbDeadlock
}

// respondTxFailure maps an error from inside a reservation transaction.
// Lock contention is surfaced as a conflict the caller can retry rather
// than a server fault; the losing transaction rolled back cleanly, so
// nothing was written.
func respondTxFailure(c echo.Context, op string, err error) error {
	if lockContention(err) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "listing is busy, please retry"})
	}
	log.Printf("%s failed: %v", op, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

// respondDomainError translates the engine's typed errors into HTTP
// responses with the payloads callers need to recover: stay bounds plus
// free-date suggestions for duration failures, the conflicting ranges for
// 409s, current and requested status for illegal transitions.  Unknown
// errors fall through to a 500.
func respondDomainError(c echo.Context, err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	}
	var sde *model.StayDurationError
	if errors.As(err, &sde) {
		avail := make([]string, 0, len(sde.AvailableDates))
		for _, d := range sde.AvailableDates {
			avail = append(avail, d.Format(model.DateFormat))
		}
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":           sde.Error(),
			"min_stay":        sde.MinStay,
			"max_stay":        sde.MaxStay,
			"available_dates": avail,
		})
	}
	var pe *model.PricingError
	if errors.As(err, &pe) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":       pe.Error(),
			"total_cents": pe.TotalCents,
		})
	}
	var ce *model.ConflictError
	if errors.As(err, &ce) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     ce.Error(),
			"requested": toRangeJSON(ce.Requested),
			"conflicts": toRangesJSON(ce.Conflicts),
		})
	}
	var ite *model.InvalidTransitionError
	if errors.As(err, &ite) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":            ite.Error(),
			"current_status":   ite.Current,
			"requested_status": ite.Requested,
		})
	}
	switch {
	case errors.Is(err, repository.ErrListingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "listing not found"})
	case errors.Is(err, repository.ErrRequestNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking request not found"})
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}

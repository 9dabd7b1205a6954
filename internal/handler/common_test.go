package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stay-reservation/internal/model"
	"github.com/iliyamo/stay-reservation/internal/repository"
)

func newTestContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestGetUserID(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{name: "uint64", value: uint64(42), want: 42},
		{name: "float64 from jwt claims", value: float64(42), want: 42},
		{name: "numeric string", value: "42", want: 42},
		{name: "garbage string", value: "abc", wantErr: true},
		{name: "missing", value: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t, "/")
			if tt.value != nil {
				c.Set("user_id", tt.value)
			}
			got, err := getUserID(c)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("getUserID: %v", err)
			}
			if got != tt.want {
				t.Errorf("getUserID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPathID(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  uint64
		valid bool
	}{
		{name: "valid", raw: "7", want: 7, valid: true},
		{name: "zero", raw: "0"},
		{name: "negative", raw: "-1"},
		{name: "not a number", raw: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t, "/")
			c.SetParamNames("id")
			c.SetParamValues(tt.raw)
			got, ok := pathID(c, "id")
			if ok != tt.valid {
				t.Fatalf("pathID ok = %v, want %v", ok, tt.valid)
			}
			if ok && got != tt.want {
				t.Errorf("pathID = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWindowParams(t *testing.T) {
	t.Run("defaults to a window starting today", func(t *testing.T) {
		c, _ := newTestContext(t, "/v1/listings/1/calendar")
		w, err := windowParams(c)
		if err != nil {
			t.Fatalf("windowParams: %v", err)
		}
		if !w.CheckIn.Equal(model.Midnight(time.Now())) {
			t.Errorf("window starts at %s, want today", w.CheckIn)
		}
		if w.Nights() != defaultCalendarDays {
			t.Errorf("window covers %d days, want %d", w.Nights(), defaultCalendarDays)
		}
	})
	t.Run("explicit range", func(t *testing.T) {
		c, _ := newTestContext(t, "/v1/listings/1/calendar?from=2026-07-01&to=2026-07-04")
		w, err := windowParams(c)
		if err != nil {
			t.Fatalf("windowParams: %v", err)
		}
		if w.Nights() != 3 {
			t.Errorf("window covers %d days, want 3", w.Nights())
		}
	})
	t.Run("half-supplied range is rejected", func(t *testing.T) {
		c, _ := newTestContext(t, "/v1/listings/1/calendar?from=2026-07-01")
		if _, err := windowParams(c); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestRespondDomainError(t *testing.T) {
	stay := model.StayRange{
		CheckIn:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
	}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &model.ValidationError{Field: "check_in", Reason: "bad"}, want: http.StatusBadRequest},
		{name: "stay duration", err: &model.StayDurationError{Nights: 1, MinStay: 2}, want: http.StatusBadRequest},
		{name: "pricing", err: &model.PricingError{TotalCents: -1}, want: http.StatusBadRequest},
		{name: "conflict", err: &model.ConflictError{Requested: stay, Conflicts: []model.StayRange{stay}}, want: http.StatusConflict},
		{name: "transition", err: &model.InvalidTransitionError{Current: model.BookingCompleted, Requested: model.BookingPending}, want: http.StatusBadRequest},
		{name: "listing not found", err: repository.ErrListingNotFound, want: http.StatusNotFound},
		{name: "request not found", err: repository.ErrRequestNotFound, want: http.StatusNotFound},
		{name: "booking not found", err: repository.ErrBookingNotFound, want: http.StatusNotFound},
		{name: "forbidden", err: repository.ErrForbidden, want: http.StatusForbidden},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestContext(t, "/")
			if err := respondDomainError(c, tt.err); err != nil {
				t.Fatalf("respondDomainError: %v", err)
			}
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestLockContention(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, want: true},
		{name: "wrapped deadline", err: fmt.Errorf("lock listing: %w", context.DeadlineExceeded), want: true},
		{name: "innodb deadlock", err: &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}, want: true},
		{name: "wrapped deadlock", err: fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1213}), want: true},
		{name: "duplicate key", err: &mysql.MySQLError{Number: 1062}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lockContention(tt.err); got != tt.want {
				t.Errorf("lockContention = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRespondTxFailure(t *testing.T) {
	t.Run("contention maps to retryable conflict", func(t *testing.T) {
		c, rec := newTestContext(t, "/")
		if err := respondTxFailure(c, "approval", &mysql.MySQLError{Number: 1213}); err != nil {
			t.Fatalf("respondTxFailure: %v", err)
		}
		if rec.Code != http.StatusConflict {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
		}
	})
	t.Run("other failures map to server error", func(t *testing.T) {
		c, rec := newTestContext(t, "/")
		if err := respondTxFailure(c, "approval", errors.New("boom")); err != nil {
			t.Fatalf("respondTxFailure: %v", err)
		}
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

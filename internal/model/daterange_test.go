package model

import (
	"errors"
	"testing"
	"time"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateFormat, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func stay(t *testing.T, in, out string) StayRange {
	t.Helper()
	r, err := NewStayRange(day(t, in), day(t, out))
	if err != nil {
		t.Fatalf("bad test range %s..%s: %v", in, out, err)
	}
	return r
}

func TestNewStayRangeRejectsInvertedAndEmpty(t *testing.T) {
	cases := [][2]string{
		{"2026-06-13", "2026-06-10"}, // inverted
		{"2026-06-10", "2026-06-10"}, // zero nights
	}
	for _, c := range cases {
		_, err := NewStayRange(day(t, c[0]), day(t, c[1]))
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("range %s..%s: expected ValidationError, got %v", c[0], c[1], err)
		}
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	base := stay(t, "2026-06-10", "2026-06-13")
	cases := []struct {
		name    string
		in, out string
		want    bool
	}{
		{"identical", "2026-06-10", "2026-06-13", true},
		{"contained", "2026-06-11", "2026-06-12", true},
		{"contains", "2026-06-09", "2026-06-14", true},
		{"overlap tail", "2026-06-12", "2026-06-15", true},
		{"overlap head", "2026-06-08", "2026-06-11", true},
		{"back to back after", "2026-06-13", "2026-06-15", false},
		{"back to back before", "2026-06-08", "2026-06-10", false},
		{"disjoint", "2026-06-20", "2026-06-22", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			other := stay(t, c.in, c.out)
			if got := base.Overlaps(other); got != c.want {
				t.Errorf("%s.Overlaps(%s) = %v, want %v", base, other, got, c.want)
			}
			// overlap is symmetric
			if got := other.Overlaps(base); got != c.want {
				t.Errorf("%s.Overlaps(%s) = %v, want %v", other, base, got, c.want)
			}
		})
	}
}

func TestNightsAndDaysExcludeCheckout(t *testing.T) {
	r := stay(t, "2026-06-10", "2026-06-13")
	if r.Nights() != 3 {
		t.Fatalf("Nights() = %d, want 3", r.Nights())
	}
	days := r.Days()
	if len(days) != 3 {
		t.Fatalf("Days() returned %d days, want 3", len(days))
	}
	want := []string{"2026-06-10", "2026-06-11", "2026-06-12"}
	for i, d := range days {
		if d.Format(DateFormat) != want[i] {
			t.Errorf("Days()[%d] = %s, want %s", i, d.Format(DateFormat), want[i])
		}
	}
	if r.Contains(day(t, "2026-06-13")) {
		t.Error("checkout day must not be contained in the stay")
	}
	if !r.Contains(day(t, "2026-06-10")) {
		t.Error("check-in day must be contained in the stay")
	}
}

func TestParseStayRange(t *testing.T) {
	r, err := ParseStayRange("2026-06-10", "2026-06-13")
	if err != nil {
		t.Fatalf("ParseStayRange: %v", err)
	}
	if r.Nights() != 3 {
		t.Errorf("Nights() = %d, want 3", r.Nights())
	}
	if _, err := ParseStayRange("june 10", "2026-06-13"); err == nil {
		t.Error("expected error for malformed check_in")
	}
}

func TestCentsRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{100.00, 10000},
		{99.99, 9999},
		{0.125, 13}, // exact binary half rounds up
		{0.994, 99},
		{3.20, 320},
	}
	for _, c := range cases {
		if got := Cents(c.in); got != c.want {
			t.Errorf("Cents(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

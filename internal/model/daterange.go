package model

import (
	"fmt"
	"time"
)

// DateFormat is the wire and database format for calendar dates.
const DateFormat = "2006-01-02"

// StayRange is a half-open date interval [CheckIn, CheckOut).  The check-in
// night is occupied, the check-out day is not.  Both endpoints are stored
// as UTC midnights; all range math in the engine goes through this type so
// the half-open convention lives in exactly one place.
type StayRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Midnight truncates t to the start of its day in UTC.
func Midnight(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewStayRange builds a StayRange from raw times.  It normalizes both
// endpoints to UTC midnight and rejects ranges where checkOut is not
// strictly after checkIn.
func NewStayRange(checkIn, checkOut time.Time) (StayRange, error) {
	r := StayRange{CheckIn: Midnight(checkIn), CheckOut: Midnight(checkOut)}
	if !r.CheckOut.After(r.CheckIn) {
		return StayRange{}, &ValidationError{Field: "check_out", Reason: "check_out must be after check_in"}
	}
	return r, nil
}

// ParseStayRange parses check-in/check-out strings in DateFormat and
// validates them as a range.
func ParseStayRange(checkIn, checkOut string) (StayRange, error) {
	in, err := time.Parse(DateFormat, checkIn)
	if err != nil {
		return StayRange{}, &ValidationError{Field: "check_in", Reason: "must be a YYYY-MM-DD date"}
	}
	out, err := time.Parse(DateFormat, checkOut)
	if err != nil {
		return StayRange{}, &ValidationError{Field: "check_out", Reason: "must be a YYYY-MM-DD date"}
	}
	return NewStayRange(in, out)
}

// Nights returns the number of occupied nights in the range.
func (r StayRange) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn) / (24 * time.Hour))
}

// Overlaps reports whether two half-open ranges intersect.  [a,b) and
// [c,d) intersect iff a < d && c < b, so back-to-back stays sharing a
// turnover day do not conflict.
func (r StayRange) Overlaps(o StayRange) bool {
	return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}

// Contains reports whether day falls on an occupied night of the range.
func (r StayRange) Contains(day time.Time) bool {
	d := Midnight(day)
	return !d.Before(r.CheckIn) && d.Before(r.CheckOut)
}

// Nights enumerated: one entry per occupied night, check-out day excluded.
func (r StayRange) Days() []time.Time {
	days := make([]time.Time, 0, r.Nights())
	for d := r.CheckIn; d.Before(r.CheckOut); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (r StayRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.CheckIn.Format(DateFormat), r.CheckOut.Format(DateFormat))
}

package model

import "math"

// Money is stored as integer cents throughout the engine.  Summing integer
// cents never drifts; rounding only happens once, at the decimal boundary.

// Cents converts a decimal amount (e.g. from a JSON body) to integer cents
// using round-half-up.
func Cents(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}

// Dollars renders cents as a decimal amount for display payloads.
func Dollars(cents int64) float64 {
	return float64(cents) / 100
}

// Package money handles conversion between major currency units used at the
// API boundary and the int64 minor units (paise) stored and computed
// internally. All rounding is half away from zero, applied once at the end of
// an accumulation.
package money

import "math"

// FromMajor converts a major-unit amount (e.g. rupees) to minor units.
func FromMajor(v float64) int64 {
	return RoundMinor(v * 100)
}

// ToMajor converts minor units back to a major-unit amount.
func ToMajor(m int64) float64 {
	return float64(m) / 100
}

// RoundMinor rounds a fractional minor-unit value to the nearest paisa.
func RoundMinor(f float64) int64 {
	return int64(math.Round(f))
}

// Mul computes quantity times a minor-unit price, rounded to the nearest
// paisa. Quantities may be fractional (hours, kilograms).
func Mul(quantity float64, unitPrice int64) int64 {
	return RoundMinor(quantity * float64(unitPrice))
}

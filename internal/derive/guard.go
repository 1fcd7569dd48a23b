// Package derive computes the secondary dashboard metrics (percentages,
// rankings, formatted magnitudes, evolution labels) from a reconciled dataset.
//
// Every function is pure and total: malformed but present input (missing
// fields, zero denominators, non-finite numbers) degrades to the zero or
// empty value instead of panicking or producing NaN/Inf.
package derive

import "math"

// SafeNumber returns 0 for NaN and ±Inf, v otherwise.
func SafeNumber(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return SafeNumber(math.Round(v*10) / 10)
}

// PercentageOf returns 100*part/whole rounded to one decimal, or 0 when the
// whole is zero or either input is not finite.
func PercentageOf(part, whole float64) float64 {
	part, whole = SafeNumber(part), SafeNumber(whole)
	if whole == 0 {
		return 0
	}
	return round1(100 * part / whole)
}

// PassThroughPercent returns an already-rounded percentage unchanged, guarded
// against non-finite input.
func PassThroughPercent(v float64) float64 {
	return SafeNumber(v)
}

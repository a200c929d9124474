// Package mathutil provides element-wise numeric helpers used when turning
// binned counts into plottable quantities.
package mathutil

import "math"

// Bound clips every element of values into [lo, hi] in place and returns values.
// A nil bound leaves that side open.
func Bound(values []float64, lo, hi *float64) []float64 {
	for i, v := range values {
		if lo != nil && v < *lo {
			v = *lo
		}

		if hi != nil && v > *hi {
			v = *hi
		}

		values[i] = v
	}

	return values
}

// SafeLg returns log10(max(v, lo)) for every element, so empty bins map to a
// finite floor instead of -Inf.
func SafeLg(values []float64, lo float64) []float64 {
	out := make([]float64, len(values))

	for i, v := range values {
		out[i] = math.Log10(math.Max(v, lo))
	}

	return out
}

// Ptr returns a pointer to v, for use with Bound.
func Ptr(v float64) *float64 {
	return &v
}

// Package stats holds the order statistics and moments shared by the
// reductions and the summary. Deviations are population deviations and
// quantiles interpolate linearly between order statistics.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// PercentileMedian is the probability of the median.
const PercentileMedian = 0.5

// Mean returns the arithmetic mean, or NaN when values is empty.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	return floats.Sum(values) / float64(len(values))
}

// MeanStdDev returns the mean and the population standard deviation.
// Both are NaN for an empty sample.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}

	mean = Mean(values)

	var ss float64

	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}

	return mean, math.Sqrt(ss / float64(len(values)))
}

// Percentile sorts a copy of values and evaluates PercentileSorted on it.
func Percentile(values []float64, p float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return PercentileSorted(sorted, p)
}

// PercentileSorted returns the p-quantile of an ascending sample. The
// position p·(n-1) is split into an order statistic and a fraction used
// to interpolate towards the next one. p is clipped to [0, 1].
func PercentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}

	pos := math.Max(0, math.Min(p, 1)) * float64(n-1)
	k := int(pos)

	if k >= n-1 {
		return sorted[n-1]
	}

	return sorted[k] + (pos-float64(k))*(sorted[k+1]-sorted[k])
}

// Quantiles evaluates PercentileSorted at every probability in ps.
func Quantiles(sorted, ps []float64) []float64 {
	out := make([]float64, 0, len(ps))

	for _, p := range ps {
		out = append(out, PercentileSorted(sorted, p))
	}

	return out
}

// Median is Percentile at PercentileMedian.
func Median(values []float64) float64 {
	return Percentile(values, PercentileMedian)
}

// Min returns the smallest element, or NaN for an empty sample.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	return floats.Min(values)
}

// Max returns the largest element, or NaN for an empty sample.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	return floats.Max(values)
}

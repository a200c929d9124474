// Package reduce provides the closed set of reductions applied to one-dimensional
// samples: count, sum, mean, standard deviation, median, quantiles and error bars.
//
// Every reduction has two code paths selected by whether weights are given.
// Weighted paths normalize the weights to unit sum before use.
package reduce

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/stats"
)

// Sentinel errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownReduce   = fmt.Errorf("%w: unknown reduction", ErrInvalidArgument)
)

// Kind tags a reduction variant.
type Kind int

// Reduction variants.
const (
	KindCount Kind = iota
	KindSum
	KindMean
	KindStdDev
	KindMedian
	KindQuantile
	KindErrorbar
)

var kindNames = map[Kind]string{
	KindCount:    "count",
	KindSum:      "sum",
	KindMean:     "mean",
	KindStdDev:   "std_dev",
	KindMedian:   "median",
	KindQuantile: "quantile",
	KindErrorbar: "errorbar",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Named quantile sets.
var (
	PS1Sigma       = []float64{0.16, 0.84}
	PS2Sigma       = []float64{0.025, 0.975}
	PS3Sigma       = []float64{0.005, 0.995}
	PSMedian1Sigma = []float64{0.16, 0.5, 0.84}
	PSMedian2Sigma = []float64{0.025, 0.5, 0.975}
	PSMedian3Sigma = []float64{0.005, 0.5, 0.995}
)

var namedPS = map[string][]float64{
	"1sigma":        PS1Sigma,
	"2sigma":        PS2Sigma,
	"3sigma":        PS3Sigma,
	"median+1sigma": PSMedian1Sigma,
	"median+2sigma": PSMedian2Sigma,
	"median+3sigma": PSMedian3Sigma,
}

// NamedPS returns a copy of the named quantile set.
func NamedPS(name string) ([]float64, error) {
	ps, ok := namedPS[name]
	if !ok {
		return nil, fmt.Errorf("%w: quantile set %q", ErrInvalidArgument, name)
	}

	return slices.Clone(ps), nil
}

// ErrorbarMeanSD selects the mean ± standard deviation error bar.
const ErrorbarMeanSD = "mean+sd"

// Reducer maps a sample, optionally weighted, to a fixed-length vector.
type Reducer interface {
	// Reduce applies the reduction. weights may be nil.
	Reduce(x, weights []float64) ([]float64, error)
	// Kind returns the variant tag.
	Kind() Kind
	// Name returns a short label for output keys.
	Name() string
	// Width returns the length of the vector returned by Reduce.
	Width() int
}

// Op is the single concrete Reducer; its kind selects the behavior.
type Op struct {
	kind      Kind
	ps        []float64
	normalize bool
	mode      string
}

// Count returns the sample size. With weights and normalize == false it
// returns the weight sum instead.
func Count(normalize bool) Op {
	return Op{kind: KindCount, normalize: normalize}
}

// Sum returns Σx, or Σwx with normalize selecting unit-sum weights.
func Sum(normalize bool) Op {
	return Op{kind: KindSum, normalize: normalize}
}

// Mean returns the (weighted) arithmetic mean.
func Mean() Op {
	return Op{kind: KindMean}
}

// StdDev returns the (weighted) population standard deviation.
func StdDev() Op {
	return Op{kind: KindStdDev}
}

// Median returns the (weighted) median.
func Median() Op {
	return Op{kind: KindMedian, ps: []float64{stats.PercentileMedian}}
}

// Quantile returns the (weighted) quantiles at ps.
func Quantile(ps ...float64) Op {
	return Op{kind: KindQuantile, ps: slices.Clone(ps)}
}

// Errorbar returns [center, lower error, upper error]. mode is ErrorbarMeanSD
// or one of "median+1sigma", "median+2sigma", "median+3sigma".
func Errorbar(mode string) (Op, error) {
	if mode == ErrorbarMeanSD {
		return Op{kind: KindErrorbar, mode: mode}, nil
	}

	if !strings.HasPrefix(mode, "median+") {
		return Op{}, fmt.Errorf("%w: errorbar mode %q", ErrInvalidArgument, mode)
	}

	ps, err := NamedPS(mode)
	if err != nil {
		return Op{}, err
	}

	return Op{kind: KindErrorbar, mode: mode, ps: ps}, nil
}

// Kind implements Reducer.
func (o Op) Kind() Kind { return o.kind }

// Name implements Reducer.
func (o Op) Name() string {
	if o.kind == KindErrorbar {
		return o.kind.String() + "(" + o.mode + ")"
	}

	return o.kind.String()
}

// Width implements Reducer.
func (o Op) Width() int {
	switch o.kind {
	case KindQuantile:
		return len(o.ps)
	case KindErrorbar:
		return 3
	default:
		return 1
	}
}

// PS returns the quantile levels of a quantile, median or errorbar reduction.
func (o Op) PS() []float64 {
	return slices.Clone(o.ps)
}

// Reduce implements Reducer.
func (o Op) Reduce(x, weights []float64) ([]float64, error) {
	if weights == nil {
		return o.unweighted(x), nil
	}

	if len(weights) != len(x) {
		return nil, fmt.Errorf("%w: %d weights for %d values", ErrInvalidArgument, len(weights), len(x))
	}

	return o.weighted(x, weights), nil
}

func (o Op) unweighted(x []float64) []float64 {
	switch o.kind {
	case KindCount:
		return []float64{float64(len(x))}
	case KindSum:
		return []float64{floats.Sum(x)}
	case KindMean:
		return []float64{stats.Mean(x)}
	case KindStdDev:
		_, sd := stats.MeanStdDev(x)

		return []float64{sd}
	case KindMedian, KindQuantile:
		return stats.Quantiles(sortedCopy(x), o.ps)
	case KindErrorbar:
		return o.errorbar(x, nil)
	}

	return nil
}

func (o Op) weighted(x, weights []float64) []float64 {
	switch o.kind {
	case KindCount:
		if o.normalize {
			return []float64{float64(len(x))}
		}

		return []float64{floats.Sum(weights)}
	case KindSum:
		w := weights
		if o.normalize {
			w = normalized(weights)
		}

		return []float64{floats.Dot(x, w)}
	case KindMean:
		if len(x) == 0 {
			return []float64{math.NaN()}
		}

		return []float64{stat.Mean(x, weights)}
	case KindStdDev:
		if len(x) == 0 {
			return []float64{math.NaN()}
		}

		_, variance := stat.PopMeanVariance(x, weights)

		return []float64{math.Sqrt(variance)}
	case KindMedian, KindQuantile:
		return WeightedQuantiles(x, weights, o.ps)
	case KindErrorbar:
		return o.errorbar(x, weights)
	}

	return nil
}

func (o Op) errorbar(x, weights []float64) []float64 {
	if o.mode == ErrorbarMeanSD {
		mean, _ := Mean().Reduce(x, weights)
		sd, _ := StdDev().Reduce(x, weights)

		return []float64{mean[0], sd[0], sd[0]}
	}

	qs, _ := Quantile(o.ps...).Reduce(x, weights)
	lo, med, hi := qs[0], qs[1], qs[2]

	return []float64{med, med - lo, hi - med}
}

// WeightedQuantiles interpolates ps on the cumulative distribution of the
// unit-normalized weights. Values outside the CDF range clamp to the extremes.
func WeightedQuantiles(x, weights, ps []float64) []float64 {
	out := make([]float64, len(ps))
	if len(x) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}

		return out
	}

	xs := slices.Clone(x)
	inds := make([]int, len(xs))
	floats.Argsort(xs, inds)

	w := normalized(weights)
	cdf := make([]float64, len(w))

	for i, idx := range inds {
		cdf[i] = w[idx]
	}

	floats.CumSum(cdf, cdf)

	for i, p := range ps {
		out[i] = interp(p, cdf, xs)
	}

	return out
}

// interp evaluates the piecewise-linear function through (xp, fp) at x,
// clamping outside [xp[0], xp[n-1]]. xp must be non-decreasing.
func interp(x float64, xp, fp []float64) float64 {
	n := len(xp)
	if x <= xp[0] {
		return fp[0]
	}

	if x >= xp[n-1] {
		return fp[n-1]
	}

	hi, _ := slices.BinarySearch(xp, x)
	for hi < n-1 && xp[hi] <= x {
		hi++
	}

	lo := hi - 1
	if xp[hi] == xp[lo] {
		return fp[hi]
	}

	t := (x - xp[lo]) / (xp[hi] - xp[lo])

	return fp[lo] + (fp[hi]-fp[lo])*t
}

func normalized(weights []float64) []float64 {
	out := slices.Clone(weights)

	total := floats.Sum(out)
	if total != 0 {
		floats.Scale(1/total, out)
	}

	return out
}

func sortedCopy(x []float64) []float64 {
	out := slices.Clone(x)
	slices.Sort(out)

	return out
}

// Package probdist maps samples between empirical and standard normal
// distributions.
package probdist

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

// Sentinel errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfRange      = errors.New("value outside the fitted range")
)

// ProbTransToNorm is the empirical CDF of a reference sample, optionally
// composed with the standard normal quantile function.
type ProbTransToNorm struct {
	lo, hi float64
	cdf    interp.PiecewiseLinear
	invCDF interp.PiecewiseLinear
}

// NewProbTransToNorm fits the empirical CDF of xs. The i-th smallest value
// maps to probability i/(n-1). Values must be unique and at least two.
func NewProbTransToNorm(xs []float64) (*ProbTransToNorm, error) {
	if len(xs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples, got %d", ErrInvalidArgument, len(xs))
	}

	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	for i := 1; i < len(sorted); i++ {
		if !(sorted[i] > sorted[i-1]) {
			return nil, fmt.Errorf("%w: samples must be unique and finite, %v repeats", ErrInvalidArgument, sorted[i])
		}
	}

	n := len(sorted)
	cum := make([]float64, n)

	for i := range cum {
		cum[i] = float64(i) / float64(n-1)
	}

	p := &ProbTransToNorm{lo: sorted[0], hi: sorted[n-1]}

	if err := p.cdf.Fit(sorted, cum); err != nil {
		return nil, fmt.Errorf("fit cdf: %w", err)
	}

	if err := p.invCDF.Fit(cum, sorted); err != nil {
		return nil, fmt.Errorf("fit inverse cdf: %w", err)
	}

	return p, nil
}

// Forward maps xs to their empirical probabilities, then through the standard
// normal quantile when withNorm is set. The sample extremes map to ±Inf.
func (p *ProbTransToNorm) Forward(xs []float64, withNorm bool) ([]float64, error) {
	out := make([]float64, len(xs))

	for i, x := range xs {
		if x < p.lo || x > p.hi || math.IsNaN(x) {
			return nil, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, x, p.lo, p.hi)
		}

		y := p.cdf.Predict(x)
		if withNorm {
			y = distuv.UnitNormal.Quantile(y)
		}

		out[i] = y
	}

	return out, nil
}

// Backward is the inverse of Forward.
func (p *ProbTransToNorm) Backward(ys []float64, withNorm bool) ([]float64, error) {
	out := make([]float64, len(ys))

	for i, y := range ys {
		if withNorm {
			y = distuv.UnitNormal.CDF(y)
		}

		if y < 0 || y > 1 || math.IsNaN(y) {
			return nil, fmt.Errorf("%w: probability %v", ErrOutOfRange, y)
		}

		out[i] = p.invCDF.Predict(y)
	}

	return out, nil
}

// AbundanceMatching transforms src so that the result follows the
// distribution of dst while keeping a rank correlation controlled by rho in
// [-1, 1]. Both samples must hold unique values; their sizes may differ.
func AbundanceMatching(src, dst []float64, rho float64, r *rng.Rng) ([]float64, error) {
	if rho < -1 || rho > 1 {
		return nil, fmt.Errorf("%w: rho %v not in [-1, 1]", ErrInvalidArgument, rho)
	}

	pSrc, err := NewProbTransToNorm(src)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	pDst, err := NewProbTransToNorm(dst)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	ys, err := pSrc.Forward(src, true)
	if err != nil {
		return nil, err
	}

	if r == nil {
		r = rng.Default()
	}

	eps := r.StandardNormal(len(ys))
	scatter := math.Sqrt(1 - rho*rho)

	for i := range ys {
		// Zero correlation drops the source entirely, including its ±Inf extremes.
		signal := 0.0
		if rho != 0 {
			signal = rho * ys[i]
		}

		ys[i] = signal + scatter*eps[i]
	}

	return pDst.Backward(ys, true)
}

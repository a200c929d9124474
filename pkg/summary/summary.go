// Package summary computes distributional summaries along the sample axis of
// an array: mean, population standard deviation, median, extremes and the
// quantile bands matching ±1σ, ±2σ and ±3σ of a normal distribution.
//
// Each trailing slot is summarized independently and every output keeps the
// trailing shape exactly, so a 1-d input yields scalar (0-d) fields.
package summary

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/stats"
	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
)

// ErrInvalidArgument is returned for inputs without a sample axis and for
// malformed dictionaries.
var ErrInvalidArgument = errors.New("invalid argument")

// Quantile levels of the sigma bands.
var (
	PSigma1 = [2]float64{0.16, 0.84}
	PSigma2 = [2]float64{0.025, 0.975}
	PSigma3 = [2]float64{0.005, 0.995}
)

// Dictionary keys used by AsDict and FromDict.
const (
	KeyMean   = "mean"
	KeySD     = "sd"
	KeyMedian = "median"
	KeyMin    = "min"
	KeyMax    = "max"
	KeySigma1 = "sigma_1"
	KeySigma2 = "sigma_2"
	KeySigma3 = "sigma_3"
)

// Keys lists every FullResult field key in a stable order.
var Keys = []string{KeyMean, KeySD, KeyMedian, KeyMin, KeyMax, KeySigma1, KeySigma2, KeySigma3}

// FullResult is the summary of one array. Mean, SD, Median, Min and Max have
// the trailing shape; Sigma1..3 have shape (2,) + trailing shape with the lower
// bound at index 0 and the upper bound at index 1.
type FullResult struct {
	Mean   *nd.Array `json:"mean"    yaml:"mean"`
	SD     *nd.Array `json:"sd"      yaml:"sd"`
	Median *nd.Array `json:"median"  yaml:"median"`
	Min    *nd.Array `json:"min"     yaml:"min"`
	Max    *nd.Array `json:"max"     yaml:"max"`
	Sigma1 *nd.Array `json:"sigma_1" yaml:"sigma_1"`
	Sigma2 *nd.Array `json:"sigma_2" yaml:"sigma_2"`
	Sigma3 *nd.Array `json:"sigma_3" yaml:"sigma_3"`
}

type options struct {
	logger *slog.Logger
}

// Option configures On.
type Option func(*options)

// WithLogger sets the logger that receives degenerate-data warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// On summarizes x along axis 0. An empty sample axis is not an error: every
// field is NaN and a warning is logged.
func On(x *nd.Array, opts ...Option) (*FullResult, error) {
	cfg := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if x == nil || x.IsScalar() {
		return nil, fmt.Errorf("%w: summary needs an array with a sample axis", ErrInvalidArgument)
	}

	trailing := x.TrailingShape()
	slots := nd.Size(trailing)
	bandShape := append([]int{2}, trailing...)

	res := &FullResult{
		Mean:   nd.Zeros(trailing...),
		SD:     nd.Zeros(trailing...),
		Median: nd.Zeros(trailing...),
		Min:    nd.Zeros(trailing...),
		Max:    nd.Zeros(trailing...),
		Sigma1: nd.Zeros(bandShape...),
		Sigma2: nd.Zeros(bandShape...),
		Sigma3: nd.Zeros(bandShape...),
	}

	if x.Len() == 0 {
		cfg.logger.Warn("degenerate sample: empty sample axis", "shape", x.Shape)
		res.fill(math.NaN())

		return res, nil
	}

	col := make([]float64, 0, x.Len())
	constant := 0

	for j := range slots {
		col = x.Column(j, col)
		slices.Sort(col)

		mean, sd := stats.MeanStdDev(col)
		res.Mean.Data[j] = mean
		res.SD.Data[j] = sd
		res.Median.Data[j] = stats.PercentileSorted(col, stats.PercentileMedian)
		res.Min.Data[j] = col[0]
		res.Max.Data[j] = col[len(col)-1]

		setBand(res.Sigma1, slots, j, col, PSigma1)
		setBand(res.Sigma2, slots, j, col, PSigma2)
		setBand(res.Sigma3, slots, j, col, PSigma3)

		if col[0] == col[len(col)-1] {
			constant++
		}
	}

	if constant > 0 {
		cfg.logger.Debug("degenerate sample: single-valued slots", "slots", constant, "total", slots)
	}

	return res, nil
}

func setBand(band *nd.Array, slots, j int, sorted []float64, ps [2]float64) {
	band.Data[j] = stats.PercentileSorted(sorted, ps[0])
	band.Data[slots+j] = stats.PercentileSorted(sorted, ps[1])
}

func (r *FullResult) fill(v float64) {
	for _, arr := range r.fields() {
		for i := range arr.Data {
			arr.Data[i] = v
		}
	}
}

func (r *FullResult) fields() []*nd.Array {
	return []*nd.Array{r.Mean, r.SD, r.Median, r.Min, r.Max, r.Sigma1, r.Sigma2, r.Sigma3}
}

// TrailingShape returns the shape each non-band field shares.
func (r *FullResult) TrailingShape() []int {
	return slices.Clone(r.Mean.Shape)
}

// Band returns the sigma band for k in {1, 2, 3}.
func (r *FullResult) Band(k int) (*nd.Array, error) {
	switch k {
	case 1:
		return r.Sigma1, nil
	case 2:
		return r.Sigma2, nil
	case 3:
		return r.Sigma3, nil
	}

	return nil, fmt.Errorf("%w: sigma band %d", ErrInvalidArgument, k)
}

// AsDict flattens the result into a string-keyed mapping. The arrays are copies.
func (r *FullResult) AsDict() map[string]*nd.Array {
	out := make(map[string]*nd.Array, len(Keys))

	for i, arr := range r.fields() {
		out[Keys[i]] = arr.Clone()
	}

	return out
}

// FromDict rebuilds a FullResult from the output of AsDict. Every key must be
// present and band shapes must be (2,) + the mean's shape.
func FromDict(d map[string]*nd.Array) (*FullResult, error) {
	get := func(key string) (*nd.Array, error) {
		arr, ok := d[key]
		if !ok || arr == nil {
			return nil, fmt.Errorf("%w: missing key %q", ErrInvalidArgument, key)
		}

		return arr.Clone(), nil
	}

	fields := make([]*nd.Array, len(Keys))

	for i, key := range Keys {
		arr, err := get(key)
		if err != nil {
			return nil, err
		}

		fields[i] = arr
	}

	res := &FullResult{
		Mean: fields[0], SD: fields[1], Median: fields[2], Min: fields[3], Max: fields[4],
		Sigma1: fields[5], Sigma2: fields[6], Sigma3: fields[7],
	}

	trailing := res.Mean.Shape
	bandShape := append([]int{2}, trailing...)

	for i, arr := range fields {
		want := trailing
		if i >= 5 {
			want = bandShape
		}

		if !slices.Equal(arr.Shape, want) {
			return nil, fmt.Errorf("%w: %q has shape %v, want %v", ErrInvalidArgument, Keys[i], arr.Shape, want)
		}
	}

	return res, nil
}

// Equal reports whether both results hold bit-identical fields.
func (r *FullResult) Equal(other *FullResult) bool {
	if other == nil {
		return false
	}

	a, b := r.fields(), other.fields()
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}

	return true
}

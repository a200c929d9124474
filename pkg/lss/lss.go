// Package lss estimates binned number densities, such as mass or luminosity
// functions, with bootstrap errors.
package lss

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/astrostat/pkg/binning"
	"github.com/Sumatoshi-tech/astrostat/pkg/mathutil"
	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
	"github.com/Sumatoshi-tech/astrostat/pkg/resample"
	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

// ErrInvalidArgument is returned for non-positive volumes and malformed options.
var ErrInvalidArgument = errors.New("invalid argument")

// Defaults used by DefaultOptions.
const (
	DefaultBins       = 15
	DefaultSubBins    = 3
	DefaultNBootstrap = 10
	DefaultLgYPad     = 1e-8
)

// Output keys.
const (
	KeyX        = "x"
	KeyDX       = "dx"
	KeySubEdges = "sub_e"
	KeyH        = "h"
	KeyY        = "y"
	KeyLgY      = "lg_y"
	keyWeights  = "weights"
	keyValues   = "x_to_bin"
)

// ResampledKeys are the outputs that carry bootstrap errors.
var ResampledKeys = []string{KeyH, KeyY, KeyLgY}

// Options configures BinnedVolumeDensity.FromRaw.
type Options struct {
	// Bins is the number of coarse bins, used when Edges is nil.
	Bins int
	// Edges are explicit coarse bin edges.
	Edges []float64
	// SubBins is the number of sub-bins per coarse bin.
	SubBins int
	// Range fixes the binned interval. When nil, PRange percentiles of the
	// data are used.
	Range  *binning.Range
	PRange *binning.Range
	// Weights are optional per-sample weights.
	Weights []float64
	// NBootstrap is the number of bootstrap resamples.
	NBootstrap int
	// LgYPad is the floor applied before taking log10 of the density.
	LgYPad float64
	// KeepSamples keeps the per-resample h, y and lg_y.
	KeepSamples bool
	Workers     int
	Rng         *rng.Rng
	Logger      *slog.Logger
	Tracer      trace.Tracer
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		Bins:       DefaultBins,
		SubBins:    DefaultSubBins,
		NBootstrap: DefaultNBootstrap,
		LgYPad:     DefaultLgYPad,
		Workers:    1,
	}
}

// Result is a binned volume density with bootstrap standard deviations.
type Result struct {
	X        []float64 `json:"x"     yaml:"x"`
	DX       []float64 `json:"dx"    yaml:"dx"`
	SubEdges []float64 `json:"sub_e" yaml:"sub_e"`
	H        []float64 `json:"h"     yaml:"h"`
	Y        []float64 `json:"y"     yaml:"y"`
	LgY      []float64 `json:"lg_y"  yaml:"lg_y"`

	HSD   []float64 `json:"h_sd"    yaml:"h_sd"`
	YSD   []float64 `json:"y_sd"    yaml:"y_sd"`
	LgYSD []float64 `json:"lg_y_sd" yaml:"lg_y_sd"`

	// Samples maps h, y and lg_y to arrays of shape (NBootstrap, nbins).
	Samples map[string]*nd.Array `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// Outputs returns the result as a flat mapping keyed like the JSON fields.
func (r *Result) Outputs() resample.Outputs {
	out := resample.Outputs{
		KeyX:        nd.FromSlice(r.X),
		KeyDX:       nd.FromSlice(r.DX),
		KeySubEdges: nd.FromSlice(r.SubEdges),
		KeyH:        nd.FromSlice(r.H),
		KeyY:        nd.FromSlice(r.Y),
		KeyLgY:      nd.FromSlice(r.LgY),
	}

	if r.HSD != nil {
		out[KeyH+resample.SDSuffix] = nd.FromSlice(r.HSD)
		out[KeyY+resample.SDSuffix] = nd.FromSlice(r.YSD)
		out[KeyLgY+resample.SDSuffix] = nd.FromSlice(r.LgYSD)
	}

	return out
}

// BinnedVolumeDensity computes y = h / (volume · bin width). Set volume to
// the survey or box volume for a mass function, or to the number of hosts for
// a conditional one.
type BinnedVolumeDensity struct{}

// FromRaw bins x with overlapping bins and bootstraps the density. The bin
// edges are fixed from the full sample before resampling, and only samples
// inside the binned range take part in the bootstrap.
func (BinnedVolumeDensity) FromRaw(ctx context.Context, x []float64, volume float64, opts Options) (*Result, error) {
	if !(volume > 0) {
		return nil, fmt.Errorf("%w: volume %v must be positive", ErrInvalidArgument, volume)
	}

	if opts.Weights != nil && len(opts.Weights) != len(x) {
		return nil, fmt.Errorf("%w: %d weights for %d samples", ErrInvalidArgument, len(opts.Weights), len(x))
	}

	if opts.LgYPad <= 0 {
		opts.LgYPad = DefaultLgYPad
	}

	spec := binning.OverlapSpec{N: opts.Bins, Edges: opts.Edges, SubBins: opts.SubBins, Range: opts.Range, PRange: opts.PRange}

	coarse, err := spec.CoarseEdges(x)
	if err != nil {
		return nil, fmt.Errorf("bin edges: %w", err)
	}

	lo, hi := coarse[0], coarse[len(coarse)-1]
	dset := selectRange(x, opts.Weights, lo, hi)

	stat := densityStat(binning.OverlapSpec{Edges: coarse, SubBins: opts.SubBins}, volume, opts.LgYPad)

	callOpts := []resample.Option{
		resample.WithN(opts.NBootstrap),
		resample.WithKeepSamples(opts.KeepSamples),
		resample.WithWorkers(max(opts.Workers, 1)),
		resample.WithRng(opts.Rng),
	}

	if opts.Logger != nil {
		callOpts = append(callOpts, resample.WithLogger(opts.Logger))
	}

	if opts.Tracer != nil {
		callOpts = append(callOpts, resample.WithTracer(opts.Tracer))
	}

	res, err := resample.Call(ctx, stat, []resample.Dataset{dset}, callOpts...)
	if err != nil {
		return nil, fmt.Errorf("bootstrap density: %w", err)
	}

	return buildResult(res, opts.KeepSamples)
}

func selectRange(x, weights []float64, lo, hi float64) resample.Dataset {
	sel := make([]float64, 0, len(x))

	var w []float64
	if weights != nil {
		w = make([]float64, 0, len(x))
	}

	for i, v := range x {
		if v >= lo && v < hi {
			sel = append(sel, v)

			if weights != nil {
				w = append(w, weights[i])
			}
		}
	}

	dset := resample.Dataset{keyValues: nd.FromSlice(sel)}
	if weights != nil {
		dset[keyWeights] = nd.FromSlice(w)
	}

	return dset
}

func densityStat(spec binning.OverlapSpec, volume, lgYPad float64) resample.StatFunc {
	return func(_ context.Context, dsets []resample.Dataset) (resample.Outputs, error) {
		d := dsets[0]

		var weights []float64
		if w, ok := d[keyWeights]; ok {
			weights = w.Data
		}

		hist, err := binning.OverlappedHist(d[keyValues].Data, weights, spec)
		if err != nil {
			return nil, err
		}

		y := make([]float64, len(hist.H))
		for i, h := range hist.H {
			y[i] = h / (volume * 2 * hist.DX[i])
		}

		lgY := mathutil.SafeLg(y, lgYPad)

		return resample.Outputs{
			KeyX:        nd.FromSlice(hist.X),
			KeyDX:       nd.FromSlice(hist.DX),
			KeySubEdges: nd.FromSlice(hist.SubEdges),
			KeyH:        nd.FromSlice(hist.H),
			KeyY:        nd.FromSlice(y),
			KeyLgY:      nd.FromSlice(lgY),
		}, nil
	}
}

func buildResult(res *resample.Result, keep bool) (*Result, error) {
	b := res.Baseline
	out := &Result{
		X:        b[KeyX].Data,
		DX:       b[KeyDX].Data,
		SubEdges: b[KeySubEdges].Data,
		H:        b[KeyH].Data,
		Y:        b[KeyY].Data,
		LgY:      b[KeyLgY].Data,
	}

	if len(res.SD) > 0 {
		out.HSD = res.SD[KeyH+resample.SDSuffix].Data
		out.YSD = res.SD[KeyY+resample.SDSuffix].Data
		out.LgYSD = res.SD[KeyLgY+resample.SDSuffix].Data
	}

	if keep && len(res.Samples) > 0 {
		out.Samples = make(map[string]*nd.Array, len(ResampledKeys))

		for _, key := range ResampledKeys {
			stacked, err := res.Stacked(key)
			if err != nil {
				return nil, err
			}

			out.Samples[key] = stacked
		}
	}

	return out, nil
}

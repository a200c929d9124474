// Package resample runs a statistic on the original datasets and on N
// resampled realizations of them, and reports the spread of each output.
package resample

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
	"github.com/Sumatoshi-tech/astrostat/pkg/summary"
)

const tracerName = "astrostat/resample"

// SDSuffix is appended to an output key to name its spread across resamples.
const SDSuffix = "_sd"

// DefaultN is the number of resamples when WithN is not given.
const DefaultN = 10

// Sentinel errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingOutput   = errors.New("statistic output missing")
)

// StatFunc computes named outputs from one realization of the datasets.
// It must not retain or modify its inputs.
type StatFunc func(ctx context.Context, dsets []Dataset) (Outputs, error)

// Result holds the baseline outputs computed on the original data and the
// per-output spread across resamples.
type Result struct {
	// Baseline is the statistic evaluated on the unresampled datasets.
	Baseline Outputs
	// Samples holds one Outputs per resample, in resample order. Only filled
	// when samples are kept.
	Samples []Outputs
	// SD maps "<key>_sd" to the population standard deviation of the output
	// across resamples. Empty when no resamples were drawn.
	SD Outputs
}

// Flatten merges Baseline and SD into one mapping.
func (r *Result) Flatten() Outputs {
	out := make(Outputs, len(r.Baseline)+len(r.SD))

	for key, arr := range r.Baseline {
		out[key] = arr
	}

	for key, arr := range r.SD {
		out[key] = arr
	}

	return out
}

// Stacked joins the kept samples of one output along a new leading axis.
func (r *Result) Stacked(key string) (*nd.Array, error) {
	if len(r.Samples) == 0 {
		return nil, fmt.Errorf("%w: no samples kept", ErrInvalidArgument)
	}

	arrays := make([]*nd.Array, len(r.Samples))

	for i, s := range r.Samples {
		arr, ok := s[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q in resample %d", ErrMissingOutput, key, i)
		}

		arrays[i] = arr
	}

	return nd.Stack(arrays)
}

type config struct {
	n           int
	rng         *rng.Rng
	keepSamples bool
	keys        []string
	workers     int
	resampler   Resampler
	logger      *slog.Logger
	tracer      trace.Tracer
}

// Option configures Call.
type Option func(*config)

// WithN sets the number of resamples.
func WithN(n int) Option {
	return func(c *config) { c.n = n }
}

// WithRng sets the base generator. Resample i draws from r.Derive(i).
func WithRng(r *rng.Rng) Option {
	return func(c *config) { c.rng = r }
}

// WithSeed is shorthand for WithRng(rng.New(seed)).
func WithSeed(seed uint64) Option {
	return func(c *config) { c.rng = rng.New(seed) }
}

// WithKeepSamples keeps every per-resample output in Result.Samples.
func WithKeepSamples(keep bool) Option {
	return func(c *config) { c.keepSamples = keep }
}

// WithKeys restricts the collected outputs to the given keys.
func WithKeys(keys ...string) Option {
	return func(c *config) { c.keys = keys }
}

// WithWorkers sets how many resamples run concurrently.
func WithWorkers(w int) Option {
	return func(c *config) { c.workers = w }
}

// WithResampler replaces the default Bootstrap resampler.
func WithResampler(r Resampler) Option {
	return func(c *config) { c.resampler = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithTracer sets the tracer used for the call span.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) { c.tracer = tracer }
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		n:         DefaultN,
		workers:   1,
		resampler: Bootstrap{},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.n < 0 {
		return nil, fmt.Errorf("%w: resample count %d < 0", ErrInvalidArgument, cfg.n)
	}

	if cfg.workers < 1 {
		return nil, fmt.Errorf("%w: workers %d < 1", ErrInvalidArgument, cfg.workers)
	}

	if cfg.resampler == nil {
		return nil, fmt.Errorf("%w: nil resampler", ErrInvalidArgument)
	}

	if cfg.rng == nil {
		cfg.rng = rng.Default()
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}

	return cfg, nil
}

// Call evaluates fn on dsets, then on N resampled realizations of dsets.
// The first evaluation always sees the original data. Results depend only on
// the base generator's seed and never on the worker count.
func Call(ctx context.Context, fn StatFunc, dsets []Dataset, opts ...Option) (*Result, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	if fn == nil {
		return nil, fmt.Errorf("%w: nil statistic", ErrInvalidArgument)
	}

	for i, d := range dsets {
		if _, err := d.Len(); err != nil {
			return nil, fmt.Errorf("dataset %d: %w", i, err)
		}
	}

	ctx, span := cfg.tracer.Start(ctx, "astrostat.resample",
		trace.WithAttributes(
			attribute.Int("resample.n", cfg.n),
			attribute.Int("resample.workers", cfg.workers),
			attribute.Int("resample.datasets", len(dsets)),
			attribute.String("resample.method", cfg.resampler.Name()),
		))
	defer span.End()

	start := time.Now()

	res, err := run(ctx, cfg, fn, dsets)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	cfg.logger.DebugContext(ctx, "resampled call finished",
		"n", cfg.n, "workers", cfg.workers, "method", cfg.resampler.Name(),
		"outputs", len(res.Baseline), "duration", time.Since(start))

	return res, nil
}

func run(ctx context.Context, cfg *config, fn StatFunc, dsets []Dataset) (*Result, error) {
	baseline, err := fn(ctx, dsets)
	if err != nil {
		return nil, fmt.Errorf("baseline call: %w", err)
	}

	baseline, err = baseline.pick(cfg.keys)
	if err != nil {
		return nil, fmt.Errorf("baseline call: %w", err)
	}

	samples := make([]Outputs, cfg.n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)

	for i := range cfg.n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := resampleOnce(gctx, cfg, fn, dsets, i)
			if err != nil {
				return fmt.Errorf("resample %d: %w", i, err)
			}

			samples[i] = out

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sd, err := spread(baseline, samples, cfg.logger)
	if err != nil {
		return nil, err
	}

	res := &Result{Baseline: baseline, SD: sd}
	if cfg.keepSamples {
		res.Samples = samples
	}

	return res, nil
}

func resampleOnce(ctx context.Context, cfg *config, fn StatFunc, dsets []Dataset, i int) (Outputs, error) {
	r := cfg.rng.Derive(uint64(i) + 1)
	drawn := make([]Dataset, len(dsets))

	for k, d := range dsets {
		rd, err := cfg.resampler.Resample(r, d)
		if err != nil {
			return nil, fmt.Errorf("dataset %d: %w", k, err)
		}

		drawn[k] = rd
	}

	out, err := fn(ctx, drawn)
	if err != nil {
		return nil, err
	}

	return out.pick(cfg.keys)
}

// spread computes the population standard deviation of every baseline output
// across the resamples.
func spread(baseline Outputs, samples []Outputs, logger *slog.Logger) (Outputs, error) {
	sd := make(Outputs, len(baseline))
	if len(samples) == 0 {
		return sd, nil
	}

	for _, key := range baseline.Keys() {
		arrays := make([]*nd.Array, len(samples))

		for i, s := range samples {
			arr, ok := s[key]
			if !ok {
				return nil, fmt.Errorf("%w: %q in resample %d", ErrMissingOutput, key, i)
			}

			arrays[i] = arr
		}

		stacked, err := nd.Stack(arrays)
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", key, err)
		}

		sum, err := summary.On(stacked, summary.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("output %q: %w", key, err)
		}

		sd[key+SDSuffix] = sum.SD
	}

	return sd, nil
}

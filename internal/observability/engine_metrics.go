package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRunsTotal       = "astrostat.runs.total"
	metricErrorsTotal     = "astrostat.errors.total"
	metricSamplesTotal    = "astrostat.samples.total"
	metricResamplesTotal  = "astrostat.resamples.total"
	metricCommandDuration = "astrostat.command.duration.seconds"

	attrCommand = "command"
)

// durationBucketBoundaries covers 1ms to 300s, from small summaries to
// large bootstrap runs.
var durationBucketBoundaries = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

// EngineMetrics holds OTel instruments for statistics runs.
type EngineMetrics struct {
	runsTotal       metric.Int64Counter
	errorsTotal     metric.Int64Counter
	samplesTotal    metric.Int64Counter
	resamplesTotal  metric.Int64Counter
	commandDuration metric.Float64Histogram
}

// RunStats describes one completed command.
type RunStats struct {
	Command   string
	Samples   int
	Resamples int
	Duration  time.Duration
	Err       error
}

// NewEngineMetrics creates the instruments from the given meter.
func NewEngineMetrics(mt metric.Meter) (*EngineMetrics, error) {
	in := instruments{meter: mt}

	em := &EngineMetrics{
		runsTotal:      in.counter(metricRunsTotal, "Total commands run", "{run}"),
		errorsTotal:    in.counter(metricErrorsTotal, "Total failed commands", "{error}"),
		samplesTotal:   in.counter(metricSamplesTotal, "Total input samples processed", "{sample}"),
		resamplesTotal: in.counter(metricResamplesTotal, "Total resampled statistic evaluations", "{resample}"),
		commandDuration: in.seconds(metricCommandDuration, "Command duration in seconds",
			durationBucketBoundaries),
	}

	err := errors.Join(in.errs...)
	if err != nil {
		return nil, err
	}

	return em, nil
}

// instruments creates instruments on one meter and collects every failure.
type instruments struct {
	meter metric.Meter
	errs  []error
}

func (in *instruments) counter(name, desc, unit string) metric.Int64Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	in.check(name, err)

	return c
}

func (in *instruments) seconds(name, desc string, bounds []float64) metric.Float64Histogram {
	h, err := in.meter.Float64Histogram(name,
		metric.WithDescription(desc),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(bounds...))
	in.check(name, err)

	return h
}

func (in *instruments) check(name string, err error) {
	if err != nil {
		in.errs = append(in.errs, fmt.Errorf("instrument %s: %w", name, err))
	}
}

// RecordRun records one command. Safe to call on a nil receiver (no-op).
func (em *EngineMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if em == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrCommand, stats.Command))

	em.runsTotal.Add(ctx, 1, attrs)
	em.samplesTotal.Add(ctx, int64(stats.Samples), attrs)
	em.resamplesTotal.Add(ctx, int64(stats.Resamples), attrs)
	em.commandDuration.Record(ctx, stats.Duration.Seconds(), attrs)

	if stats.Err != nil {
		em.errorsTotal.Add(ctx, 1, attrs)
	}
}

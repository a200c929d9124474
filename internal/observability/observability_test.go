package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/astrostat/internal/observability"
)

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}

	return nil
}

func counterTotal(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64] for %s", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestEngineMetrics_RecordRun(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	em, err := observability.NewEngineMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	em.RecordRun(ctx, observability.RunStats{Command: "density", Samples: 1000, Resamples: 10, Duration: time.Second})
	em.RecordRun(ctx, observability.RunStats{Command: "summary", Samples: 50, Duration: time.Millisecond, Err: errors.New("x")})

	rm := collectMetrics(t, reader)

	runs := findMetric(rm, "astrostat.runs.total")
	require.NotNil(t, runs)
	assert.Equal(t, int64(2), counterTotal(t, runs))

	samples := findMetric(rm, "astrostat.samples.total")
	require.NotNil(t, samples)
	assert.Equal(t, int64(1050), counterTotal(t, samples))

	resamples := findMetric(rm, "astrostat.resamples.total")
	require.NotNil(t, resamples)
	assert.Equal(t, int64(10), counterTotal(t, resamples))

	errs := findMetric(rm, "astrostat.errors.total")
	require.NotNil(t, errs)
	assert.Equal(t, int64(1), counterTotal(t, errs))

	dur := findMetric(rm, "astrostat.command.duration.seconds")
	require.NotNil(t, dur)

	hist, ok := dur.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	assert.Len(t, hist.DataPoints, 2, "one point per command attribute")
}

func TestEngineMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var em *observability.EngineMetrics

	assert.NotPanics(t, func() {
		em.RecordRun(context.Background(), observability.RunStats{Command: "x"})
	})
}

func TestTracingHandler_InjectsTraceContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(observability.NewTracingHandler(inner, "test-svc", observability.ModeCLI))

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	logger.WithGroup("g").InfoContext(ctx, "test message", "k", 1)

	var record map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "test-svc", record["service"])
	assert.Equal(t, "cli", record["mode"])

	group, ok := record["g"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", group["trace_id"])
	assert.Equal(t, "0102030405060708", group["span_id"])
}

func TestTracingHandler_NoSpan(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(observability.NewTracingHandler(slog.NewJSONHandler(&buf, nil), "svc", observability.ModeCLI))
	logger.Info("plain")

	assert.NotContains(t, buf.String(), "trace_id")
}

func TestInit_NoopByDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &buf
	cfg.LogJSON = true

	p, err := observability.Init(cfg)
	require.NoError(t, err)

	assert.NotNil(t, p.Tracer)
	assert.NotNil(t, p.Metrics)
	assert.Nil(t, p.MetricsHandler)

	p.Logger.Info("hello")
	assert.Contains(t, buf.String(), `"service":"astrostat"`)

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_Prometheus(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.LogOutput = &bytes.Buffer{}

	p, err := observability.Init(cfg)
	require.NoError(t, err)
	require.NotNil(t, p.MetricsHandler)

	p.Metrics.RecordRun(context.Background(), observability.RunStats{Command: "summary", Samples: 3})

	rec := httptest.NewRecorder()
	p.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "astrostat_runs")

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestPrometheusHandler_ServesMetrics(t *testing.T) {
	t.Parallel()

	handler, mp, err := observability.PrometheusHandler()
	require.NoError(t, err)
	require.NotNil(t, mp)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "target_info")
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		got, err := observability.ParseLogLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := observability.ParseLogLevel("trace")
	require.ErrorIs(t, err, observability.ErrUnknownLogLevel)
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, observability.ParseOTLPHeaders("a=1, b = 2"))
}

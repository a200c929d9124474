package resample

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/stats"
	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

func meanStat(_ context.Context, dsets []Dataset) (Outputs, error) {
	x := dsets[0]["x"]
	y := dsets[0]["y"]

	return Outputs{
		"mean_x": nd.Scalar(stats.Mean(x.Data)),
		"pair":   nd.MustNew([]float64{stats.Mean(x.Data), stats.Mean(y.Data)}, 2),
	}, nil
}

func sampleDataset(n int) Dataset {
	r := rng.New(42)
	x := r.Normal(5, 2, n)
	y := make([]float64, n)

	for i, v := range x {
		y[i] = 2 * v
	}

	return Dataset{"x": nd.FromSlice(x), "y": nd.FromSlice(y)}
}

func TestCall_BaselineAndSamples(t *testing.T) {
	t.Parallel()

	dsets := []Dataset{sampleDataset(200)}

	direct, err := meanStat(context.Background(), dsets)
	require.NoError(t, err)

	res, err := Call(context.Background(), meanStat, dsets, WithN(10), WithKeepSamples(true), WithSeed(7))
	require.NoError(t, err)

	assert.True(t, direct["mean_x"].Equal(res.Baseline["mean_x"]))
	assert.True(t, direct["pair"].Equal(res.Baseline["pair"]))
	require.Len(t, res.Samples, 10)

	distinct := 0

	for _, s := range res.Samples {
		require.Contains(t, s, "mean_x")

		if !s["mean_x"].Equal(direct["mean_x"]) {
			distinct++
		}
	}

	assert.Positive(t, distinct)

	require.Contains(t, res.SD, "mean_x"+SDSuffix)
	assert.True(t, res.SD["mean_x_sd"].IsScalar())
	assert.Equal(t, []int{2}, res.SD["pair_sd"].Shape)
	assert.Positive(t, res.SD["mean_x_sd"].Value())
}

func TestCall_RowsStayAligned(t *testing.T) {
	t.Parallel()

	check := func(_ context.Context, dsets []Dataset) (Outputs, error) {
		x, y := dsets[0]["x"], dsets[0]["y"]
		for i := range x.Data {
			if y.Data[i] != 2*x.Data[i] {
				return nil, errors.New("rows misaligned")
			}
		}

		return Outputs{"n": nd.Scalar(float64(x.Len()))}, nil
	}

	res, err := Call(context.Background(), check, []Dataset{sampleDataset(50)}, WithN(20))
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.SD["n_sd"].Value())
	assert.Nil(t, res.Samples)
}

func TestCall_WorkersDoNotChangeResult(t *testing.T) {
	t.Parallel()

	dsets := []Dataset{sampleDataset(300)}

	one, err := Call(context.Background(), meanStat, dsets, WithN(16), WithSeed(3), WithKeepSamples(true))
	require.NoError(t, err)

	four, err := Call(context.Background(), meanStat, dsets, WithN(16), WithSeed(3), WithKeepSamples(true), WithWorkers(4))
	require.NoError(t, err)

	for i := range one.Samples {
		assert.True(t, one.Samples[i]["pair"].Equal(four.Samples[i]["pair"]), "resample %d", i)
	}

	assert.True(t, one.SD["pair_sd"].Equal(four.SD["pair_sd"]))
}

func TestCall_SeedDeterminism(t *testing.T) {
	t.Parallel()

	dsets := []Dataset{sampleDataset(100)}

	a, err := Call(context.Background(), meanStat, dsets, WithRng(rng.New(9)))
	require.NoError(t, err)

	b, err := Call(context.Background(), meanStat, dsets, WithSeed(9))
	require.NoError(t, err)

	c, err := Call(context.Background(), meanStat, dsets, WithSeed(10))
	require.NoError(t, err)

	assert.True(t, a.SD["mean_x_sd"].Equal(b.SD["mean_x_sd"]))
	assert.False(t, a.SD["mean_x_sd"].Equal(c.SD["mean_x_sd"]))
}

func TestCall_FirstCallIsOriginal(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32

	orig := sampleDataset(30)
	fn := func(_ context.Context, dsets []Dataset) (Outputs, error) {
		if calls.Add(1) == 1 {
			assert.Same(t, orig["x"], dsets[0]["x"])
		}

		return Outputs{"v": nd.Scalar(1)}, nil
	}

	_, err := Call(context.Background(), fn, []Dataset{orig}, WithN(5), WithWorkers(2))
	require.NoError(t, err)
	assert.Equal(t, int32(6), calls.Load())
}

func TestCall_ZeroResamples(t *testing.T) {
	t.Parallel()

	res, err := Call(context.Background(), meanStat, []Dataset{sampleDataset(10)}, WithN(0), WithKeepSamples(true))
	require.NoError(t, err)

	assert.Empty(t, res.SD)
	assert.Empty(t, res.Samples)
	assert.Len(t, res.Flatten(), 2)
}

func TestCall_Keys(t *testing.T) {
	t.Parallel()

	res, err := Call(context.Background(), meanStat, []Dataset{sampleDataset(20)}, WithN(3), WithKeys("pair"))
	require.NoError(t, err)

	assert.Equal(t, []string{"pair"}, res.Baseline.Keys())
	assert.Equal(t, []string{"pair", "pair_sd"}, res.Flatten().Keys())

	_, err = Call(context.Background(), meanStat, []Dataset{sampleDataset(20)}, WithKeys("nope"))
	require.ErrorIs(t, err, ErrMissingOutput)
}

func TestCall_Errors(t *testing.T) {
	t.Parallel()

	mismatched := Dataset{"x": nd.Zeros(3), "y": nd.Zeros(4)}
	scalar := Dataset{"x": nd.Scalar(1)}
	failing := func(context.Context, []Dataset) (Outputs, error) { return nil, errors.New("boom") }

	tests := []struct {
		name  string
		fn    StatFunc
		dsets []Dataset
		opts  []Option
	}{
		{"length mismatch", meanStat, []Dataset{mismatched}, nil},
		{"scalar field", meanStat, []Dataset{scalar}, nil},
		{"negative n", meanStat, []Dataset{sampleDataset(3)}, []Option{WithN(-1)}},
		{"zero workers", meanStat, []Dataset{sampleDataset(3)}, []Option{WithWorkers(0)}},
		{"nil fn", nil, []Dataset{sampleDataset(3)}, nil},
		{"nil resampler", meanStat, []Dataset{sampleDataset(3)}, []Option{WithResampler(nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Call(context.Background(), tt.fn, tt.dsets, tt.opts...)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := Call(context.Background(), failing, []Dataset{sampleDataset(3)})
	require.EqualError(t, err, "baseline call: boom")
}

func TestCall_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fn := func(ctx context.Context, _ []Dataset) (Outputs, error) {
		return Outputs{"v": nd.Scalar(0)}, nil
	}

	_, err := Call(ctx, fn, []Dataset{sampleDataset(5)}, WithN(4))
	require.ErrorIs(t, err, context.Canceled)
}

func TestCall_RandomNoise(t *testing.T) {
	t.Parallel()

	d := Dataset{"x": nd.Full(1, 1000)}
	fn := func(_ context.Context, dsets []Dataset) (Outputs, error) {
		return Outputs{"mean": nd.Scalar(stats.Mean(dsets[0]["x"].Data))}, nil
	}

	res, err := Call(context.Background(), fn, []Dataset{d}, WithN(30), WithResampler(RandomNoise{Sigma: 1}))
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Baseline["mean"].Value())
	assert.InDelta(t, 1.0/31.6, res.SD["mean_sd"].Value(), 0.015)

	_, err = Call(context.Background(), fn, []Dataset{d}, WithResampler(RandomNoise{Sigma: -1}))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCall_Span(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(recorder))

	_, err := Call(context.Background(), meanStat, []Dataset{sampleDataset(10)},
		WithN(2), WithTracer(tp.Tracer("test")))
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "astrostat.resample", spans[0].Name())
}

func TestResult_Stacked(t *testing.T) {
	t.Parallel()

	res, err := Call(context.Background(), meanStat, []Dataset{sampleDataset(10)}, WithN(4), WithKeepSamples(true))
	require.NoError(t, err)

	stacked, err := res.Stacked("pair")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, stacked.Shape)

	_, err = res.Stacked("nope")
	require.ErrorIs(t, err, ErrMissingOutput)

	empty := &Result{}
	_, err = empty.Stacked("pair")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBootstrap_EmptyDataset(t *testing.T) {
	t.Parallel()

	out, err := Bootstrap{}.Resample(rng.New(1), Dataset{"x": nd.Zeros(0, 2)})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, out["x"].Shape)
}

package reduce

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = []float64{2, 4, 4, 4, 5, 5, 7, 9}

func TestReduce_Unweighted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		op       Op
		expected []float64
	}{
		{name: "count", op: Count(true), expected: []float64{8}},
		{name: "sum", op: Sum(false), expected: []float64{40}},
		{name: "mean", op: Mean(), expected: []float64{5}},
		{name: "std_dev", op: StdDev(), expected: []float64{2}},
		{name: "median", op: Median(), expected: []float64{4.5}},
		{name: "quantile", op: Quantile(0, 1), expected: []float64{2, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.op.Reduce(sample, nil)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.expected, got, 1e-12)
			assert.Len(t, got, tt.op.Width())
		})
	}
}

func TestReduce_EqualWeightsMatchUnweighted(t *testing.T) {
	t.Parallel()

	weights := []float64{3, 3, 3, 3, 3, 3, 3, 3}

	for _, op := range []Op{Mean(), StdDev(), Sum(true)} {
		got, err := op.Reduce(sample, weights)
		require.NoError(t, err)

		want, err := op.Reduce(sample, nil)
		require.NoError(t, err)

		if op.Kind() == KindSum {
			assert.InDelta(t, want[0]/8, got[0], 1e-12)

			continue
		}

		assert.InDelta(t, want[0], got[0], 1e-12, op.Name())
	}
}

func TestReduce_WeightedCount(t *testing.T) {
	t.Parallel()

	weights := []float64{1, 1, 1, 1, 1, 1, 1, 0.5}

	got, err := Count(false).Reduce(sample, weights)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, got[0], 1e-12)

	got, err = Count(true).Reduce(sample, weights)
	require.NoError(t, err)
	assert.InDelta(t, 8.0, got[0], 1e-12)
}

func TestReduce_WeightedStdDevIsRootOfVariance(t *testing.T) {
	t.Parallel()

	x := []float64{0, 10}
	weights := []float64{1, 1}

	got, err := StdDev().Reduce(x, weights)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, got[0], 1e-12)
}

func TestWeightedQuantiles(t *testing.T) {
	t.Parallel()

	x := []float64{3, 1, 2}
	weights := []float64{1, 1, 2}

	// Sorted: x = 1, 2, 3 with cdf = 0.25, 0.75, 1.0.
	got := WeightedQuantiles(x, weights, []float64{0.1, 0.25, 0.5, 0.875, 1})
	assert.InDeltaSlice(t, []float64{1, 1, 1.5, 2.5, 3}, got, 1e-12)

	empty := WeightedQuantiles(nil, nil, []float64{0.5})
	assert.True(t, math.IsNaN(empty[0]))
}

func TestErrorbar(t *testing.T) {
	t.Parallel()

	op, err := Errorbar(ErrorbarMeanSD)
	require.NoError(t, err)

	got, err := op.Reduce(sample, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{5, 2, 2}, got, 1e-12)

	op, err = Errorbar("median+1sigma")
	require.NoError(t, err)

	got, err = op.Reduce(sample, nil)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, got[0], 1e-12)
	assert.GreaterOrEqual(t, got[1], 0.0)
	assert.GreaterOrEqual(t, got[2], 0.0)

	_, err = Errorbar("bogus")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestReduce_WeightLengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := Mean().Reduce([]float64{1, 2}, []float64{1})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		kind Kind
	}{
		{key: "count", kind: KindCount},
		{key: "cnt", kind: KindCount},
		{key: "sum", kind: KindSum},
		{key: "mean", kind: KindMean},
		{key: "std", kind: KindStdDev},
		{key: "sd", kind: KindStdDev},
		{key: "std_dev", kind: KindStdDev},
		{key: "median", kind: KindMedian},
		{key: "qs", kind: KindQuantile},
		{key: "quantile", kind: KindQuantile},
		{key: "errorbar", kind: KindErrorbar},
	}

	for _, tt := range tests {
		r, err := Parse(tt.key)
		require.NoError(t, err, tt.key)
		assert.Equal(t, tt.kind, r.Kind(), tt.key)
	}

	_, err := Parse("mode")
	require.ErrorIs(t, err, ErrUnknownReduce)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = ParseAll([]string{"mean", "nope"})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNamedPS(t *testing.T) {
	t.Parallel()

	ps, err := NamedPS("2sigma")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.025, 0.975}, ps)

	ps[0] = 0
	assert.InDelta(t, 0.025, PS2Sigma[0], 0)

	_, err = NamedPS("4sigma")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

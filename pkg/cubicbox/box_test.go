package cubicbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(0)
	require.ErrorIs(t, err, ErrInvalidArgument)

	b, err := New(10)
	require.NoError(t, err)
	assert.Equal(t, 10.0, b.LBox)
}

func TestShiftIn(t *testing.T) {
	t.Parallel()

	b := &PeriodicBox{LBox: 10}

	tests := []struct {
		in, want float64
	}{
		{3, 3},
		{-1, 9},
		{10, 0},
		{12.5, 2.5},
		{-25, 5},
		{0, 0},
	}

	for _, tt := range tests {
		got := b.ShiftIn([]float64{tt.in})
		assert.InDelta(t, tt.want, got[0], 1e-12, "in=%v", tt.in)
	}
}

func TestShiftIn_Range(t *testing.T) {
	t.Parallel()

	b := &PeriodicBox{LBox: 7.5}
	x := rng.New(1).Uniform(-30, 30, 2000)
	x = append(x, -1e-17, 7.5, -7.5)

	orig := append([]float64(nil), x...)
	out := b.ShiftIn(x)

	assert.Equal(t, orig, x, "ShiftIn copies")

	for _, v := range out {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 7.5)
	}
}

func TestShiftTo(t *testing.T) {
	t.Parallel()

	b := &PeriodicBox{LBox: 10}

	out, err := b.ShiftTo([]float64{9, 1, 5, 4.999}, []float64{0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1, 1, -5, 4.999}, out, 1e-12)

	out, err = b.ShiftTo([]float64{1, 9}, []float64{9, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{11, -1}, out, 1e-12)

	_, err = b.ShiftTo([]float64{1, 2, 3}, []float64{1, 2})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestIShiftTo_HalfOpen(t *testing.T) {
	t.Parallel()

	b := &PeriodicBox{LBox: 4}
	x := rng.New(2).Uniform(-20, 20, 500)
	ref := rng.New(3).Uniform(0, 4, 500)

	require.NoError(t, b.IShiftTo(x, ref))

	for i := range x {
		dx := x[i] - ref[i]
		assert.GreaterOrEqual(t, dx, -2.0-1e-12)
		assert.LessOrEqual(t, dx, 2.0)
	}
}

func TestSeparation(t *testing.T) {
	t.Parallel()

	b := &PeriodicBox{LBox: 10}
	assert.InDelta(t, 2.0, b.Separation(1, 9), 1e-12)
	assert.InDelta(t, -2.0, b.Separation(9, 1), 1e-12)
	assert.InDelta(t, -5.0, b.Separation(5, 0), 1e-12)
}

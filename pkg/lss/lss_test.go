package lss

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/Sumatoshi-tech/astrostat/pkg/binning"
	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

func TestFromRaw_Defaults(t *testing.T) {
	t.Parallel()

	x := rng.New(1).Normal(10, 1, 5000)
	opts := DefaultOptions()
	opts.Rng = rng.New(2)

	res, err := BinnedVolumeDensity{}.FromRaw(context.Background(), x, 100, opts)
	require.NoError(t, err)

	nOut := DefaultBins*DefaultSubBins - DefaultSubBins + 1
	assert.Len(t, res.X, nOut)
	assert.Len(t, res.DX, nOut)
	assert.Len(t, res.SubEdges, DefaultBins*DefaultSubBins+1)
	assert.Len(t, res.HSD, nOut)
	assert.Len(t, res.LgYSD, nOut)
	assert.Nil(t, res.Samples)

	for i := range res.H {
		assert.InDelta(t, res.H[i]/(100*2*res.DX[i]), res.Y[i], 1e-12)
		assert.InDelta(t, math.Log10(math.Max(res.Y[i], DefaultLgYPad)), res.LgY[i], 1e-12)
		assert.GreaterOrEqual(t, res.HSD[i], 0.0)
	}
}

func TestFromRaw_CountsMatchHistogram(t *testing.T) {
	t.Parallel()

	x := []float64{0.1, 0.2, 0.4, 0.45, 0.7, 0.9, 1.5, -1}
	opts := DefaultOptions()
	opts.Bins = 2
	opts.SubBins = 1
	opts.Range = &binning.Range{Lo: 0, Hi: 1}
	opts.NBootstrap = 0

	res, err := BinnedVolumeDensity{}.FromRaw(context.Background(), x, 2, opts)
	require.NoError(t, err)

	assert.Equal(t, []float64{4, 2}, res.H)
	assert.InDeltaSlice(t, []float64{4, 2}, res.Y, 1e-12)
	assert.Nil(t, res.HSD)
}

func TestFromRaw_Weighted(t *testing.T) {
	t.Parallel()

	x := []float64{0.1, 0.6, 0.7}
	w := []float64{2, 0.5, 0.5}
	opts := DefaultOptions()
	opts.Bins = 2
	opts.SubBins = 1
	opts.Range = &binning.Range{Lo: 0, Hi: 1}
	opts.Weights = w
	opts.NBootstrap = 4

	res, err := BinnedVolumeDensity{}.FromRaw(context.Background(), x, 1, opts)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2, 1}, res.H, 1e-12)
}

func TestFromRaw_KeepSamples(t *testing.T) {
	t.Parallel()

	x := rng.New(3).Uniform(0, 1, 400)
	opts := DefaultOptions()
	opts.Bins = 4
	opts.SubBins = 2
	opts.NBootstrap = 6
	opts.KeepSamples = true
	opts.Workers = 3

	res, err := BinnedVolumeDensity{}.FromRaw(context.Background(), x, 1, opts)
	require.NoError(t, err)

	for _, key := range ResampledKeys {
		require.Contains(t, res.Samples, key)
		assert.Equal(t, []int{6, 7}, res.Samples[key].Shape)
	}

	// Disjoint windows 0, 2, 4, 6 cover every sub-bin once; the data maximum
	// sits on the open upper edge.
	disjoint := []float64{res.H[0], res.H[2], res.H[4], res.H[6]}
	assert.InDelta(t, 399.0, floats.Sum(disjoint), 1e-9)

	out := res.Outputs()
	assert.Contains(t, out, "lg_y_sd")
	assert.Contains(t, out, "sub_e")
}

func TestFromRaw_Errors(t *testing.T) {
	t.Parallel()

	x := []float64{1, 2, 3}

	_, err := BinnedVolumeDensity{}.FromRaw(context.Background(), x, 0, DefaultOptions())
	require.ErrorIs(t, err, ErrInvalidArgument)

	opts := DefaultOptions()
	opts.Weights = []float64{1}
	_, err = BinnedVolumeDensity{}.FromRaw(context.Background(), x, 1, opts)
	require.ErrorIs(t, err, ErrInvalidArgument)

	opts = DefaultOptions()
	opts.Bins = -1
	_, err = BinnedVolumeDensity{}.FromRaw(context.Background(), x, 1, opts)
	require.ErrorIs(t, err, binning.ErrNegativeBins)
}

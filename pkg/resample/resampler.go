package resample

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/mapx"
	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

// Resampler draws one realization of a dataset.
type Resampler interface {
	Resample(r *rng.Rng, d Dataset) (Dataset, error)
	Name() string
}

// Bootstrap draws samples with replacement. One index set is drawn per
// dataset and applied to all of its fields, so rows stay aligned.
type Bootstrap struct{}

// Name implements Resampler.
func (Bootstrap) Name() string { return "bootstrap" }

// Resample implements Resampler.
func (Bootstrap) Resample(r *rng.Rng, d Dataset) (Dataset, error) {
	n, err := d.Len()
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return d.Take(nil)
	}

	idx, err := r.Choice(n, n, true, nil)
	if err != nil {
		return nil, fmt.Errorf("bootstrap draw: %w", err)
	}

	return d.Take(idx)
}

// RandomNoise perturbs every element with independent Gaussian noise of
// standard deviation Sigma.
type RandomNoise struct {
	Sigma float64
}

// Name implements Resampler.
func (RandomNoise) Name() string { return "random_noise" }

// Resample implements Resampler. Fields are visited in key order so the draw
// is reproducible.
func (rn RandomNoise) Resample(r *rng.Rng, d Dataset) (Dataset, error) {
	if rn.Sigma < 0 {
		return nil, fmt.Errorf("%w: noise sigma %g < 0", ErrInvalidArgument, rn.Sigma)
	}

	if _, err := d.Len(); err != nil {
		return nil, err
	}

	out := make(Dataset, len(d))

	for _, key := range mapx.SortedKeys(d) {
		arr := d[key]
		noise := r.Normal(0, rn.Sigma, len(arr.Data))

		perturbed := &nd.Array{Shape: slices.Clone(arr.Shape), Data: noise}
		for i, v := range arr.Data {
			perturbed.Data[i] += v
		}

		out[key] = perturbed
	}

	return out, nil
}

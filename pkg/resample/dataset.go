package resample

import (
	"fmt"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/mapx"
	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
)

// Dataset is a named group of arrays sharing the sample axis.
type Dataset map[string]*nd.Array

// Outputs is the named collection returned by a statistic.
type Outputs map[string]*nd.Array

// Len returns the shared sample-axis length of the dataset's fields.
// Scalars and mismatched lengths are rejected. An empty dataset has length 0.
func (d Dataset) Len() (int, error) {
	n := -1

	for _, key := range mapx.SortedKeys(d) {
		arr := d[key]
		if arr == nil || arr.IsScalar() {
			return 0, fmt.Errorf("%w: field %q has no sample axis", ErrInvalidArgument, key)
		}

		if n >= 0 && arr.Len() != n {
			return 0, fmt.Errorf("%w: field %q has %d samples, want %d", ErrInvalidArgument, key, arr.Len(), n)
		}

		n = arr.Len()
	}

	return max(n, 0), nil
}

// Take gathers the same sample indices from every field.
func (d Dataset) Take(indices []int) (Dataset, error) {
	out := make(Dataset, len(d))

	for key, arr := range d {
		taken, err := arr.Take(indices)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}

		out[key] = taken
	}

	return out, nil
}

// Keys returns the output names in sorted order.
func (o Outputs) Keys() []string {
	return mapx.SortedKeys(o)
}

func (o Outputs) pick(keys []string) (Outputs, error) {
	if len(keys) == 0 {
		return o, nil
	}

	out := make(Outputs, len(keys))

	for _, key := range keys {
		arr, ok := o[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingOutput, key)
		}

		out[key] = arr
	}

	return out, nil
}

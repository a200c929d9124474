package binning

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// BinnedData accumulates counts or weighted sums into a fixed number of bins.
// It is not safe for concurrent use.
type BinnedData struct {
	data []float64
}

// NewBinnedData returns a zeroed accumulator with n bins.
func NewBinnedData(n int) (*BinnedData, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidArgument, ErrNegativeBins, n)
	}

	return &BinnedData{data: make([]float64, n)}, nil
}

// NBins returns the number of bins.
func (b *BinnedData) NBins() int {
	return len(b.data)
}

// CountChecked adds one to the bin of every valid index. Repeated indices are
// each counted.
func (b *BinnedData) CountChecked(idx []int) {
	for i, ok := range ValidMask(idx, len(b.data)) {
		if ok {
			b.data[idx[i]]++
		}
	}
}

// AddChecked adds values[i] to the bin of every valid idx[i]. Lengths are
// checked before any bin is touched.
func (b *BinnedData) AddChecked(idx []int, values []float64) error {
	if len(idx) != len(values) {
		return fmt.Errorf("%w: %w: %d indices, %d values", ErrInvalidArgument, ErrLengthMismatch, len(idx), len(values))
	}

	for i, ok := range ValidMask(idx, len(b.data)) {
		if ok {
			b.data[idx[i]] += values[i]
		}
	}

	return nil
}

// CountUnchecked is CountChecked for indices known to be in range.
// An out-of-range index panics.
func (b *BinnedData) CountUnchecked(idx []int) {
	for _, j := range idx {
		b.data[j]++
	}
}

// AddUnchecked is AddChecked for indices known to be in range and slices of
// equal length. Violations panic.
func (b *BinnedData) AddUnchecked(idx []int, values []float64) {
	for i, j := range idx {
		b.data[j] += values[i]
	}
}

// Total returns the accumulated data. The slice aliases the accumulator and
// must not be modified; use Snapshot for a copy.
func (b *BinnedData) Total() []float64 {
	return b.data
}

// Snapshot returns a copy of the accumulated data.
func (b *BinnedData) Snapshot() []float64 {
	return slices.Clone(b.data)
}

// Sum returns the sum over all bins.
func (b *BinnedData) Sum() float64 {
	return floats.Sum(b.data)
}

// Reset zeroes every bin.
func (b *BinnedData) Reset() {
	clear(b.data)
}

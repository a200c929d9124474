package binning

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Bins maps values to half-open bins [edges[i], edges[i+1]).
type Bins interface {
	// NBins returns the number of bins.
	NBins() int
	// Edges returns a copy of the NBins()+1 bin edges.
	Edges() []float64
	// Locate returns the bin of x. Values below the first edge (and NaN)
	// map to -1; values at or above the last edge map to NBins().
	Locate(x float64) int
}

// EqualSpaceBins are n bins of equal width spanning [lo, hi).
type EqualSpaceBins struct {
	edges []float64
	lo    float64
	width float64
}

// NewEqualSpaceBins returns n equal bins over [lo, hi).
func NewEqualSpaceBins(lo, hi float64, n int) (*EqualSpaceBins, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidArgument, ErrNegativeBins, n)
	}

	if !(lo < hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return nil, fmt.Errorf("%w: %w: [%v, %v)", ErrInvalidArgument, ErrEmptyRange, lo, hi)
	}

	edges := []float64{lo}
	width := hi - lo

	if n > 0 {
		edges = floats.Span(make([]float64, n+1), lo, hi)
		edges[n] = hi
		width = (hi - lo) / float64(n)
	}

	return &EqualSpaceBins{edges: edges, lo: lo, width: width}, nil
}

// NBins implements Bins.
func (b *EqualSpaceBins) NBins() int { return len(b.edges) - 1 }

// Edges implements Bins.
func (b *EqualSpaceBins) Edges() []float64 { return slices.Clone(b.edges) }

// Locate implements Bins in O(1), correcting the arithmetic guess against the
// stored edges so that it agrees with BiSearchBins on the same edges.
func (b *EqualSpaceBins) Locate(x float64) int {
	n := b.NBins()
	if math.IsNaN(x) || x < b.edges[0] {
		return -1
	}

	if x >= b.edges[n] {
		return n
	}

	idx := min(max(int((x-b.lo)/b.width), 0), n-1)

	for idx > 0 && x < b.edges[idx] {
		idx--
	}

	for idx < n-1 && x >= b.edges[idx+1] {
		idx++
	}

	return idx
}

// BiSearchBins are bins with arbitrary strictly increasing edges, located by
// binary search.
type BiSearchBins struct {
	edges []float64
}

// NewBiSearchBins validates edges and returns the bins they define.
func NewBiSearchBins(edges []float64) (*BiSearchBins, error) {
	err := ValidateEdges(edges)
	if err != nil {
		return nil, err
	}

	return &BiSearchBins{edges: slices.Clone(edges)}, nil
}

// NBins implements Bins.
func (b *BiSearchBins) NBins() int { return len(b.edges) - 1 }

// Edges implements Bins.
func (b *BiSearchBins) Edges() []float64 { return slices.Clone(b.edges) }

// Locate implements Bins in O(log n).
func (b *BiSearchBins) Locate(x float64) int {
	if math.IsNaN(x) {
		return -1
	}

	return sort.SearchFloat64s(b.edges, math.Nextafter(x, math.Inf(1))) - 1
}

// ValidateEdges checks that edges is non-empty, finite and strictly increasing.
func ValidateEdges(edges []float64) error {
	if len(edges) == 0 {
		return fmt.Errorf("%w: %w: no edges", ErrInvalidArgument, ErrEdgesOrder)
	}

	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return fmt.Errorf("%w: %w: edge %d is %v", ErrInvalidArgument, ErrEdgesOrder, i, e)
		}

		if i > 0 && !(edges[i-1] < e) {
			return fmt.Errorf("%w: %w: edges[%d]=%v, edges[%d]=%v", ErrInvalidArgument, ErrEdgesOrder, i-1, edges[i-1], i, e)
		}
	}

	return nil
}

// LocateAll returns the bin of every value.
func LocateAll(b Bins, xs []float64) []int {
	out := make([]int, len(xs))

	for i, x := range xs {
		out[i] = b.Locate(x)
	}

	return out
}

// Centers returns the midpoints of consecutive edges.
func Centers(edges []float64) []float64 {
	if len(edges) < 2 {
		return []float64{}
	}

	out := make([]float64, len(edges)-1)

	for i := range out {
		out[i] = 0.5 * (edges[i] + edges[i+1])
	}

	return out
}

// Widths returns the differences of consecutive edges.
func Widths(edges []float64) []float64 {
	if len(edges) < 2 {
		return []float64{}
	}

	out := make([]float64, len(edges)-1)

	for i := range out {
		out[i] = edges[i+1] - edges[i]
	}

	return out
}

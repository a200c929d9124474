package binning

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/stats"
)

// Range is a closed-open value interval [Lo, Hi).
type Range struct {
	Lo float64 `json:"lo" yaml:"lo" mapstructure:"lo"`
	Hi float64 `json:"hi" yaml:"hi" mapstructure:"hi"`
}

// FullPRange selects the data minimum and maximum.
var FullPRange = Range{Lo: 0, Hi: 1}

// ParsePRange returns rng when given; otherwise the range spanned by the
// prange percentiles of x (FullPRange when prange is nil). Percentile ranges
// end at a data value, which the half-open convention then excludes.
func ParsePRange(x []float64, rng, prange *Range) (Range, error) {
	if rng != nil {
		if !(rng.Lo < rng.Hi) {
			return Range{}, fmt.Errorf("%w: %w: [%v, %v)", ErrInvalidArgument, ErrEmptyRange, rng.Lo, rng.Hi)
		}

		return *rng, nil
	}

	p := FullPRange
	if prange != nil {
		p = *prange
	}

	if p.Lo < 0 || p.Hi > 1 || !(p.Lo < p.Hi) {
		return Range{}, fmt.Errorf("%w: percentile range [%v, %v]", ErrInvalidArgument, p.Lo, p.Hi)
	}

	finite := make([]float64, 0, len(x))

	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}

	if len(finite) == 0 {
		return Range{}, fmt.Errorf("%w: %w: no finite samples", ErrInvalidArgument, ErrEmptyRange)
	}

	slices.Sort(finite)
	out := Range{Lo: stats.PercentileSorted(finite, p.Lo), Hi: stats.PercentileSorted(finite, p.Hi)}

	if !(out.Lo < out.Hi) {
		return Range{}, fmt.Errorf("%w: %w: percentiles give [%v, %v)", ErrInvalidArgument, ErrEmptyRange, out.Lo, out.Hi)
	}

	return out, nil
}

// OverlapSpec configures OverlappedHist. Exactly one of N or Edges selects the
// coarse bins; with N, the range comes from Range or PRange.
type OverlapSpec struct {
	N       int
	Edges   []float64
	SubBins int
	Range   *Range
	PRange  *Range
}

// CoarseEdges resolves the coarse bin edges of the spec against the data x.
func (s OverlapSpec) CoarseEdges(x []float64) ([]float64, error) {
	if s.Edges != nil {
		err := ValidateEdges(s.Edges)
		if err != nil {
			return nil, err
		}

		return slices.Clone(s.Edges), nil
	}

	if s.N < 0 {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidArgument, ErrNegativeBins, s.N)
	}

	rng, err := ParsePRange(x, s.Range, s.PRange)
	if err != nil {
		return nil, err
	}

	bins, err := NewEqualSpaceBins(rng.Lo, rng.Hi, s.N)
	if err != nil {
		return nil, err
	}

	return bins.Edges(), nil
}

// SubEdges splits every interval of coarse into subBins equal parts. Every
// coarse edge is copied into the result unchanged.
func SubEdges(coarse []float64, subBins int) ([]float64, error) {
	if subBins < 1 {
		return nil, fmt.Errorf("%w: %w: %d", ErrInvalidArgument, ErrSubBins, subBins)
	}

	err := ValidateEdges(coarse)
	if err != nil {
		return nil, err
	}

	out := make([]float64, 0, (len(coarse)-1)*subBins+1)
	out = append(out, coarse[0])
	part := make([]float64, subBins+1)

	for i := range len(coarse) - 1 {
		floats.Span(part, coarse[i], coarse[i+1])
		out = append(out, part[1:subBins]...)
		out = append(out, coarse[i+1])
	}

	return out, nil
}

// OverlapHist is the result of OverlappedHist. Output bin k sums sub-bins
// k..k+SubBins-1, so neighbouring output bins share SubBins-1 sub-bins.
type OverlapHist struct {
	// X are the output bin centers.
	X []float64 `json:"x"`
	// DX are the output bin half-widths.
	DX []float64 `json:"dx"`
	// SubEdges are the sub-bin edges.
	SubEdges []float64 `json:"sub_e"`
	// H are the per-output-bin counts or weighted sums.
	H []float64 `json:"h"`
	// SubH are the per-sub-bin counts or weighted sums.
	SubH []float64 `json:"sub_h"`
	// SubBins is the window length in sub-bins.
	SubBins int `json:"sub_bins"`
}

// NBins returns the number of output bins.
func (h *OverlapHist) NBins() int {
	return len(h.H)
}

// Range returns the interval covered by the sub-edges.
func (h *OverlapHist) Range() Range {
	if len(h.SubEdges) == 0 {
		return Range{}
	}

	return Range{Lo: h.SubEdges[0], Hi: h.SubEdges[len(h.SubEdges)-1]}
}

// Multiplicity returns, per sub-bin, how many output windows contain it.
func (h *OverlapHist) Multiplicity() []int {
	out := make([]int, len(h.SubH))
	nOut := len(h.H)

	for j := range out {
		lo := max(0, j-h.SubBins+1)
		hi := min(j, nOut-1)
		out[j] = max(0, hi-lo+1)
	}

	return out
}

// OverlappedHist bins x (optionally weighted) into sub-bins and sums sliding
// windows of spec.SubBins sub-bins. Samples outside [lo, hi) of the resolved
// edges are excluded. With n coarse bins and s sub-bins there are n·s−s+1
// output bins.
func OverlappedHist(x, weights []float64, spec OverlapSpec) (*OverlapHist, error) {
	if weights != nil && len(weights) != len(x) {
		return nil, fmt.Errorf("%w: %w: %d weights for %d samples", ErrInvalidArgument, ErrLengthMismatch, len(weights), len(x))
	}

	coarse, err := spec.CoarseEdges(x)
	if err != nil {
		return nil, err
	}

	subEdges, err := SubEdges(coarse, spec.SubBins)
	if err != nil {
		return nil, err
	}

	subBins, err := NewBiSearchBins(subEdges)
	if err != nil {
		return nil, err
	}

	acc, err := NewBinnedData(subBins.NBins())
	if err != nil {
		return nil, err
	}

	idx := LocateAll(subBins, x)

	if weights == nil {
		acc.CountChecked(idx)
	} else {
		err = acc.AddChecked(idx, weights)
		if err != nil {
			return nil, err
		}
	}

	return windowed(acc.Snapshot(), subEdges, spec.SubBins), nil
}

func windowed(subH, subEdges []float64, s int) *OverlapHist {
	nOut := max(len(subH)-s+1, 0)
	out := &OverlapHist{
		X:        make([]float64, nOut),
		DX:       make([]float64, nOut),
		SubEdges: subEdges,
		H:        make([]float64, nOut),
		SubH:     subH,
		SubBins:  s,
	}

	for k := range nOut {
		out.H[k] = floats.Sum(subH[k : k+s])
		out.X[k] = 0.5 * (subEdges[k] + subEdges[k+s])
		out.DX[k] = 0.5 * (subEdges[k+s] - subEdges[k])
	}

	return out
}

// Hist is a plain disjoint histogram.
type Hist struct {
	X       []float64 `json:"x"`
	DX      []float64 `json:"dx"`
	Edges   []float64 `json:"edges"`
	H       []float64 `json:"h"`
	Density []float64 `json:"density"`
}

// Hist1D bins x (optionally weighted) into bins. Density is H normalized so
// that it integrates to one over the bins; it is all zero when nothing fell
// inside.
func Hist1D(x, weights []float64, bins Bins) (*Hist, error) {
	if weights != nil && len(weights) != len(x) {
		return nil, fmt.Errorf("%w: %w: %d weights for %d samples", ErrInvalidArgument, ErrLengthMismatch, len(weights), len(x))
	}

	acc, err := NewBinnedData(bins.NBins())
	if err != nil {
		return nil, err
	}

	idx := LocateAll(bins, x)

	if weights == nil {
		acc.CountChecked(idx)
	} else {
		err = acc.AddChecked(idx, weights)
		if err != nil {
			return nil, err
		}
	}

	edges := bins.Edges()
	widths := Widths(edges)
	h := acc.Snapshot()
	density := make([]float64, len(h))

	total := floats.Sum(h)
	if total != 0 {
		for i := range density {
			density[i] = h[i] / (total * widths[i])
		}
	}

	dx := slices.Clone(widths)
	floats.Scale(0.5, dx)

	return &Hist{X: Centers(edges), DX: dx, Edges: edges, H: h, Density: density}, nil
}

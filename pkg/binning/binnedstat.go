package binning

import (
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/astrostat/pkg/reduce"
)

// BinnedStatResult holds one reduction per bin.
type BinnedStatResult struct {
	X      []float64   `json:"x"`
	Edges  []float64   `json:"edges"`
	Counts []int       `json:"counts"`
	Values [][]float64 `json:"values"`
	Name   string      `json:"reduce"`
}

// BinnedStat groups y (and weights, when non-nil) by the bin of x and applies
// r to every group. Empty bins report NaN values.
func BinnedStat(x, y, weights []float64, bins Bins, r reduce.Reducer) (*BinnedStatResult, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %w: %d x values, %d y values", ErrInvalidArgument, ErrLengthMismatch, len(x), len(y))
	}

	if weights != nil && len(weights) != len(x) {
		return nil, fmt.Errorf("%w: %w: %d weights for %d samples", ErrInvalidArgument, ErrLengthMismatch, len(weights), len(x))
	}

	n := bins.NBins()
	groups := make([][]float64, n)

	var wgroups [][]float64
	if weights != nil {
		wgroups = make([][]float64, n)
	}

	for i, idx := range LocateAll(bins, x) {
		if !IsValid(idx, n) {
			continue
		}

		groups[idx] = append(groups[idx], y[i])

		if weights != nil {
			wgroups[idx] = append(wgroups[idx], weights[i])
		}
	}

	edges := bins.Edges()
	out := &BinnedStatResult{
		X:      Centers(edges),
		Edges:  edges,
		Counts: make([]int, n),
		Values: make([][]float64, n),
		Name:   r.Name(),
	}

	for k, group := range groups {
		out.Counts[k] = len(group)

		if len(group) == 0 && !additive(r.Kind()) {
			out.Values[k] = nanVector(r.Width())

			continue
		}

		var w []float64
		if weights != nil && len(group) > 0 {
			w = wgroups[k]
		}

		vals, err := r.Reduce(group, w)
		if err != nil {
			return nil, fmt.Errorf("bin %d: %w", k, err)
		}

		out.Values[k] = vals
	}

	return out, nil
}

// additive reductions have a well-defined value on an empty group.
func additive(kind reduce.Kind) bool {
	return kind == reduce.KindCount || kind == reduce.KindSum
}

func nanVector(n int) []float64 {
	out := make([]float64, n)

	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// Package cubicbox handles coordinates in a periodic cubic simulation box.
package cubicbox

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidArgument is returned for non-positive box sizes and mismatched inputs.
var ErrInvalidArgument = errors.New("invalid argument")

// PeriodicBox is a cube of side LBox with periodic boundaries on every axis.
type PeriodicBox struct {
	LBox float64 `json:"l_box" yaml:"l_box"`
}

// New returns a box of side lBox.
func New(lBox float64) (*PeriodicBox, error) {
	if !(lBox > 0) || math.IsInf(lBox, 0) {
		return nil, fmt.Errorf("%w: box size %v", ErrInvalidArgument, lBox)
	}

	return &PeriodicBox{LBox: lBox}, nil
}

// IShiftIn wraps every coordinate into [0, LBox) in place. Coordinates may
// lie any number of periods away.
func (b *PeriodicBox) IShiftIn(x []float64) {
	for i, v := range x {
		v = math.Mod(v, b.LBox)
		if v < 0 {
			v += b.LBox
		}

		// Tiny negatives round up to LBox after the shift.
		if v >= b.LBox {
			v = 0
		}

		x[i] = v
	}
}

// ShiftIn returns a copy of x wrapped into [0, LBox).
func (b *PeriodicBox) ShiftIn(x []float64) []float64 {
	out := slices.Clone(x)
	b.IShiftIn(out)

	return out
}

// IShiftTo moves every x[i] to its periodic image nearest ref[i], so that
// x[i]-ref[i] lies in [-LBox/2, LBox/2). A single ref applies to all of x.
func (b *PeriodicBox) IShiftTo(x, ref []float64) error {
	if len(ref) != 1 && len(ref) != len(x) {
		return fmt.Errorf("%w: %d reference values for %d coordinates", ErrInvalidArgument, len(ref), len(x))
	}

	half := 0.5 * b.LBox

	for i, v := range x {
		r := ref[0]
		if len(ref) > 1 {
			r = ref[i]
		}

		dx := v - r
		dx -= b.LBox * math.Floor((dx+half)/b.LBox)

		if dx >= half {
			dx -= b.LBox
		}

		x[i] = r + dx
	}

	return nil
}

// ShiftTo is the copying form of IShiftTo.
func (b *PeriodicBox) ShiftTo(x, ref []float64) ([]float64, error) {
	out := slices.Clone(x)
	if err := b.IShiftTo(out, ref); err != nil {
		return nil, err
	}

	return out, nil
}

// Separation returns the minimum-image displacement x - ref.
func (b *PeriodicBox) Separation(x, ref float64) float64 {
	dx := x - ref

	return dx - b.LBox*math.Floor((dx+0.5*b.LBox)/b.LBox)
}

// Package nd provides a dense row-major float64 array with a designated sample axis.
//
// Axis 0 is the sample axis; the remaining axes form the trailing shape. An
// array with an empty shape is a scalar holding exactly one element.
package nd

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidArgument is returned for malformed shapes, data lengths or indices.
var ErrInvalidArgument = errors.New("invalid argument")

// Array is a dense, row-major float64 array.
type Array struct {
	Shape []int     `json:"shape" yaml:"shape"`
	Data  []float64 `json:"data"  yaml:"data"`
}

// Size returns the number of elements implied by shape. The empty shape has size 1.
func Size(shape []int) int {
	size := 1

	for _, dim := range shape {
		size *= dim
	}

	return size
}

// New wraps data with the given shape. The data slice is not copied.
func New(data []float64, shape ...int) (*Array, error) {
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("%w: negative dimension in shape %v", ErrInvalidArgument, shape)
		}
	}

	if Size(shape) != len(data) {
		return nil, fmt.Errorf("%w: shape %v needs %d elements, got %d",
			ErrInvalidArgument, shape, Size(shape), len(data))
	}

	return &Array{Shape: slices.Clone(shape), Data: data}, nil
}

// MustNew is like New but panics on error. Intended for literals in tests and examples.
func MustNew(data []float64, shape ...int) *Array {
	arr, err := New(data, shape...)
	if err != nil {
		panic(err)
	}

	return arr
}

// FromSlice returns a 1-d array holding a copy of values.
func FromSlice(values []float64) *Array {
	return &Array{Shape: []int{len(values)}, Data: slices.Clone(values)}
}

// Scalar returns a 0-d array holding v.
func Scalar(v float64) *Array {
	return &Array{Shape: []int{}, Data: []float64{v}}
}

// Zeros returns a zero-filled array of the given shape.
func Zeros(shape ...int) *Array {
	return &Array{Shape: slices.Clone(shape), Data: make([]float64, Size(shape))}
}

// Full returns an array of the given shape filled with v.
func Full(v float64, shape ...int) *Array {
	arr := Zeros(shape...)

	for i := range arr.Data {
		arr.Data[i] = v
	}

	return arr
}

// NDim returns the number of axes.
func (a *Array) NDim() int {
	return len(a.Shape)
}

// IsScalar reports whether the array has an empty shape.
func (a *Array) IsScalar() bool {
	return len(a.Shape) == 0
}

// Value returns the single element of a scalar array, or the first element otherwise.
// It returns NaN for an empty array.
func (a *Array) Value() float64 {
	if len(a.Data) == 0 {
		return math.NaN()
	}

	return a.Data[0]
}

// Len returns the length of the sample axis. Scalars have length 1.
func (a *Array) Len() int {
	if len(a.Shape) == 0 {
		return 1
	}

	return a.Shape[0]
}

// TrailingShape returns the shape without the sample axis.
func (a *Array) TrailingShape() []int {
	if len(a.Shape) == 0 {
		return []int{}
	}

	return slices.Clone(a.Shape[1:])
}

// TrailingSize returns the number of independent trailing slots.
func (a *Array) TrailingSize() int {
	return Size(a.TrailingShape())
}

// At returns the element at the given multi-index.
func (a *Array) At(index ...int) float64 {
	return a.Data[a.offset(index)]
}

// Set assigns the element at the given multi-index.
func (a *Array) Set(v float64, index ...int) {
	a.Data[a.offset(index)] = v
}

func (a *Array) offset(index []int) int {
	if len(index) != len(a.Shape) {
		panic(fmt.Sprintf("nd: index %v does not match shape %v", index, a.Shape))
	}

	off := 0

	for axis, i := range index {
		if i < 0 || i >= a.Shape[axis] {
			panic(fmt.Sprintf("nd: index %v out of range for shape %v", index, a.Shape))
		}

		off = off*a.Shape[axis] + i
	}

	return off
}

// Column copies trailing slot j along the sample axis into dst, which is grown
// as needed, and returns it.
func (a *Array) Column(j int, dst []float64) []float64 {
	stride := a.TrailingSize()
	n := a.Len()
	dst = slices.Grow(dst[:0], n)

	for i := range n {
		dst = append(dst, a.Data[i*stride+j])
	}

	return dst
}

// Row returns a copy of sample i as an array with the trailing shape.
func (a *Array) Row(i int) *Array {
	stride := a.TrailingSize()

	return &Array{
		Shape: a.TrailingShape(),
		Data:  slices.Clone(a.Data[i*stride : (i+1)*stride]),
	}
}

// Take gathers the given samples along axis 0 into a new array.
// Indices may repeat. Scalars cannot be indexed.
func (a *Array) Take(indices []int) (*Array, error) {
	if a.IsScalar() {
		return nil, fmt.Errorf("%w: take on a scalar", ErrInvalidArgument)
	}

	stride := a.TrailingSize()
	n := a.Len()
	shape := slices.Clone(a.Shape)
	shape[0] = len(indices)
	out := make([]float64, 0, len(indices)*stride)

	for _, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: sample index %d out of range [0, %d)", ErrInvalidArgument, i, n)
		}

		out = append(out, a.Data[i*stride:(i+1)*stride]...)
	}

	return &Array{Shape: shape, Data: out}, nil
}

// Stack joins arrays of identical shape along a new leading axis.
func Stack(arrays []*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrInvalidArgument)
	}

	shape := arrays[0].Shape
	data := make([]float64, 0, len(arrays)*len(arrays[0].Data))

	for i, arr := range arrays {
		if !slices.Equal(arr.Shape, shape) {
			return nil, fmt.Errorf("%w: array %d has shape %v, want %v", ErrInvalidArgument, i, arr.Shape, shape)
		}

		data = append(data, arr.Data...)
	}

	return &Array{Shape: append([]int{len(arrays)}, shape...), Data: data}, nil
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	if a == nil {
		return nil
	}

	return &Array{Shape: slices.Clone(a.Shape), Data: slices.Clone(a.Data)}
}

// Equal reports whether both arrays have the same shape and bit-identical
// elements. NaN elements compare equal to NaN elements with the same bits.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}

	if !slices.Equal(a.Shape, b.Shape) || len(a.Data) != len(b.Data) {
		return false
	}

	for i := range a.Data {
		if math.Float64bits(a.Data[i]) != math.Float64bits(b.Data[i]) {
			return false
		}
	}

	return true
}

// Apply returns a new array with fn applied to every element.
func (a *Array) Apply(fn func(float64) float64) *Array {
	out := a.Clone()

	for i, v := range out.Data {
		out.Data[i] = fn(v)
	}

	return out
}

// String implements fmt.Stringer.
func (a *Array) String() string {
	if a.IsScalar() {
		return fmt.Sprintf("%g", a.Value())
	}

	return fmt.Sprintf("nd%v%v", a.Shape, a.Data)
}

package nd

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Non-finite elements have no JSON number form; they are written as null
// (NaN) or the strings "+Inf" and "-Inf".
const (
	jsonNull   = "null"
	jsonPosInf = `"+Inf"`
	jsonNegInf = `"-Inf"`
)

type jsonFloat float64

// MarshalJSON implements json.Marshaler.
func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)

	switch {
	case math.IsNaN(v):
		return []byte(jsonNull), nil
	case math.IsInf(v, 1):
		return []byte(jsonPosInf), nil
	case math.IsInf(v, -1):
		return []byte(jsonNegInf), nil
	}

	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *jsonFloat) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case jsonNull:
		*f = jsonFloat(math.NaN())

		return nil
	case jsonPosInf:
		*f = jsonFloat(math.Inf(1))

		return nil
	case jsonNegInf:
		*f = jsonFloat(math.Inf(-1))

		return nil
	}

	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("nd: element %s: %w", b, err)
	}

	*f = jsonFloat(v)

	return nil
}

type arrayJSON struct {
	Shape []int       `json:"shape"`
	Data  []jsonFloat `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (a *Array) MarshalJSON() ([]byte, error) {
	out := arrayJSON{Shape: a.Shape, Data: make([]jsonFloat, len(a.Data))}
	if out.Shape == nil {
		out.Shape = []int{}
	}

	for i, v := range a.Data {
		out.Data[i] = jsonFloat(v)
	}

	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. The element count must match the shape.
func (a *Array) UnmarshalJSON(b []byte) error {
	var in arrayJSON

	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	if Size(in.Shape) != len(in.Data) {
		return fmt.Errorf("%w: %d elements for shape %v", ErrInvalidArgument, len(in.Data), in.Shape)
	}

	a.Shape = in.Shape
	if a.Shape == nil {
		a.Shape = []int{}
	}

	a.Data = make([]float64, len(in.Data))
	for i, v := range in.Data {
		a.Data[i] = float64(v)
	}

	return nil
}

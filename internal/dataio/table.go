// Package dataio reads column-oriented sample tables from CSV and JSON.
package dataio

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
)

// Sentinel errors.
var (
	ErrUnknownColumn  = errors.New("unknown column")
	ErrRaggedColumns  = errors.New("columns have different lengths")
	ErrUnknownFormat  = errors.New("unknown input format")
	ErrInvalidValue   = errors.New("invalid numeric value")
	ErrSchemaMismatch = errors.New("document does not match the column schema")
)

// Table is a set of equally long named float64 columns.
type Table struct {
	// Names keeps the input column order.
	Names   []string
	Columns map[string][]float64
	// Meta holds free-form string annotations from JSON documents.
	Meta map[string]string
}

// NewTable builds a table and checks that all columns share one length.
func NewTable(names []string, columns map[string][]float64) (*Table, error) {
	t := &Table{Names: slices.Clone(names), Columns: columns}

	n := -1

	for _, name := range t.Names {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}

		if n >= 0 && len(col) != n {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRaggedColumns, name, len(col), n)
		}

		n = len(col)
	}

	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if len(t.Names) == 0 {
		return 0
	}

	return len(t.Columns[t.Names[0]])
}

// Column returns the named column.
func (t *Table) Column(name string) ([]float64, error) {
	col, ok := t.Columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownColumn, name, strings.Join(t.Names, ", "))
	}

	return col, nil
}

// Matrix stacks the named columns into an array of shape (rows, len(names)).
// A single name yields a 1-d array. No names selects every column.
func (t *Table) Matrix(names ...string) (*nd.Array, error) {
	if len(names) == 0 {
		names = t.Names
	}

	cols := make([][]float64, len(names))

	for j, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}

		cols[j] = col
	}

	rows := t.Len()
	if len(names) == 1 {
		return nd.FromSlice(cols[0]), nil
	}

	data := make([]float64, 0, rows*len(names))

	for i := range rows {
		for _, col := range cols {
			data = append(data, col[i])
		}
	}

	return nd.New(data, rows, len(names))
}

// ParseValue parses one cell. Empty cells and NaN spellings yield NaN.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)

	switch strings.ToLower(s) {
	case "", "nan", "na", "null":
		return math.NaN(), nil
	case "inf", "+inf", "infinity":
		return math.Inf(1), nil
	case "-inf", "-infinity":
		return math.Inf(-1), nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}

	return v, nil
}

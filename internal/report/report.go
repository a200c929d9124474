// Package report renders command results as terminal tables, JSON, YAML or
// HTML charts.
package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
	"github.com/Sumatoshi-tech/astrostat/pkg/persist"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatHTML  = "html"
)

// Sentinel errors.
var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrRaggedColumns = errors.New("report columns have different lengths")
	ErrUnknownColumn = errors.New("unknown report column")
)

// Column is one named output column.
type Column struct {
	Name   string    `json:"name"   yaml:"name"`
	Values *nd.Array `json:"values" yaml:"values"`
}

// Plot selects the columns drawn by the HTML writer. An empty X draws the
// Y columns against the row labels.
type Plot struct {
	X string   `json:"x" yaml:"x"`
	Y []string `json:"y" yaml:"y"`
	// LogY draws the y axis on a log scale.
	LogY bool `json:"log_y,omitempty" yaml:"log_y,omitempty"`
}

// Report is the rendered result of one command run.
type Report struct {
	RunID   string            `json:"run_id"            yaml:"run_id"`
	Command string            `json:"command"           yaml:"command"`
	Title   string            `json:"title"             yaml:"title"`
	Created time.Time         `json:"created"           yaml:"created"`
	Input   string            `json:"input,omitempty"   yaml:"input,omitempty"`
	Samples int               `json:"samples"           yaml:"samples"`
	Meta    map[string]string `json:"meta,omitempty"    yaml:"meta,omitempty"`
	// Labels optionally names every row.
	Labels  []string `json:"labels,omitempty"  yaml:"labels,omitempty"`
	Columns []Column `json:"columns"           yaml:"columns"`
	Plot    *Plot    `json:"plot,omitempty"    yaml:"plot,omitempty"`
}

// New starts a report for command with a fresh run id.
func New(command, title string) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		Command: command,
		Title:   title,
		Created: time.Now().UTC(),
		Meta:    map[string]string{},
	}
}

// AddColumn appends a column. All columns must have the same length.
func (r *Report) AddColumn(name string, values []float64) error {
	if len(r.Columns) > 0 && r.Columns[0].Values.Len() != len(values) {
		return fmt.Errorf("%w: %q has %d rows, want %d",
			ErrRaggedColumns, name, len(values), r.Columns[0].Values.Len())
	}

	r.Columns = append(r.Columns, Column{Name: name, Values: nd.FromSlice(values)})

	return nil
}

// Column returns the values of the named column.
func (r *Report) Column(name string) ([]float64, error) {
	idx := slices.IndexFunc(r.Columns, func(c Column) bool { return c.Name == name })
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}

	return r.Columns[idx].Values.Data, nil
}

// Names returns the column names in insertion order.
func (r *Report) Names() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}

	return names
}

// Rows returns the number of rows.
func (r *Report) Rows() int {
	if len(r.Columns) == 0 {
		return len(r.Labels)
	}

	return r.Columns[0].Values.Len()
}

// RowLabels returns Labels, or the row indices when no labels are set.
func (r *Report) RowLabels() []string {
	if len(r.Labels) == r.Rows() && r.Labels != nil {
		return r.Labels
	}

	out := make([]string, r.Rows())
	for i := range out {
		out[i] = strconv.Itoa(i)
	}

	return out
}

// Options tune rendering.
type Options struct {
	// Color forces colored table output on or off. Nil keeps the terminal default.
	Color *bool
	// Precision is the number of significant digits in tables.
	Precision int
}

// DefaultPrecision is the table precision used when Options.Precision is zero.
const DefaultPrecision = 5

// Write renders r to w in the given format.
func Write(w io.Writer, r *Report, format string, opts Options) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		return WriteTable(w, r, opts)
	case FormatJSON:
		return persist.NewJSONCodec().Encode(w, r)
	case FormatYAML:
		return persist.NewYAMLCodec().Encode(w, r)
	case FormatHTML:
		return WriteHTML(w, r)
	}

	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

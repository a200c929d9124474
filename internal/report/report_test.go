package report

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport(t *testing.T) *Report {
	t.Helper()

	r := New("density", "Binned volume density")
	r.Input = "catalog.csv"
	r.Samples = 12345
	r.Meta["volume"] = "1000"

	require.NoError(t, r.AddColumn("x", []float64{10, 11, 12}))
	require.NoError(t, r.AddColumn("y", []float64{0.5, math.NaN(), 0.125}))
	require.NoError(t, r.AddColumn("lg_y", []float64{-0.30103, math.Inf(-1), -0.90309}))

	return r
}

func TestNew(t *testing.T) {
	t.Parallel()

	a := New("summary", "Summary")
	b := New("summary", "Summary")

	_, err := uuid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.False(t, a.Created.IsZero())
	assert.Equal(t, 0, a.Rows())
}

func TestReport_Columns(t *testing.T) {
	t.Parallel()

	r := sampleReport(t)

	assert.Equal(t, 3, r.Rows())
	assert.Equal(t, []string{"x", "y", "lg_y"}, r.Names())

	y, err := r.Column("y")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, y[0], 0)

	_, err = r.Column("z")
	require.ErrorIs(t, err, ErrUnknownColumn)

	err = r.AddColumn("short", []float64{1})
	require.ErrorIs(t, err, ErrRaggedColumns)
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "NaN"},
		{math.Inf(1), "+Inf"},
		{math.Inf(-1), "-Inf"},
		{1.5, "1.5"},
		{1e-8, "1e-08"},
		{123456789, "1.2346e+08"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, FormatValue(tt.in, DefaultPrecision))
		})
	}
}

func TestWriteTable(t *testing.T) {
	t.Parallel()

	r := sampleReport(t)
	noColor := false

	var buf bytes.Buffer

	require.NoError(t, Write(&buf, r, FormatTable, Options{Color: &noColor}))

	out := buf.String()
	assert.Contains(t, out, "=== BINNED VOLUME DENSITY ===")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, r.RunID)
	assert.Contains(t, out, "volume: 1000")
	assert.Contains(t, strings.ToUpper(out), "LG_Y")
	assert.Contains(t, out, "NaN")
	assert.Contains(t, out, "-Inf")
	assert.NotContains(t, out, "\x1b[")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	r := sampleReport(t)

	var buf bytes.Buffer

	require.NoError(t, Write(&buf, r, FormatJSON, Options{}))

	var decoded Report

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, r.RunID, decoded.RunID)
	assert.Equal(t, r.Names(), decoded.Names())

	y, err := decoded.Column("y")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(y[1]))

	lgY, err := decoded.Column("lg_y")
	require.NoError(t, err)
	assert.True(t, math.IsInf(lgY[1], -1))
}

func TestWriteYAML(t *testing.T) {
	t.Parallel()

	r := sampleReport(t)

	var buf bytes.Buffer

	require.NoError(t, Write(&buf, r, FormatYAML, Options{}))

	var decoded Report

	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "density", decoded.Command)
	assert.Equal(t, 12345, decoded.Samples)
	assert.Equal(t, 3, decoded.Rows())
}

func TestWriteHTML(t *testing.T) {
	t.Parallel()

	r := sampleReport(t)
	r.Plot = &Plot{X: "x", Y: []string{"y"}, LogY: true}

	var buf bytes.Buffer

	require.NoError(t, Write(&buf, r, FormatHTML, Options{}))

	out := buf.String()
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "Binned volume density")
}

func TestBuildChart_Errors(t *testing.T) {
	t.Parallel()

	_, err := BuildChart(New("summary", "Empty"))
	require.ErrorIs(t, err, ErrUnknownColumn)

	r := sampleReport(t)
	r.Plot = &Plot{X: "x", Y: []string{"missing"}}

	_, err = BuildChart(r)
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestXYPoints(t *testing.T) {
	t.Parallel()

	pts := xyPoints([]float64{1, 2, 3}, []float64{1, math.NaN(), -1}, true)

	require.Len(t, pts, 3)
	assert.Equal(t, []any{1.0, 1.0}, pts[0].Value)
	assert.Equal(t, []any{2.0, missing}, pts[1].Value)
	assert.Equal(t, []any{3.0, missing}, pts[2].Value)
}

func TestWrite_UnknownFormat(t *testing.T) {
	t.Parallel()

	err := Write(&bytes.Buffer{}, sampleReport(t), "xml", Options{})
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestReport_Labels(t *testing.T) {
	t.Parallel()

	r := New("summary", "Summary")
	r.Labels = []string{"lg_m", "lg_sfr"}
	require.NoError(t, r.AddColumn("mean", []float64{10.5, -0.25}))
	require.NoError(t, r.AddColumn("sd", []float64{0.3, 0.1}))

	assert.Equal(t, []string{"lg_m", "lg_sfr"}, r.RowLabels())

	noColor := false

	var buf bytes.Buffer

	require.NoError(t, WriteTable(&buf, r, Options{Color: &noColor}))
	assert.Contains(t, buf.String(), "lg_sfr")
	assert.Contains(t, buf.String(), "-0.25")

	r.Plot = &Plot{Y: []string{"mean"}}

	buf.Reset()
	require.NoError(t, WriteHTML(&buf, r))
	assert.Contains(t, buf.String(), "lg_m")
}

func TestReport_RowLabelsDefault(t *testing.T) {
	t.Parallel()

	r := sampleReport(t)

	assert.Equal(t, []string{"0", "1", "2"}, r.RowLabels())
}

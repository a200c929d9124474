package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/astrostat/pkg/alg/mapx"
)

// WriteTable renders r as a header block followed by a go-pretty table.
func WriteTable(w io.Writer, r *Report, opts Options) error {
	precision := opts.Precision
	if precision <= 0 {
		precision = DefaultPrecision
	}

	title := color.New(color.FgCyan, color.Bold)
	muted := color.New(color.FgHiBlack)

	if opts.Color != nil {
		if *opts.Color {
			title.EnableColor()
			muted.EnableColor()
		} else {
			title.DisableColor()
			muted.DisableColor()
		}
	}

	var sb strings.Builder

	title.Fprintf(&sb, "=== %s ===\n", strings.ToUpper(r.Title))
	muted.Fprintf(&sb, "run %s  samples %s  rows %s\n",
		r.RunID, humanize.Comma(int64(r.Samples)), humanize.Comma(int64(r.Rows())))

	if r.Input != "" {
		muted.Fprintf(&sb, "input %s\n", r.Input)
	}

	for _, key := range mapx.SortedKeys(r.Meta) {
		muted.Fprintf(&sb, "%s: %s\n", key, r.Meta[key])
	}

	sb.WriteString(renderColumns(r, precision))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return nil
}

func renderColumns(r *Report, precision int) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	labeled := len(r.Labels) > 0
	offset := 0

	var header table.Row

	if labeled {
		header = append(header, "")
		offset = 1
	}

	configs := make([]table.ColumnConfig, len(r.Columns))

	for j, c := range r.Columns {
		header = append(header, c.Name)
		configs[j] = table.ColumnConfig{Number: j + 1 + offset, Align: text.AlignRight}
	}

	tbl.AppendHeader(header)
	tbl.SetColumnConfigs(configs)

	labels := r.RowLabels()

	for i := range r.Rows() {
		row := make(table.Row, 0, len(header))
		if labeled {
			row = append(row, labels[i])
		}

		for _, c := range r.Columns {
			row = append(row, FormatValue(c.Values.Data[i], precision))
		}

		tbl.AppendRow(row)
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("%s rows", humanize.Comma(int64(r.Rows())))})

	return tbl.Render()
}

// FormatValue prints v with the given number of significant digits.
func FormatValue(v float64, precision int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}

	return strconv.FormatFloat(v, 'g', precision, 64)
}

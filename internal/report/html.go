package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartWidth  = "100%"
	chartHeight = "520px"
	lineWidth   = 2
)

// missing is the echarts placeholder for a gap in a series.
const missing = "-"

// WriteHTML renders the plotted columns of r as a standalone echarts page.
// Without a Plot, every other column is drawn against the first one.
func WriteHTML(w io.Writer, r *Report) error {
	line, err := BuildChart(r)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = r.Title
	page.AddCharts(line)

	err = page.Render(w)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return nil
}

// BuildChart draws the Plot columns of r as an xy line chart.
func BuildChart(r *Report) (*charts.Line, error) {
	plot := r.Plot
	if plot == nil {
		plot = defaultPlot(r)
	}

	if plot == nil {
		return nil, fmt.Errorf("%w: report has no columns to plot", ErrUnknownColumn)
	}

	var (
		x   []float64
		err error
	)

	xAxis := opts.XAxis{Name: plot.X, Type: "value", Scale: opts.Bool(true)}

	if plot.X == "" {
		xAxis = opts.XAxis{Type: "category", Data: r.RowLabels()}
	} else {
		x, err = r.Column(plot.X)
		if err != nil {
			return nil, err
		}
	}

	yType := "value"
	if plot.LogY {
		yType = "log"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: r.Title, Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: r.Title, Subtitle: "run " + r.RunID}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(opts.YAxis{Type: yType, Scale: opts.Bool(true)}),
	)

	for _, name := range plot.Y {
		y, err := r.Column(name)
		if err != nil {
			return nil, err
		}

		points := xyPoints(x, y, plot.LogY)
		if x == nil {
			points = yPoints(y, plot.LogY)
		}

		line.AddSeries(name, points,
			charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
		)
	}

	return line, nil
}

func defaultPlot(r *Report) *Plot {
	if len(r.Columns) == 0 {
		return nil
	}

	names := r.Names()

	return &Plot{X: names[0], Y: names[1:]}
}

// xyPoints pairs x and y, replacing points echarts cannot draw with gaps.
func xyPoints(x, y []float64, logY bool) []opts.LineData {
	out := make([]opts.LineData, len(x))

	for i := range x {
		if !drawable(x[i]) || !drawable(y[i]) || (logY && y[i] <= 0) {
			out[i] = opts.LineData{Value: []any{finiteOr(x[i]), missing}}

			continue
		}

		out[i] = opts.LineData{Value: []any{x[i], y[i]}}
	}

	return out
}

// yPoints lays y out along a category axis.
func yPoints(y []float64, logY bool) []opts.LineData {
	out := make([]opts.LineData, len(y))

	for i, v := range y {
		if !drawable(v) || (logY && v <= 0) {
			out[i] = opts.LineData{Value: missing}

			continue
		}

		out[i] = opts.LineData{Value: v}
	}

	return out
}

func drawable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteOr(v float64) any {
	if drawable(v) {
		return v
	}

	return missing
}

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/astrostat/internal/report"
	"github.com/Sumatoshi-tech/astrostat/pkg/summary"
)

type summaryOptions struct {
	columns     []string
	inputFormat string
}

func newSummaryCommand(app *App) *cobra.Command {
	opts := &summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary <file|->",
		Short: "Distributional summary of one or more columns",
		Long: `Compute mean, standard deviation, median, extrema and the 1, 2 and 3 sigma
quantile bands of every selected column.

Examples:
  astrostat summary catalog.csv
  astrostat summary -c lg_m,lg_sfr catalog.json -f yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "summary", func(ctx context.Context) (runStats, error) {
				return app.runSummary(ctx, cmd, args[0], opts)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&opts.columns, "columns", "c", nil, "columns to summarize (default: all)")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "input format: csv, json (default: from extension)")

	return cmd
}

func (a *App) runSummary(ctx context.Context, cmd *cobra.Command, path string, opts *summaryOptions) (runStats, error) {
	tbl, err := a.readTable(path, opts.inputFormat)
	if err != nil {
		return runStats{}, err
	}

	names := opts.columns
	if len(names) == 0 {
		names = tbl.Names
	}

	x, err := tbl.Matrix(names...)
	if err != nil {
		return runStats{}, err
	}

	stats := runStats{samples: x.Len()}

	res, err := summary.On(x, summary.WithLogger(a.logger.With("command", "summary")))
	if err != nil {
		return stats, fmt.Errorf("summarize: %w", err)
	}

	rep, err := summaryReport(res, names)
	if err != nil {
		return stats, err
	}

	rep.Input = path
	rep.Samples = x.Len()

	a.logger.InfoContext(ctx, "summary computed", "columns", len(names), "samples", x.Len())

	return stats, a.emit(cmd, rep, res)
}

// summaryReport lays res out with one row per summarized column.
func summaryReport(res *summary.FullResult, names []string) (*report.Report, error) {
	rep := report.New("summary", "Summary")
	rep.Labels = names
	rep.Plot = &report.Plot{Y: []string{summary.KeyMedian, summary.KeyMean}}

	k := len(names)

	columns := []struct {
		name  string
		field []float64
	}{
		{summary.KeyMean, res.Mean.Data},
		{summary.KeySD, res.SD.Data},
		{summary.KeyMedian, res.Median.Data},
		{summary.KeyMin, res.Min.Data},
		{summary.KeyMax, res.Max.Data},
	}

	for _, c := range columns {
		err := rep.AddColumn(c.name, c.field)
		if err != nil {
			return nil, err
		}
	}

	bands := []struct {
		name string
		band []float64
	}{
		{summary.KeySigma1, res.Sigma1.Data},
		{summary.KeySigma2, res.Sigma2.Data},
		{summary.KeySigma3, res.Sigma3.Data},
	}

	for _, b := range bands {
		err := rep.AddColumn(b.name+"_lo", b.band[:k])
		if err != nil {
			return nil, err
		}

		err = rep.AddColumn(b.name+"_hi", b.band[k:])
		if err != nil {
			return nil, err
		}
	}

	return rep, nil
}

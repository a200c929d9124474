package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/astrostat/internal/report"
	"github.com/Sumatoshi-tech/astrostat/pkg/lss"
	"github.com/Sumatoshi-tech/astrostat/pkg/resample"
	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

type densityOptions struct {
	column      string
	weights     string
	volume      float64
	lgYPad      float64
	inputFormat string
}

func newDensityCommand(app *App) *cobra.Command {
	opts := &densityOptions{}

	cmd := &cobra.Command{
		Use:   "density <file|->",
		Short: "Binned volume density with bootstrap errors",
		Long: `Bin one column with overlapping bins and divide the counts by the volume
and the bin width, e.g. a stellar or halo mass function. Standard deviations
come from bootstrap resampling of the binned samples.

Examples:
  astrostat density -x lg_m --volume 1e6 catalog.csv
  astrostat density -x lg_m -w weight --bins 20 -n 100 catalog.json -f html > mf.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "density", func(ctx context.Context) (runStats, error) {
				return app.runDensity(ctx, cmd, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.column, "column", "x", "", "column to bin (default: first column)")
	cmd.Flags().StringVarP(&opts.weights, "weights", "w", "", "optional weight column")
	cmd.Flags().Float64Var(&opts.volume, "volume", 0, "volume the density is normalized by (default: density.volume)")
	cmd.Flags().Float64Var(&opts.lgYPad, "lg-y-pad", 0, "floor applied before log10 (default: density.lg_y_pad)")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "input format: csv, json (default: from extension)")

	return cmd
}

func (a *App) runDensity(ctx context.Context, cmd *cobra.Command, path string, opts *densityOptions) (runStats, error) {
	tbl, err := a.readTable(path, opts.inputFormat)
	if err != nil {
		return runStats{}, err
	}

	column := opts.column
	if column == "" && len(tbl.Names) > 0 {
		column = tbl.Names[0]
	}

	x, err := tbl.Column(column)
	if err != nil {
		return runStats{}, err
	}

	var weights []float64
	if opts.weights != "" {
		weights, err = tbl.Column(opts.weights)
		if err != nil {
			return runStats{}, err
		}
	}

	volume := a.cfg.Density.Volume
	if opts.volume > 0 {
		volume = opts.volume
	}

	lgYPad := a.cfg.Density.LgYPad
	if opts.lgYPad > 0 {
		lgYPad = opts.lgYPad
	}

	rc := a.cfg.Resample
	lssOpts := lss.Options{
		Bins:        a.cfg.Binning.Bins,
		SubBins:     a.cfg.Binning.SubBins,
		Range:       a.cfg.Binning.RangeSpec(),
		PRange:      a.cfg.Binning.PRangeSpec(),
		Weights:     weights,
		NBootstrap:  rc.N,
		LgYPad:      lgYPad,
		KeepSamples: rc.KeepSamples,
		Workers:     rc.Workers,
		Rng:         rng.New(rc.Seed),
		Logger:      a.logger.With("command", "density"),
		Tracer:      a.providers.Tracer,
	}

	stats := runStats{samples: len(x), resamples: rc.N}

	res, err := lss.BinnedVolumeDensity{}.FromRaw(ctx, x, volume, lssOpts)
	if err != nil {
		return stats, fmt.Errorf("density: %w", err)
	}

	rep, err := densityReport(res)
	if err != nil {
		return stats, err
	}

	rep.Input = path
	rep.Samples = len(x)
	rep.Meta["column"] = column
	rep.Meta["volume"] = formatFloat(volume)
	rep.Meta["bootstrap"] = strconv.Itoa(rc.N)
	rep.Meta["seed"] = strconv.FormatUint(rc.Seed, 10)

	if opts.weights != "" {
		rep.Meta["weights"] = opts.weights
	}

	return stats, a.emit(cmd, rep, res)
}

func densityReport(res *lss.Result) (*report.Report, error) {
	rep := report.New("density", "Binned volume density")
	rep.Plot = &report.Plot{X: lss.KeyX, Y: []string{lss.KeyY}, LogY: true}

	columns := []struct {
		name   string
		values []float64
	}{
		{lss.KeyX, res.X},
		{lss.KeyDX, res.DX},
		{lss.KeyH, res.H},
		{lss.KeyY, res.Y},
		{lss.KeyLgY, res.LgY},
		{lss.KeyH + resample.SDSuffix, res.HSD},
		{lss.KeyY + resample.SDSuffix, res.YSD},
		{lss.KeyLgY + resample.SDSuffix, res.LgYSD},
	}

	for _, c := range columns {
		if c.values == nil {
			continue
		}

		err := rep.AddColumn(c.name, c.values)
		if err != nil {
			return nil, err
		}
	}

	return rep, nil
}

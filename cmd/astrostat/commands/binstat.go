package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/astrostat/internal/config"
	"github.com/Sumatoshi-tech/astrostat/internal/report"
	"github.com/Sumatoshi-tech/astrostat/pkg/binning"
	"github.com/Sumatoshi-tech/astrostat/pkg/nd"
	"github.com/Sumatoshi-tech/astrostat/pkg/reduce"
	"github.com/Sumatoshi-tech/astrostat/pkg/resample"
	"github.com/Sumatoshi-tech/astrostat/pkg/rng"
)

// Output and dataset keys of binstat.
const (
	keyBinX    = "x"
	keyBinY    = "y"
	keyWeights = "weights"
	keyCount   = "n"
)

type binStatOptions struct {
	x           string
	y           string
	weights     string
	reduce      string
	ps          []float64
	inputFormat string
}

func newBinStatCommand(app *App) *cobra.Command {
	opts := &binStatOptions{}

	cmd := &cobra.Command{
		Use:   "binstat <file|->",
		Short: "Binned statistic of one column against another",
		Long: `Group y by equal-width bins of x and reduce every group. Standard deviations
of the per-bin values come from bootstrap or random-noise resampling.

Reductions: count, sum, mean, std_dev, median, quantile, errorbar.

Examples:
  astrostat binstat -x lg_m -y lg_sfr --reduce median catalog.csv
  astrostat binstat -x lg_m -y lg_sfr --reduce quantile --ps 0.16,0.5,0.84 catalog.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, "binstat", func(ctx context.Context) (runStats, error) {
				return app.runBinStat(ctx, cmd, args[0], opts)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.x, "x", "x", "", "column that selects the bin (required)")
	cmd.Flags().StringVarP(&opts.y, "y", "y", "", "column that is reduced (required)")
	cmd.Flags().StringVarP(&opts.weights, "weights", "w", "", "optional weight column")
	cmd.Flags().StringVar(&opts.reduce, "reduce", "median", "reduction applied to every bin")
	cmd.Flags().Float64SliceVar(&opts.ps, "ps", nil, "quantile levels for --reduce quantile")
	cmd.Flags().StringVar(&opts.inputFormat, "input-format", "", "input format: csv, json (default: from extension)")

	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")

	return cmd
}

func (a *App) runBinStat(ctx context.Context, cmd *cobra.Command, path string, opts *binStatOptions) (runStats, error) {
	reducer, err := reduce.Parse(opts.reduce, opts.ps...)
	if err != nil {
		return runStats{}, err
	}

	tbl, err := a.readTable(path, opts.inputFormat)
	if err != nil {
		return runStats{}, err
	}

	x, err := tbl.Column(opts.x)
	if err != nil {
		return runStats{}, err
	}

	y, err := tbl.Column(opts.y)
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

	bc := a.cfg.Binning

	span, err := binning.ParsePRange(x, bc.RangeSpec(), bc.PRangeSpec())
	if err != nil {
		return runStats{}, fmt.Errorf("bin range: %w", err)
	}

	bins, err := binning.NewEqualSpaceBins(span.Lo, span.Hi, bc.Bins)
	if err != nil {
		return runStats{}, fmt.Errorf("bins: %w", err)
	}

	rc := a.cfg.Resample

	resampler, err := resamplerFor(rc)
	if err != nil {
		return runStats{}, err
	}

	dset := resample.Dataset{keyBinX: nd.FromSlice(x), keyBinY: nd.FromSlice(y)}

	// Noise must not perturb the weights, so they only travel with the
	// dataset when resampling by bootstrap.
	fixedWeights := weights
	if weights != nil && rc.Method == config.MethodBootstrap {
		dset[keyWeights] = nd.FromSlice(weights)
		fixedWeights = nil
	}

	stats := runStats{samples: len(x), resamples: rc.N}

	res, err := resample.Call(ctx, binStatFunc(bins, reducer, fixedWeights), []resample.Dataset{dset},
		resample.WithN(rc.N),
		resample.WithRng(rng.New(rc.Seed)),
		resample.WithWorkers(rc.Workers),
		resample.WithKeepSamples(rc.KeepSamples),
		resample.WithResampler(resampler),
		resample.WithLogger(a.logger.With("command", "binstat")),
		resample.WithTracer(a.providers.Tracer),
	)
	if err != nil {
		return stats, fmt.Errorf("binstat: %w", err)
	}

	rep, err := binStatReport(res, binning.Centers(bins.Edges()), reducer)
	if err != nil {
		return stats, err
	}

	rep.Input = path
	rep.Samples = len(x)
	rep.Meta["x"] = opts.x
	rep.Meta["y"] = opts.y
	rep.Meta["reduce"] = reducer.Name()
	rep.Meta["method"] = resampler.Name()
	rep.Meta["resamples"] = strconv.Itoa(rc.N)

	return stats, a.emit(cmd, rep, res.Flatten())
}

func resamplerFor(rc config.ResampleConfig) (resample.Resampler, error) {
	switch rc.Method {
	case config.MethodBootstrap:
		return resample.Bootstrap{}, nil
	case config.MethodRandomNoise:
		return resample.RandomNoise{Sigma: rc.NoiseSigma}, nil
	}

	return nil, fmt.Errorf("%w: %q", config.ErrInvalidMethod, rc.Method)
}

// valueKeys names the output columns of a reduction.
func valueKeys(r reduce.Reducer) []string {
	name := r.Kind().String()
	if r.Width() == 1 {
		return []string{name}
	}

	keys := make([]string, r.Width())
	for i := range keys {
		keys[i] = name + "_" + strconv.Itoa(i)
	}

	return keys
}

// binStatFunc reduces y per bin of x. weights, when non-nil, override any
// weights carried by the dataset.
func binStatFunc(bins binning.Bins, r reduce.Reducer, weights []float64) resample.StatFunc {
	keys := valueKeys(r)

	return func(_ context.Context, dsets []resample.Dataset) (resample.Outputs, error) {
		d := dsets[0]

		w := weights
		if arr, ok := d[keyWeights]; ok {
			w = arr.Data
		}

		res, err := binning.BinnedStat(d[keyBinX].Data, d[keyBinY].Data, w, bins, r)
		if err != nil {
			return nil, err
		}

		counts := make([]float64, len(res.Counts))
		for i, c := range res.Counts {
			counts[i] = float64(c)
		}

		out := resample.Outputs{keyCount: nd.FromSlice(counts)}

		for j, key := range keys {
			col := make([]float64, len(res.Values))
			for i, vals := range res.Values {
				col[i] = vals[j]
			}

			out[key] = nd.FromSlice(col)
		}

		return out, nil
	}
}

func binStatReport(res *resample.Result, centers []float64, r reduce.Reducer) (*report.Report, error) {
	rep := report.New("binstat", "Binned "+strings.ReplaceAll(r.Name(), "_", " "))

	keys := valueKeys(r)
	rep.Plot = &report.Plot{X: keyBinX, Y: keys}

	err := rep.AddColumn(keyBinX, centers)
	if err != nil {
		return nil, err
	}

	names := append([]string{keyCount}, keys...)

	for _, key := range names {
		err = rep.AddColumn(key, res.Baseline[key].Data)
		if err != nil {
			return nil, err
		}
	}

	for _, key := range keys {
		sd, ok := res.SD[key+resample.SDSuffix]
		if !ok {
			continue
		}

		err = rep.AddColumn(key+resample.SDSuffix, sd.Data)
		if err != nil {
			return nil, err
		}
	}

	return rep, nil
}

// Package commands implements CLI command handlers for astrostat.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Sumatoshi-tech/astrostat/internal/config"
	"github.com/Sumatoshi-tech/astrostat/internal/observability"
	"github.com/Sumatoshi-tech/astrostat/pkg/version"
)

// metricsReadHeaderTimeout bounds slow clients of the /metrics endpoint.
const metricsReadHeaderTimeout = 5 * time.Second

// ErrValidationFailed is returned by validate when the document violates the schema.
var ErrValidationFailed = errors.New("validation failed")

// flagBinding maps a persistent flag to its configuration key.
type flagBinding struct {
	flag string
	key  string
}

var persistentBindings = []flagBinding{
	{"log-level", "logging.level"},
	{"log-json", "logging.json"},
	{"format", "output.format"},
	{"save", "output.save"},
	{"metrics-addr", "observability.metrics_addr"},
	{"otlp-endpoint", "observability.otlp_endpoint"},
	{"otlp-insecure", "observability.otlp_insecure"},
	{"bins", "binning.bins"},
	{"sub-bins", "binning.sub_bins"},
	{"resamples", "resample.n"},
	{"seed", "resample.seed"},
	{"workers", "resample.workers"},
	{"keep-samples", "resample.keep_samples"},
	{"method", "resample.method"},
	{"noise-sigma", "resample.noise_sigma"},
}

// App carries the state shared by every subcommand of one invocation.
type App struct {
	viper      *viper.Viper
	configPath string
	noColor    bool
	forceColor bool

	cfg       *config.Config
	providers observability.Providers
	logger    *slog.Logger
	metrics   *http.Server
}

// NewRootCommand creates the astrostat root command with all subcommands.
func NewRootCommand() *cobra.Command {
	app := &App{viper: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "astrostat",
		Short: "Statistics toolkit for astronomical sample data",
		Long: `astrostat summarizes, bins and bootstraps column data.

Commands:
  summary   Distributional summary of one or more columns
  density   Binned volume density with bootstrap errors
  binstat   Binned statistic of one column against another
  validate  Check a JSON column document against the schema
  version   Show version information`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "config file (default: .astrostat.yaml in CWD or $HOME)")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.Bool("log-json", config.DefaultLogJSON, "emit JSON logs")
	flags.StringP("format", "f", config.DefaultOutputFormat, "output format: table, json, yaml, html")
	flags.String("save", "", "persist the result to this path (.json, .yaml, .gob, optionally .lz4)")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
	flags.String("otlp-endpoint", "", "OTLP gRPC collector address")
	flags.Bool("otlp-insecure", false, "disable TLS for the OTLP connection")
	flags.Int("bins", config.DefaultBins, "number of bins")
	flags.Int("sub-bins", config.DefaultSubBins, "sub-bins per bin for overlapping histograms")
	flags.IntP("resamples", "n", config.DefaultResampleN, "number of resamples")
	flags.Uint64("seed", config.DefaultResampleSeed, "random seed")
	flags.Int("workers", config.DefaultResampleWorkers, "concurrent resamples")
	flags.Bool("keep-samples", config.DefaultKeepSamples, "keep every resampled output")
	flags.String("method", config.DefaultResampleMethod, "resampling method: bootstrap, random_noise")
	flags.Float64("noise-sigma", config.DefaultNoiseSigma, "noise level for random_noise resampling")
	flags.BoolVar(&app.noColor, "no-color", false, "disable colored output")
	flags.BoolVar(&app.forceColor, "color", false, "force colored output")

	for _, b := range persistentBindings {
		// Binding a registered flag cannot fail.
		_ = app.viper.BindPFlag(b.key, flags.Lookup(b.flag))
	}

	rootCmd.AddCommand(
		newSummaryCommand(app),
		newDensityCommand(app),
		newBinStatCommand(app),
		newValidateCommand(app),
		newVersionCommand(),
	)

	return rootCmd
}

func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.viper, a.configPath)
	if err != nil {
		return err
	}

	a.cfg = cfg

	level, err := observability.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = cfg.Observability.ServiceName
	obsCfg.ServiceVersion = version.Get().Version
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.Prometheus = cfg.Observability.MetricsAddr != ""
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.JSON
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	a.providers = providers
	a.logger = providers.Logger

	if providers.MetricsHandler != nil {
		err = a.serveMetrics(cfg.Observability.MetricsAddr, providers.MetricsHandler)
		if err != nil {
			return errors.Join(err, providers.Shutdown(context.Background()))
		}
	}

	return nil
}

func (a *App) serveMetrics(addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	a.metrics = &http.Server{Handler: mux, ReadHeaderTimeout: metricsReadHeaderTimeout}

	go func() {
		serveErr := a.metrics.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", serveErr)
		}
	}()

	a.logger.Info("serving metrics", "addr", listener.Addr().String())

	return nil
}

func (a *App) teardown(ctx context.Context) error {
	var errs []error

	if a.metrics != nil {
		errs = append(errs, a.metrics.Shutdown(ctx))
	}

	if a.providers.Shutdown != nil {
		errs = append(errs, a.providers.Shutdown(ctx))
	}

	return errors.Join(errs...)
}

// runStats is what a command reports about its work.
type runStats struct {
	samples   int
	resamples int
}

// run executes fn inside a command span, records the run and releases the
// telemetry providers.
func (a *App) run(cmd *cobra.Command, name string, fn func(ctx context.Context) (runStats, error)) error {
	ctx, span := a.providers.Tracer.Start(cmd.Context(), "astrostat."+name)
	start := time.Now()

	stats, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.Int("astrostat.samples", stats.samples),
		attribute.Int("astrostat.resamples", stats.resamples),
	)
	span.End()

	a.record(ctx, name, time.Since(start), stats, err)

	return errors.Join(err, a.teardown(context.WithoutCancel(ctx)))
}

// record reports one command run to the engine metrics and the log.
func (a *App) record(ctx context.Context, command string, elapsed time.Duration, stats runStats, err error) {
	a.providers.Metrics.RecordRun(ctx, observability.RunStats{
		Command:   command,
		Samples:   stats.samples,
		Resamples: stats.resamples,
		Duration:  elapsed,
		Err:       err,
	})

	if err != nil {
		a.logger.ErrorContext(ctx, "command failed", "command", command, "error", err, "duration", elapsed)

		return
	}

	a.logger.DebugContext(ctx, "command done", "command", command,
		"samples", stats.samples, "resamples", stats.resamples, "duration", elapsed)
}

// colorOption resolves --color and --no-color into a report option.
func (a *App) colorOption() *bool {
	switch {
	case a.noColor:
		v := false

		return &v
	case a.forceColor:
		v := true

		return &v
	}

	return nil
}

// Package config loads astrostat settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/astrostat/pkg/binning"
)

// Resampling methods.
const (
	MethodBootstrap   = "bootstrap"
	MethodRandomNoise = "random_noise"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatHTML  = "html"
)

// Formats lists every supported output format.
var Formats = []string{FormatTable, FormatJSON, FormatYAML, FormatHTML}

var logLevels = []string{"debug", "info", "warn", "error"}

// Config is the top-level configuration struct for astrostat.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Binning       BinningConfig       `mapstructure:"binning"`
	Resample      ResampleConfig      `mapstructure:"resample"`
	Density       DensityConfig       `mapstructure:"density"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Output        OutputConfig        `mapstructure:"output"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// BinningConfig holds histogram binning settings.
type BinningConfig struct {
	Bins    int `mapstructure:"bins"`
	SubBins int `mapstructure:"sub_bins"`
	// PRange is a [lo, hi] percentile pair used when Range is empty.
	PRange []float64 `mapstructure:"p_range"`
	// Range is an optional explicit [lo, hi) value interval.
	Range []float64 `mapstructure:"range"`
}

// ResampleConfig holds resampling driver settings.
type ResampleConfig struct {
	N           int     `mapstructure:"n"`
	Seed        uint64  `mapstructure:"seed"`
	Workers     int     `mapstructure:"workers"`
	KeepSamples bool    `mapstructure:"keep_samples"`
	Method      string  `mapstructure:"method"`
	NoiseSigma  float64 `mapstructure:"noise_sigma"`
}

// DensityConfig holds binned volume density settings.
type DensityConfig struct {
	Volume float64 `mapstructure:"volume"`
	LgYPad float64 `mapstructure:"lg_y_pad"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	// Save is an optional path the result is persisted to.
	Save string `mapstructure:"save"`
}

// ObservabilityConfig holds telemetry settings.
type ObservabilityConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	MetricsAddr  string `mapstructure:"metrics_addr"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidBins indicates a negative bin count.
	ErrInvalidBins = errors.New("binning.bins must be non-negative")
	// ErrInvalidSubBins indicates a sub-bin count below one.
	ErrInvalidSubBins = errors.New("binning.sub_bins must be at least 1")
	// ErrInvalidPRange indicates a malformed percentile range.
	ErrInvalidPRange = errors.New("binning.p_range must be [lo, hi] with 0 <= lo < hi <= 1")
	// ErrInvalidRange indicates a malformed value range.
	ErrInvalidRange = errors.New("binning.range must be empty or [lo, hi] with lo < hi")
	// ErrInvalidResampleN indicates a negative resample count.
	ErrInvalidResampleN = errors.New("resample.n must be non-negative")
	// ErrInvalidWorkers indicates a worker count below one.
	ErrInvalidWorkers = errors.New("resample.workers must be at least 1")
	// ErrInvalidMethod indicates an unknown resampling method.
	ErrInvalidMethod = errors.New("resample.method must be bootstrap or random_noise")
	// ErrInvalidNoiseSigma indicates a negative noise level.
	ErrInvalidNoiseSigma = errors.New("resample.noise_sigma must be non-negative")
	// ErrInvalidVolume indicates a non-positive density volume.
	ErrInvalidVolume = errors.New("density.volume must be positive")
	// ErrInvalidLgYPad indicates a non-positive log floor.
	ErrInvalidLgYPad = errors.New("density.lg_y_pad must be positive")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be table, json, yaml or html")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	err := c.validateBinning()
	if err != nil {
		return err
	}

	err = c.validateResample()
	if err != nil {
		return err
	}

	if !(c.Density.Volume > 0) {
		return ErrInvalidVolume
	}

	if !(c.Density.LgYPad > 0) {
		return ErrInvalidLgYPad
	}

	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	return nil
}

func (c *Config) validateBinning() error {
	if c.Binning.Bins < 0 {
		return ErrInvalidBins
	}

	if c.Binning.SubBins < 1 {
		return ErrInvalidSubBins
	}

	p := c.Binning.PRange
	if len(p) != 2 || p[0] < 0 || p[1] > 1 || !(p[0] < p[1]) {
		return ErrInvalidPRange
	}

	r := c.Binning.Range
	if len(r) != 0 && (len(r) != 2 || !(r[0] < r[1])) {
		return ErrInvalidRange
	}

	return nil
}

func (c *Config) validateResample() error {
	if c.Resample.N < 0 {
		return ErrInvalidResampleN
	}

	if c.Resample.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.Resample.Method != MethodBootstrap && c.Resample.Method != MethodRandomNoise {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, c.Resample.Method)
	}

	if c.Resample.NoiseSigma < 0 {
		return ErrInvalidNoiseSigma
	}

	return nil
}

// PRangeSpec returns the percentile range as a binning.Range.
func (b BinningConfig) PRangeSpec() *binning.Range {
	if len(b.PRange) != 2 {
		return nil
	}

	return &binning.Range{Lo: b.PRange[0], Hi: b.PRange[1]}
}

// RangeSpec returns the explicit value range, or nil when unset.
func (b BinningConfig) RangeSpec() *binning.Range {
	if len(b.Range) != 2 {
		return nil
	}

	return &binning.Range{Lo: b.Range[0], Hi: b.Range[1]}
}

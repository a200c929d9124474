package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astrostat/internal/config"
	"github.com/Sumatoshi-tech/astrostat/pkg/binning"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.DefaultBins, cfg.Binning.Bins)
	assert.Equal(t, config.DefaultSubBins, cfg.Binning.SubBins)
	assert.Equal(t, []float64{0, 1}, cfg.Binning.PRange)
	assert.Empty(t, cfg.Binning.Range)
	assert.Equal(t, config.DefaultResampleN, cfg.Resample.N)
	assert.Equal(t, uint64(0), cfg.Resample.Seed)
	assert.Equal(t, 1, cfg.Resample.Workers)
	assert.Equal(t, config.MethodBootstrap, cfg.Resample.Method)
	assert.InDelta(t, 1.0, cfg.Density.Volume, 0)
	assert.InDelta(t, 1e-8, cfg.Density.LgYPad, 0)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, config.FormatTable, cfg.Output.Format)
	assert.Equal(t, "astrostat", cfg.Observability.ServiceName)
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"negative bins", func(c *config.Config) { c.Binning.Bins = -1 }, config.ErrInvalidBins},
		{"zero sub bins", func(c *config.Config) { c.Binning.SubBins = 0 }, config.ErrInvalidSubBins},
		{"p_range length", func(c *config.Config) { c.Binning.PRange = []float64{0.5} }, config.ErrInvalidPRange},
		{"p_range order", func(c *config.Config) { c.Binning.PRange = []float64{0.9, 0.1} }, config.ErrInvalidPRange},
		{"p_range bounds", func(c *config.Config) { c.Binning.PRange = []float64{0, 1.5} }, config.ErrInvalidPRange},
		{"range order", func(c *config.Config) { c.Binning.Range = []float64{2, 2} }, config.ErrInvalidRange},
		{"negative n", func(c *config.Config) { c.Resample.N = -3 }, config.ErrInvalidResampleN},
		{"zero workers", func(c *config.Config) { c.Resample.Workers = 0 }, config.ErrInvalidWorkers},
		{"method", func(c *config.Config) { c.Resample.Method = "jackknife" }, config.ErrInvalidMethod},
		{"noise sigma", func(c *config.Config) { c.Resample.NoiseSigma = -1 }, config.ErrInvalidNoiseSigma},
		{"volume", func(c *config.Config) { c.Density.Volume = 0 }, config.ErrInvalidVolume},
		{"lg_y_pad", func(c *config.Config) { c.Density.LgYPad = -1 }, config.ErrInvalidLgYPad},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, config.ErrInvalidLogLevel},
		{"format", func(c *config.Config) { c.Output.Format = "xml" }, config.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestBinningConfig_Specs(t *testing.T) {
	t.Parallel()

	b := config.BinningConfig{PRange: []float64{0.1, 0.9}, Range: []float64{-1, 1}}

	assert.Equal(t, &binning.Range{Lo: 0.1, Hi: 0.9}, b.PRangeSpec())
	assert.Equal(t, &binning.Range{Lo: -1, Hi: 1}, b.RangeSpec())

	assert.Nil(t, config.BinningConfig{}.RangeSpec())
	assert.Nil(t, config.BinningConfig{}.PRangeSpec())
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/astrostat/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".astrostat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.Default(), cfg)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `binning:
  bins: 20
  sub_bins: 4
  p_range: [0.01, 0.99]
  range: [8.5, 12]
resample:
  n: 50
  seed: 1234
  workers: 4
  keep_samples: true
  method: random_noise
  noise_sigma: 0.1
density:
  volume: 125000
  lg_y_pad: 1.0e-10
logging:
  level: debug
  json: true
output:
  format: json
  save: out.json.lz4
observability:
  otlp_endpoint: localhost:4317
  metrics_addr: ":9090"
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Binning.Bins)
	assert.Equal(t, 4, cfg.Binning.SubBins)
	assert.Equal(t, []float64{0.01, 0.99}, cfg.Binning.PRange)
	assert.Equal(t, []float64{8.5, 12}, cfg.Binning.Range)
	assert.Equal(t, 50, cfg.Resample.N)
	assert.Equal(t, uint64(1234), cfg.Resample.Seed)
	assert.Equal(t, 4, cfg.Resample.Workers)
	assert.True(t, cfg.Resample.KeepSamples)
	assert.Equal(t, config.MethodRandomNoise, cfg.Resample.Method)
	assert.InDelta(t, 0.1, cfg.Resample.NoiseSigma, 1e-12)
	assert.InDelta(t, 125000.0, cfg.Density.Volume, 0)
	assert.InDelta(t, 1e-10, cfg.Density.LgYPad, 0)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "out.json.lz4", cfg.Output.Save)
	assert.Equal(t, "localhost:4317", cfg.Observability.OTLPEndpoint)
	assert.Equal(t, ":9090", cfg.Observability.MetricsAddr)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "binning:\n  sub_bins: 0\n"))
	require.ErrorIs(t, err, config.ErrInvalidSubBins)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "binning: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_FlagOverrides(t *testing.T) {
	t.Parallel()

	v := viper.New()
	v.Set("resample.n", 3)
	v.Set("output.format", "yaml")

	cfg, err := config.Load(v, writeConfig(t, "resample:\n  n: 40\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Resample.N)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ASTROSTAT_RESAMPLE_WORKERS", "6")
	t.Setenv("ASTROSTAT_LOGGING_LEVEL", "warn")

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Resample.Workers)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

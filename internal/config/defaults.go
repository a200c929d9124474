package config

// Binning defaults.
const (
	DefaultBins    = 15
	DefaultSubBins = 3
)

// DefaultPRange selects the full data range.
var DefaultPRange = []float64{0, 1}

// Resample defaults.
const (
	DefaultResampleN       = 10
	DefaultResampleSeed    = 0
	DefaultResampleWorkers = 1
	DefaultKeepSamples     = false
	DefaultResampleMethod  = MethodBootstrap
	DefaultNoiseSigma      = 0.0
)

// Density defaults.
const (
	DefaultDensityVolume = 1.0
	DefaultLgYPad        = 1e-8
)

// Logging and output defaults.
const (
	DefaultLogLevel     = "info"
	DefaultLogJSON      = false
	DefaultOutputFormat = FormatTable
	DefaultServiceName  = "astrostat"
)

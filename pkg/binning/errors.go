package binning

import "errors"

// Sentinel errors.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNegativeBins    = errors.New("negative number of bins")
	ErrEdgesOrder      = errors.New("bin edges must be strictly increasing")
	ErrLengthMismatch  = errors.New("length mismatch")
	ErrSubBins         = errors.New("sub-bins must be positive")
	ErrEmptyRange      = errors.New("empty or invalid value range")
)

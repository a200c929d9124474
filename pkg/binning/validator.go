package binning

// IsValid reports whether idx addresses one of n bins.
func IsValid(idx, n int) bool {
	return idx >= 0 && idx < n
}

// ValidMask returns, for every index, whether it lies in [0, n).
// With n == 0 every entry is false.
func ValidMask(idx []int, n int) []bool {
	mask := make([]bool, len(idx))

	for i, j := range idx {
		mask[i] = IsValid(j, n)
	}

	return mask
}

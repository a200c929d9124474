// Package binning assigns samples to half-open bins and aggregates them.
//
// Indices outside [0, n) are silently dropped by every checked operation:
// they stand for data outside the configured range, not for caller errors.
// The overlapping histogram builds finer sub-bins and sums sliding windows of
// them, trading resolution for smoother estimates.
package binning

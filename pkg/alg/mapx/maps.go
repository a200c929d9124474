// Package mapx provides generic map helpers shared by the packages that key
// arrays and columns by name.
package mapx

import (
	"cmp"
	"slices"
)

// SortedKeys returns the keys of m in ascending order. Iterating a map in
// this order makes random draws and rendered columns reproducible.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))

	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

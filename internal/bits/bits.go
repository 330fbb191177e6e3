// Package bits provides low-level numeric primitives used during sizing.
package bits

import "slices"

// AbsDiff returns |a - b| without wrapping, for any pair of uint64 values.
func AbsDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Nearest returns the index of the element of sorted closest to v.
// sorted must be ascending and free of duplicates. An exact match returns its
// own index; otherwise the two elements bracketing v are compared and the
// closer one wins, with ties going to the smaller element. A one-element
// slice always yields 0. Returns -1 if sorted is empty.
func Nearest(sorted []uint64, v uint64) int {
	if len(sorted) == 0 {
		return -1
	}

	i, found := slices.BinarySearch(sorted, v)
	switch {
	case found:
		return i
	case i == 0:
		return 0
	case i == len(sorted):
		return len(sorted) - 1
	}

	// sorted[i-1] < v < sorted[i]
	if AbsDiff(v, sorted[i-1]) <= AbsDiff(sorted[i], v) {
		return i - 1
	}
	return i
}

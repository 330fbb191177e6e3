//go:build !linux && !darwin

package primebloom

// adviseRandom is a no-op where madvise is unavailable.
func adviseRandom(data []byte) {}

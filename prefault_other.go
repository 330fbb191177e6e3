//go:build !linux

package primebloom

// prefaultRegion is a no-op on non-Linux platforms.
func prefaultRegion(data []byte) {}

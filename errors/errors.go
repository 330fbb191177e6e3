// Package errors defines all exported error sentinels for the primebloom library.
//
// This is the single source of truth for error values. Both the top-level
// primebloom package and the internal packages import from here, so
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Argument errors. These are returned before any state is mutated.
var (
	ErrInvalidProbability = errors.New("primebloom: false positive probability must be in (0, 1]")
	ErrZeroCapacity       = errors.New("primebloom: capacity must be at least 1")
	ErrEmptyData          = errors.New("primebloom: data must not be empty")
	ErrBufferTooSmall     = errors.New("primebloom: buffer is smaller than the filter layout")
	ErrInvalidWorkers     = errors.New("primebloom: worker count must be at least 1")
	ErrUnknownHash        = errors.New("primebloom: unknown hash algorithm")
	ErrInvalidBound       = errors.New("primebloom: prime table bound must be at least 2")
)

// Construction errors
var (
	ErrAllocation = errors.New("primebloom: filter layout exceeds addressable memory")
)

// Lifecycle errors
var (
	ErrFilterClosed = errors.New("primebloom: filter is closed")
)

// File errors
var (
	ErrInvalidMagic   = errors.New("primebloom: invalid magic number")
	ErrInvalidVersion = errors.New("primebloom: unsupported version")
	ErrTruncatedFile  = errors.New("primebloom: filter file is truncated")
	ErrCorruptedFile  = errors.New("primebloom: filter file is corrupted")
	ErrChecksumFailed = errors.New("primebloom: filter bits checksum verification failed")
)

// Access errors
var (
	ErrReadOnly = errors.New("primebloom: filter is mapped read-only")
)

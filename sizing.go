package primebloom

import (
	"math"

	bloomerrors "github.com/tamirms/primebloom/errors"
)

const (
	// primeMargin is added to the average partition length when bounding the
	// prime table, so the optimizer has primes above the average to slide
	// towards. It is a heuristic, not a proven bound.
	primeMargin = 300

	// maxTargetBits keeps the filter-bit region addressable as a Go slice
	// once rounded up to bytes per partition.
	maxTargetBits = uint64(math.MaxInt64) / 2
)

// OptimalParams returns the ideal total bit length and the partition count
// for n elements at false positive probability p:
//
//	targetSize = ceil(n * ln(p) / ln(1 / 2^ln2))   (= -n ln p / ln²2)
//	k          = ceil(ln2 * targetSize / n)
//
// Both are at least 1, so p = 1 still yields a one-partition filter.
func OptimalParams(p float64, n uint64) (targetSize, k uint64, err error) {
	if err := checkParams(p, n); err != nil {
		return 0, 0, err
	}

	m := math.Ceil(float64(n) * math.Log(p) / math.Log(1/math.Pow(2, math.Ln2)))
	if m < 1 {
		m = 1
	}
	if m > float64(maxTargetBits) {
		return 0, 0, bloomerrors.ErrAllocation
	}
	targetSize = uint64(m)

	k = uint64(math.Ceil(math.Ln2 * m / float64(n)))
	if k < 1 {
		k = 1
	}
	return targetSize, k, nil
}

// checkParams rejects p outside (0, 1] (including NaN) and n == 0.
func checkParams(p float64, n uint64) error {
	if math.IsNaN(p) || p <= 0 || p > 1 {
		return bloomerrors.ErrInvalidProbability
	}
	if n == 0 {
		return bloomerrors.ErrZeroCapacity
	}
	return nil
}

// primeBound is the exclusive upper bound of the prime table for a filter of
// targetSize bits split into k partitions.
func primeBound(targetSize, k uint64) uint64 {
	return targetSize/k + primeMargin
}

// Package primes builds ascending prime tables for partition sizing.
package primes

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	bloomerrors "github.com/tamirms/primebloom/errors"
)

// maxBound caps the sieve at 2^40 candidates (a 128 GiB bitset). Anything
// larger cannot be backed by a filter anyway.
const maxBound = uint64(1) << 40

// Generate returns every prime strictly below max in ascending order.
//
// The sieve keeps one composite bit per candidate in [0, max). The output is
// pre-sized from ApproxCount and trimmed to the exact count before returning,
// so the caller owns a right-sized table and the sieve is garbage once
// Generate returns.
func Generate(max uint64) ([]uint64, error) {
	if max < 2 {
		return nil, bloomerrors.ErrInvalidBound
	}
	if max > maxBound {
		return nil, bloomerrors.ErrAllocation
	}

	composite := bitset.New(uint(max))
	limit := isqrt(max)
	for i := uint64(2); i <= limit; i++ {
		if composite.Test(uint(i)) {
			continue
		}
		for j := i * i; j < max; j += i {
			composite.Set(uint(j))
		}
	}

	table := make([]uint64, 0, ApproxCount(max))
	// NextClear may report padding bits past the bitset length; stop at max.
	for i, ok := composite.NextClear(2); ok && uint64(i) < max; i, ok = composite.NextClear(i + 1) {
		table = append(table, uint64(i))
	}

	if len(table) == cap(table) {
		return table, nil
	}
	exact := make([]uint64, len(table))
	copy(exact, table)
	return exact, nil
}

// ApproxCount returns an upper bound on the number of primes below max:
//
//	ceil(max/ln(max) * (1 + 1.2762/ln(max)))
//
// (Dusart's bound on the prime-counting function). Returns 0 for max < 2.
func ApproxCount(max uint64) int {
	if max < 2 {
		return 0
	}
	x := float64(max)
	lnx := math.Log(x)
	return int(math.Ceil(x / lnx * (1 + 1.2762/lnx)))
}

// IsPrime reports whether n is prime using 6k±1 trial division.
func IsPrime(n uint64) bool {
	switch {
	case n < 2:
		return false
	case n < 4:
		return true
	case n%2 == 0 || n%3 == 0:
		return false
	}
	for i := uint64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// isqrt returns floor(sqrt(n)).
func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	for r > 0 && r > n/r {
		r--
	}
	for r+1 <= n/(r+1) {
		r++
	}
	return r
}

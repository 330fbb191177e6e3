package primebloom

import (
	intbits "github.com/tamirms/primebloom/internal/bits"
	"github.com/tamirms/primebloom/internal/primes"
)

// planPartitions picks k prime partition lengths whose sum approximates
// targetSize. It returns the lengths in ascending order and their sum.
//
// The prime table is bounded by primeBound; when k is so large that the
// table holds fewer than k primes, the bound is doubled until it does.
func planPartitions(targetSize, k uint64) ([]uint64, uint64, error) {
	bound := primeBound(targetSize, k)
	for {
		table, err := primes.Generate(bound)
		if err != nil {
			return nil, 0, err
		}
		if uint64(len(table)) >= k {
			lengths, sum := choosePartitions(targetSize, k, table)
			return lengths, sum, nil
		}
		bound *= 2
	}
}

// choosePartitions selects a window of k consecutive primes from table.
//
// The window starts as the k primes ending at the prime nearest
// ceil(targetSize/k), clamped to the start of the table, and slides right one
// prime at a time while each slide strictly reduces |sum - targetSize|. The
// first non-improving slide ends the search. This assumes the deviation is
// unimodal over window positions, so the result is a local optimum.
//
// Precondition: len(table) >= k >= 1.
func choosePartitions(targetSize, k uint64, table []uint64) ([]uint64, uint64) {
	width := int(k)
	avg := (targetSize + k - 1) / k

	start := intbits.Nearest(table, avg) + 1 - width
	if start < 0 {
		start = 0
	}

	var sum uint64
	for _, p := range table[start : start+width] {
		sum += p
	}
	best := intbits.AbsDiff(sum, targetSize)

	for start+width < len(table) {
		next := sum + table[start+width] - table[start]
		d := intbits.AbsDiff(next, targetSize)
		if d >= best {
			break
		}
		sum, best = next, d
		start++
	}

	lengths := make([]uint64, width)
	copy(lengths, table[start:start+width])
	return lengths, sum
}

// partitionBytes returns ceil(bits/8).
func partitionBytes(bits uint64) uint64 {
	return (bits + 7) / 8
}

// layoutPartitions returns the byte offset of each partition within the
// filter-bit region and the total region size. Partitions are packed in
// order, each starting where the previous one's bytes end.
func layoutPartitions(lengths []uint64) (offsets []uint64, size uint64) {
	offsets = make([]uint64, len(lengths))
	for i, l := range lengths {
		offsets[i] = size
		size += partitionBytes(l)
	}
	return offsets, size
}

// Package primebloom implements a partitioned Bloom filter whose partitions
// have distinct prime bit lengths, designed to live inside larger binary
// structures (files, storage-engine pages).
//
// A filter for n elements at false positive probability p is sized with the
// classical formulas m = -n ln(p) / ln²2 and k = ceil(ln2 · m / n). The m bits
// are split into k partitions whose lengths are k consecutive primes with a
// sum close to m. One 64-bit digest per key, reduced modulo each partition
// length, picks one bit in every partition.
//
// # Basic Usage
//
//	f, err := primebloom.New(0.01, 1000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	if err := f.Add([]byte("alice")); err != nil {
//	    log.Fatal(err)
//	}
//	ok, _ := f.Test([]byte("alice")) // true
//	ok, _ = f.Test([]byte("bob"))    // false, or true with probability ~p
//
// # Embedding
//
// The whole filter is one contiguous byte buffer:
//
//	[prefix: PrefixLen bytes][partition 0 bits][partition 1 bits]...[partition k-1 bits]
//
// WithPrefixLen reserves caller-owned bytes ahead of the bits and WithBuffer
// mounts the filter on a caller buffer (for example a page of a larger file).
// The buffer holds plain bytes, so it can be persisted or memory-mapped as is.
// k and the partition lengths are not stored in it: rebuild them from the same
// (p, n) or persist them yourself. Create and Open do the latter, storing a
// header and partition table in the prefix of a memory-mapped file.
//
// # Package Structure
//
//   - Public API: filter.go (New, lifecycle, introspection), membership.go
//     (Add, Test, TestConstantTime), parallel.go (CountMembers)
//   - Configuration: options.go (Option, With* functions)
//   - Sizing: sizing.go (OptimalParams), partition.go (prime window search, layout)
//   - Digests: hash.go (HashAlgorithm)
//   - Persistence: header.go, file.go (Create, Open, Sync, Verify)
//   - Primes and search: internal/primes (sieve), internal/bits (nearest element)
//   - Platform: fallocate_*.go, prefault_*.go, advise_*.go
//
// # Concurrency
//
// There is no internal locking. Serialise Add calls externally; concurrent
// Test calls are safe while no Add is running.
package primebloom

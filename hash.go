package primebloom

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"

	bloomerrors "github.com/tamirms/primebloom/errors"
)

// HashAlgorithm identifies the 64-bit digest a filter derives its partition
// bits from. It is stored in the header of persisted filter files, so the
// numeric values are part of the file format.
type HashAlgorithm uint16

const (
	// HashXXH64 is xxHash64. With seed 0 it matches the canonical XXH64 digest.
	HashXXH64 HashAlgorithm = 0

	// HashXXH3 is xxHash3-64.
	HashXXH3 HashAlgorithm = 1

	// HashMurmur3 is the first 64 bits of MurmurHash3 x64-128.
	// Only the low 32 bits of the seed are used.
	HashMurmur3 HashAlgorithm = 2
)

// String returns the algorithm name.
func (a HashAlgorithm) String() string {
	switch a {
	case HashXXH64:
		return "xxh64"
	case HashXXH3:
		return "xxh3"
	case HashMurmur3:
		return "murmur3"
	default:
		return "unknown"
	}
}

func (a HashAlgorithm) valid() bool {
	return a <= HashMurmur3
}

// ParseHashAlgorithm maps a name accepted by String back to its algorithm.
func ParseHashAlgorithm(name string) (HashAlgorithm, error) {
	switch strings.ToLower(name) {
	case "xxh64", "xxhash", "xxhash64":
		return HashXXH64, nil
	case "xxh3":
		return HashXXH3, nil
	case "murmur3", "murmur":
		return HashMurmur3, nil
	}
	return 0, fmt.Errorf("%w: %q", bloomerrors.ErrUnknownHash, name)
}

// Sum64 returns the seeded digest of data.
func (a HashAlgorithm) Sum64(data []byte, seed uint64) uint64 {
	switch a {
	case HashXXH3:
		return xxh3.HashSeed(data, seed)
	case HashMurmur3:
		return murmur3.Sum64WithSeed(data, uint32(seed))
	default:
		if seed == 0 {
			return xxhash.Sum64(data)
		}
		d := xxhash.NewWithSeed(seed)
		_, _ = d.Write(data) // Digest.Write never fails
		return d.Sum64()
	}
}

func errUnknownHash(a HashAlgorithm) error {
	return fmt.Errorf("%w: %d", bloomerrors.ErrUnknownHash, uint16(a))
}

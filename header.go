package primebloom

import (
	"encoding/binary"
	"fmt"
	"math"

	bloomerrors "github.com/tamirms/primebloom/errors"
	"github.com/tamirms/primebloom/internal/primes"
)

const (
	// magic number for filter files: "PBLM" in little-endian
	magic = uint32(0x4D4C4250)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// partitionEntrySize is the size of each partition table entry (uint64 bit length)
	partitionEntrySize = 8

	// countOffset and checksumOffset locate the header fields Sync rewrites.
	countOffset    = 24
	checksumOffset = 48

	// maxPartitions rejects absurd partition counts from corrupted headers.
	// k = ceil(-log2 p), so 1024 covers any p a float64 can hold.
	maxPartitions = 1024
)

// header is the 64-byte file header. A filter file stores its metadata in the
// filter's own prefix region:
//
//	[Header 64B][Partition table k×8B][User prefix U bytes][Partition bits...]
//
// Layout:
//
//	Offset  Size  Field              Type
//	0       4     Magic              0x4D4C4250 ("PBLM")
//	4       2     Version            0x0001
//	6       2     Hash               uint16_le (HashAlgorithm)
//	8       8     FalsePositiveRate  float64 bits, le
//	16      8     Capacity           uint64_le
//	24      8     Count              uint64_le (updated by Sync)
//	32      4     NumPartitions      uint32_le (k)
//	36      4     UserPrefixLen      uint32_le (U)
//	40      8     Seed               uint64_le
//	48      8     BitsChecksum       uint64_le (xxHash64 of the bits, updated by Sync)
//	56      8     Reserved           [8]byte (zero)
type header struct {
	Magic             uint32        // 4 bytes: magic number 0x4D4C4250
	Version           uint16        // 2 bytes: format version
	Hash              HashAlgorithm // 2 bytes: digest algorithm
	FalsePositiveRate float64       // 8 bytes: target p
	Capacity          uint64        // 8 bytes: n
	Count             uint64        // 8 bytes: elements added
	NumPartitions     uint32        // 4 bytes: k
	UserPrefixLen     uint32        // 4 bytes: U
	Seed              uint64        // 8 bytes: digest seed
	BitsChecksum      uint64        // 8 bytes: xxHash64 of partition bits
	Reserved          [8]byte       // 8 bytes: reserved (zero)
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], uint16(h.Hash))
	binary.LittleEndian.PutUint64(buf[8:16], math.Float64bits(h.FalsePositiveRate))
	binary.LittleEndian.PutUint64(buf[16:24], h.Capacity)
	binary.LittleEndian.PutUint64(buf[24:32], h.Count)
	binary.LittleEndian.PutUint32(buf[32:36], h.NumPartitions)
	binary.LittleEndian.PutUint32(buf[36:40], h.UserPrefixLen)
	binary.LittleEndian.PutUint64(buf[40:48], h.Seed)
	binary.LittleEndian.PutUint64(buf[48:56], h.BitsChecksum)
	copy(buf[56:64], h.Reserved[:])
}

// decodeHeader parses a 64-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, bloomerrors.ErrTruncatedFile
	}

	h := &header{
		Magic:             binary.LittleEndian.Uint32(buf[0:4]),
		Version:           binary.LittleEndian.Uint16(buf[4:6]),
		Hash:              HashAlgorithm(binary.LittleEndian.Uint16(buf[6:8])),
		FalsePositiveRate: math.Float64frombits(binary.LittleEndian.Uint64(buf[8:16])),
		Capacity:          binary.LittleEndian.Uint64(buf[16:24]),
		Count:             binary.LittleEndian.Uint64(buf[24:32]),
		NumPartitions:     binary.LittleEndian.Uint32(buf[32:36]),
		UserPrefixLen:     binary.LittleEndian.Uint32(buf[36:40]),
		Seed:              binary.LittleEndian.Uint64(buf[40:48]),
		BitsChecksum:      binary.LittleEndian.Uint64(buf[48:56]),
	}
	copy(h.Reserved[:], buf[56:64])

	if h.Magic != magic {
		return nil, bloomerrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, bloomerrors.ErrInvalidVersion
	}
	if !h.Hash.valid() {
		return nil, errUnknownHash(h.Hash)
	}
	if err := checkParams(h.FalsePositiveRate, h.Capacity); err != nil {
		return nil, fmt.Errorf("%w: %w", bloomerrors.ErrCorruptedFile, err)
	}
	if h.NumPartitions == 0 || h.NumPartitions > maxPartitions {
		return nil, bloomerrors.ErrCorruptedFile
	}

	return h, nil
}

// metaSize returns the bytes ahead of the user prefix: header plus
// partition table.
func (h *header) metaSize() uint64 {
	return headerSize + uint64(h.NumPartitions)*partitionEntrySize
}

// encodePartitionTable writes the partition bit lengths after the header.
func encodePartitionTable(buf []byte, lengths []uint64) {
	for i, l := range lengths {
		binary.LittleEndian.PutUint64(buf[i*partitionEntrySize:], l)
	}
}

// decodePartitionTable reads k partition lengths. Every length must be prime,
// at most maxBits, and the table strictly ascending, as the optimizer always
// produces.
func decodePartitionTable(buf []byte, k int, maxBits uint64) ([]uint64, error) {
	if len(buf) < k*partitionEntrySize {
		return nil, bloomerrors.ErrTruncatedFile
	}
	lengths := make([]uint64, k)
	for i := range lengths {
		l := binary.LittleEndian.Uint64(buf[i*partitionEntrySize:])
		if l > maxBits {
			return nil, fmt.Errorf("%w: partition %d length %d exceeds file",
				bloomerrors.ErrCorruptedFile, i, l)
		}
		if !primes.IsPrime(l) {
			return nil, fmt.Errorf("%w: partition %d length %d is not prime",
				bloomerrors.ErrCorruptedFile, i, l)
		}
		if i > 0 && l <= lengths[i-1] {
			return nil, fmt.Errorf("%w: partition table not ascending at %d",
				bloomerrors.ErrCorruptedFile, i)
		}
		lengths[i] = l
	}
	return lengths, nil
}

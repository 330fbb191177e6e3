package primebloom

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"math/bits"
	"strings"

	bloomerrors "github.com/tamirms/primebloom/errors"
)

// Ownership records who is responsible for a filter's backing buffer.
type Ownership uint8

const (
	// Owned buffers were allocated by the filter and are dropped by Close.
	Owned Ownership = iota

	// Borrowed buffers were supplied with WithBuffer. Close never touches them.
	Borrowed

	// Mapped buffers are file mappings owned by the filter. Close unmaps them.
	Mapped
)

// String returns the ownership name.
func (o Ownership) String() string {
	switch o {
	case Owned:
		return "owned"
	case Borrowed:
		return "borrowed"
	case Mapped:
		return "mapped"
	default:
		return "unknown"
	}
}

// backing is the single contiguous buffer holding the prefix and the
// partition bits. Only the owning variants have anything to release.
type backing interface {
	bytes() []byte
	ownership() Ownership
	release() error
}

type heapBuffer []byte

func (b heapBuffer) bytes() []byte        { return b }
func (b heapBuffer) ownership() Ownership { return Owned }
func (b heapBuffer) release() error       { return nil }

type borrowedBuffer []byte

func (b borrowedBuffer) bytes() []byte        { return b }
func (b borrowedBuffer) ownership() Ownership { return Borrowed }
func (b borrowedBuffer) release() error       { return nil }

// Filter is a partitioned Bloom filter whose k partitions have distinct
// prime bit lengths. A single digest of the key, reduced modulo each
// partition length, selects one bit per partition.
//
// Buffer layout:
//
//	[prefix: PrefixLen bytes][partition 0: ceil(len0/8) bytes]...[partition k-1]
//
// Bit b of a partition lives in byte b/8 under mask 1<<(b%8). Neither k nor
// the partition lengths are stored in the buffer; recompute them from the
// same (p, n) or persist them alongside it (see Create).
//
// Thread Safety:
//   - Filter performs no locking.
//   - Add is a non-atomic read-modify-write of single bytes. Concurrent Add
//     calls race and can lose bits, so writers must be serialised externally.
//   - Test, TestConstantTime and CountMembers may run concurrently with each
//     other while no Add is in flight. A Test that overlaps an Add may miss
//     bits that Add has not set yet.
//   - Close must not be called concurrently with any other method.
type Filter struct {
	p         float64
	capacity  uint64
	count     uint64
	lengths   []uint64 // Prime bit length per partition, ascending
	offsets   []uint64 // Byte offset per partition within bits
	size      uint64   // Bytes of partition bits
	prefixLen uint64

	buf  backing
	data []byte // Whole layout: prefix + bits
	bits []byte // data[prefixLen:]

	hash     HashAlgorithm
	seed     uint64
	readOnly bool
	closed   bool
	logger   *slog.Logger
}

// Stats holds filter statistics.
type Stats struct {
	Capacity                   uint64
	Count                      uint64
	NumPartitions              int
	SizeBytes                  uint64
	TotalBytes                 uint64
	PrefixBytes                uint64
	BitsPerElement             float64
	TargetFalsePositiveRate    float64
	EstimatedFalsePositiveRate float64
	FillRatio                  float64
	Hash                       HashAlgorithm
	Ownership                  Ownership
}

// New creates a filter sized for n elements at false positive probability p.
//
// The ideal total bit length and partition count come from OptimalParams;
// the partition lengths are k consecutive primes whose sum approximates the
// ideal length. Without WithBuffer the filter allocates a zeroed buffer of
// TotalSize bytes. With WithBuffer the existing buffer is mounted as-is.
//
// Returns ErrInvalidProbability, ErrZeroCapacity, ErrUnknownHash,
// ErrBufferTooSmall or ErrAllocation. No filter is returned on error.
func New(p float64, n uint64, opts ...Option) (*Filter, error) {
	if err := checkParams(p, n); err != nil {
		return nil, err
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	lengths, err := sizePartitions(p, n, cfg.logger)
	if err != nil {
		return nil, err
	}
	return mount(p, n, lengths, cfg, nil)
}

// sizePartitions runs OptimalParams and the partition optimizer.
func sizePartitions(p float64, n uint64, logger *slog.Logger) ([]uint64, error) {
	targetSize, k, err := OptimalParams(p, n)
	if err != nil {
		return nil, err
	}
	lengths, sum, err := planPartitions(targetSize, k)
	if err != nil {
		return nil, fmt.Errorf("plan partitions: %w", err)
	}
	logger.Debug("sized bloom filter",
		"p", p,
		"n", n,
		"target_bits", targetSize,
		"k", k,
		"bits", sum,
		"lengths", lengths)
	return lengths, nil
}

// mount builds a Filter over lengths. If buf is nil the buffer comes from
// cfg.buffer (borrowed) or a fresh allocation (owned).
func mount(p float64, n uint64, lengths []uint64, cfg *config, buf backing) (*Filter, error) {
	offsets, size := layoutPartitions(lengths)
	if cfg.prefixLen > uint64(math.MaxInt)-size {
		return nil, bloomerrors.ErrAllocation
	}
	totalSize := size + cfg.prefixLen

	if buf == nil {
		if cfg.buffer != nil {
			if uint64(len(cfg.buffer)) < totalSize {
				return nil, fmt.Errorf("%w: have %d bytes, need %d",
					bloomerrors.ErrBufferTooSmall, len(cfg.buffer), totalSize)
			}
			buf = borrowedBuffer(cfg.buffer)
		} else {
			buf = heapBuffer(make([]byte, totalSize))
		}
	} else if uint64(len(buf.bytes())) < totalSize {
		return nil, fmt.Errorf("%w: have %d bytes, need %d",
			bloomerrors.ErrBufferTooSmall, len(buf.bytes()), totalSize)
	}

	data := buf.bytes()[:totalSize:totalSize]
	return &Filter{
		p:         p,
		capacity:  n,
		count:     cfg.count,
		lengths:   lengths,
		offsets:   offsets,
		size:      size,
		prefixLen: cfg.prefixLen,
		buf:       buf,
		data:      data,
		bits:      data[cfg.prefixLen:],
		hash:      cfg.hash,
		seed:      cfg.seed,
		readOnly:  cfg.readOnly,
		logger:    cfg.logger,
	}, nil
}

// Close tears the filter down. Owned buffers are dropped, mapped buffers are
// unmapped, and borrowed buffers are left untouched. All fields are reset
// and later Add/Test calls return ErrFilterClosed. Close is idempotent.
//
// Slices previously returned by Prefix, Bits or Bytes must not be used after
// closing a mapped filter.
func (f *Filter) Close() error {
	if f.closed {
		return nil
	}
	var err error
	if f.buf != nil {
		err = f.buf.release()
	}
	*f = Filter{closed: true, logger: f.logger}
	return err
}

// Reset clears every filter bit and the element counter. The prefix is left
// as is.
func (f *Filter) Reset() error {
	if f.closed {
		return bloomerrors.ErrFilterClosed
	}
	if f.readOnly {
		return bloomerrors.ErrReadOnly
	}
	clear(f.bits)
	f.count = 0
	return nil
}

// RemainingCapacity returns max(0, Capacity - Count). Capacity is advisory:
// inserting past it only raises the false positive rate.
func (f *Filter) RemainingCapacity() uint64 {
	if f.count >= f.capacity {
		return 0
	}
	return f.capacity - f.count
}

// Capacity returns the number of elements the filter was sized for.
func (f *Filter) Capacity() uint64 { return f.capacity }

// Count returns the number of Add calls since construction or Reset.
func (f *Filter) Count() uint64 { return f.count }

// K returns the number of partitions.
func (f *Filter) K() int { return len(f.lengths) }

// PartitionLengths returns a copy of the per-partition bit lengths.
func (f *Filter) PartitionLengths() []uint64 {
	return append([]uint64(nil), f.lengths...)
}

// FalsePositiveRate returns the target false positive probability.
func (f *Filter) FalsePositiveRate() float64 { return f.p }

// Size returns the number of bytes holding partition bits.
func (f *Filter) Size() uint64 { return f.size }

// TotalSize returns PrefixLen + Size.
func (f *Filter) TotalSize() uint64 { return f.size + f.prefixLen }

// PrefixLen returns the number of caller-reserved bytes ahead of the bits.
func (f *Filter) PrefixLen() uint64 { return f.prefixLen }

// Prefix returns the caller-reserved region at the start of the buffer.
func (f *Filter) Prefix() []byte { return f.data[:f.prefixLen] }

// Bits returns the partition bit region.
func (f *Filter) Bits() []byte { return f.bits }

// Bytes returns the whole layout, prefix included, ready to persist.
func (f *Filter) Bytes() []byte { return f.data }

// Hash returns the digest algorithm.
func (f *Filter) Hash() HashAlgorithm { return f.hash }

// Seed returns the digest seed.
func (f *Filter) Seed() uint64 { return f.seed }

// Ownership reports who owns the backing buffer.
func (f *Filter) Ownership() Ownership {
	if f.buf == nil {
		return Owned
	}
	return f.buf.ownership()
}

// EstimatedFillRatio returns the fraction of partition bits that are set.
func (f *Filter) EstimatedFillRatio() float64 {
	var total uint64
	for _, l := range f.lengths {
		total += l
	}
	if total == 0 {
		return 0
	}
	return float64(popcount(f.bits)) / float64(total)
}

// EstimatedFalsePositiveRate estimates the current false positive rate from
// the element count. A key is a false positive when its bit is already set
// in every partition:
//
//	prod_i (1 - (1 - 1/len_i)^count)
func (f *Filter) EstimatedFalsePositiveRate() float64 {
	if f.count == 0 || len(f.lengths) == 0 {
		return 0
	}
	n := float64(f.count)
	rate := 1.0
	for _, l := range f.lengths {
		rate *= 1 - math.Pow(1-1/float64(l), n)
	}
	return rate
}

// Stats returns statistics for the filter.
func (f *Filter) Stats() *Stats {
	bitsPerElement := float64(0)
	if f.capacity > 0 {
		bitsPerElement = float64(f.size*8) / float64(f.capacity)
	}
	return &Stats{
		Capacity:                   f.capacity,
		Count:                      f.count,
		NumPartitions:              len(f.lengths),
		SizeBytes:                  f.size,
		TotalBytes:                 f.TotalSize(),
		PrefixBytes:                f.prefixLen,
		BitsPerElement:             bitsPerElement,
		TargetFalsePositiveRate:    f.p,
		EstimatedFalsePositiveRate: f.EstimatedFalsePositiveRate(),
		FillRatio:                  f.EstimatedFillRatio(),
		Hash:                       f.hash,
		Ownership:                  f.Ownership(),
	}
}

// Describe returns a human-readable summary of the filter's sizing.
func (f *Filter) Describe() string {
	var sb strings.Builder
	sb.WriteString("Bloom filter stats\n--------\n")
	fmt.Fprintf(&sb, "Size: %d bytes (%d bits)\n", f.size, f.size*8)
	fmt.Fprintf(&sb, "Capacity: %d (%d used)\n", f.capacity, f.count)
	fmt.Fprintf(&sb, "Number of partitions: %d\n", len(f.lengths))
	fmt.Fprintf(&sb, "Target false positive rate: %.10f\n", f.p)
	sb.WriteString("Partition sizes (bits): ")
	for i, l := range f.lengths {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", l)
	}
	sb.WriteString("\n")
	return sb.String()
}

// String implements fmt.Stringer.
func (f *Filter) String() string {
	return fmt.Sprintf("primebloom.Filter{k=%d size=%d capacity=%d count=%d p=%g}",
		len(f.lengths), f.size, f.capacity, f.count, f.p)
}

// popcount counts set bits in b, eight bytes at a time.
func popcount(b []byte) uint64 {
	var n uint64
	for len(b) >= 8 {
		n += uint64(bits.OnesCount64(binary.LittleEndian.Uint64(b)))
		b = b[8:]
	}
	for _, c := range b {
		n += uint64(bits.OnesCount8(c))
	}
	return n
}

package primebloom

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"

	bloomerrors "github.com/tamirms/primebloom/errors"
)

// mappedBuffer is a file mapping owned by the filter.
type mappedBuffer struct {
	mm mmap.MMap
}

func (b mappedBuffer) bytes() []byte        { return b.mm }
func (b mappedBuffer) ownership() Ownership { return Mapped }
func (b mappedBuffer) release() error       { return b.mm.Unmap() }

// File is a filter persisted in a memory-mapped file.
//
// The file is exactly the filter layout, with the filter's prefix region
// holding a header and the partition table ahead of the caller's own prefix:
//
//	[Header 64B][Partition table k×8B][User prefix][Partition bits...]
//
// Adds write straight into the mapping. Sync records the element count and a
// checksum of the bits in the header and flushes the mapping to disk.
//
// Thread Safety: same contract as Filter. Close must only be called after
// all other calls have completed.
type File struct {
	path     string
	mmap     mmap.MMap
	filter   *Filter
	meta     uint64 // header + partition table bytes
	readOnly bool
	logger   *slog.Logger

	closed atomic.Bool
}

// Create creates (or truncates) a filter file at path sized for n elements at
// false positive probability p. WithPrefixLen reserves a user prefix after the
// file metadata; WithHash and WithSeed are recorded in the header. WithBuffer
// is ignored.
func Create(path string, p float64, n uint64, opts ...Option) (*File, error) {
	if err := checkParams(p, n); err != nil {
		return nil, err
	}
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	if cfg.prefixLen > math.MaxUint32 {
		return nil, bloomerrors.ErrAllocation
	}

	lengths, err := sizePartitions(p, n, cfg.logger)
	if err != nil {
		return nil, err
	}

	hdr := header{
		Magic:             magic,
		Version:           version,
		Hash:              cfg.hash,
		FalsePositiveRate: p,
		Capacity:          n,
		NumPartitions:     uint32(len(lengths)),
		UserPrefixLen:     uint32(cfg.prefixLen),
		Seed:              cfg.seed,
	}
	meta := hdr.metaSize()
	_, size := layoutPartitions(lengths)
	totalSize := meta + cfg.prefixLen + size
	if totalSize > math.MaxInt {
		return nil, bloomerrors.ErrAllocation
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create filter file: %w", err)
	}
	// The mapping stays valid after the descriptor is closed.
	defer file.Close()

	if err := fallocateFile(file, int64(totalSize)); err != nil {
		primaryErr := fmt.Errorf("allocate disk space: %w", err)
		return nil, errors.Join(primaryErr, os.Remove(path))
	}

	mm, err := mmap.MapRegion(file, int(totalSize), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap filter file: %w", err)
		return nil, errors.Join(primaryErr, os.Remove(path))
	}
	prefaultRegion(mm)
	adviseRandom(mm)

	hdr.BitsChecksum = xxhash.Sum64(mm[meta+cfg.prefixLen:])
	hdr.encodeTo(mm[:headerSize])
	encodePartitionTable(mm[headerSize:meta], lengths)

	fileCfg := *cfg
	fileCfg.prefixLen = meta + cfg.prefixLen
	fileCfg.count = 0
	fileCfg.readOnly = false
	f, err := mount(p, n, lengths, &fileCfg, mappedBuffer{mm: mm})
	if err != nil {
		return nil, errors.Join(err, mm.Unmap(), os.Remove(path))
	}

	cfg.logger.Debug("created filter file",
		"path", path,
		"bytes", totalSize,
		"k", len(lengths),
		"hash", cfg.hash.String())

	return &File{
		path:   path,
		mmap:   mm,
		filter: f,
		meta:   meta,
		logger: cfg.logger,
	}, nil
}

// Open maps an existing filter file. The partition lengths, hash, seed and
// element count come from the file; WithReadOnly maps it read-only and
// WithLogger is honoured. Other options are ignored.
func Open(path string, opts ...Option) (*File, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	flag, prot := os.O_RDWR, mmap.RDWR
	if cfg.readOnly {
		flag, prot = os.O_RDONLY, mmap.RDONLY
	}
	file, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, fmt.Errorf("open filter file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat filter file: %w", err)
	}
	if stat.Size() < headerSize {
		return nil, bloomerrors.ErrTruncatedFile
	}

	mm, err := mmap.Map(file, prot, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap filter file: %w", err)
	}

	ff, err := openMapping(path, mm, cfg)
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	adviseRandom(mm)

	cfg.logger.Debug("opened filter file",
		"path", path,
		"bytes", len(mm),
		"k", ff.filter.K(),
		"count", ff.filter.Count(),
		"read_only", cfg.readOnly)
	return ff, nil
}

// openMapping validates the header and partition table in mm and mounts the
// filter over it.
func openMapping(path string, mm mmap.MMap, cfg *config) (*File, error) {
	fileSize := uint64(len(mm))

	hdr, err := decodeHeader(mm[:headerSize])
	if err != nil {
		return nil, err
	}

	meta := hdr.metaSize()
	if meta > fileSize {
		return nil, bloomerrors.ErrTruncatedFile
	}
	lengths, err := decodePartitionTable(mm[headerSize:meta], int(hdr.NumPartitions), fileSize*8)
	if err != nil {
		return nil, err
	}

	prefixLen := meta + uint64(hdr.UserPrefixLen)
	_, size := layoutPartitions(lengths)
	switch want := prefixLen + size; {
	case want > fileSize:
		return nil, bloomerrors.ErrTruncatedFile
	case want < fileSize:
		return nil, fmt.Errorf("%w: %d trailing bytes", bloomerrors.ErrCorruptedFile, fileSize-want)
	}

	fileCfg := *cfg
	fileCfg.prefixLen = prefixLen
	fileCfg.hash = hdr.Hash
	fileCfg.seed = hdr.Seed
	fileCfg.count = hdr.Count
	f, err := mount(hdr.FalsePositiveRate, hdr.Capacity, lengths, &fileCfg, mappedBuffer{mm: mm})
	if err != nil {
		return nil, err
	}

	return &File{
		path:     path,
		mmap:     mm,
		filter:   f,
		meta:     meta,
		readOnly: cfg.readOnly,
		logger:   cfg.logger,
	}, nil
}

// Filter returns the mounted filter. It is invalid after Close.
func (ff *File) Filter() *Filter {
	return ff.filter
}

// Path returns the file path.
func (ff *File) Path() string {
	return ff.path
}

// UserPrefix returns the caller-reserved bytes that follow the file metadata.
// The returned slice is backed by the mapping.
func (ff *File) UserPrefix() []byte {
	return ff.filter.Prefix()[ff.meta:]
}

// Sync writes the element count and bits checksum into the header and
// flushes the mapping to disk. It is a no-op for read-only files.
func (ff *File) Sync() error {
	if ff.closed.Load() || ff.filter.closed {
		return bloomerrors.ErrFilterClosed
	}
	if ff.readOnly {
		return nil
	}
	return ff.flush()
}

func (ff *File) flush() error {
	binary.LittleEndian.PutUint64(ff.mmap[countOffset:], ff.filter.Count())
	binary.LittleEndian.PutUint64(ff.mmap[checksumOffset:], xxhash.Sum64(ff.filter.Bits()))
	if err := ff.mmap.Flush(); err != nil {
		return fmt.Errorf("flush filter file: %w", err)
	}
	return nil
}

// Verify checks the partition bits against the checksum recorded by the
// last Sync (or Create). Adds since then make Verify fail until the next Sync.
func (ff *File) Verify() error {
	if ff.closed.Load() || ff.filter.closed {
		return bloomerrors.ErrFilterClosed
	}
	want := binary.LittleEndian.Uint64(ff.mmap[checksumOffset:])
	if xxhash.Sum64(ff.filter.Bits()) != want {
		return bloomerrors.ErrChecksumFailed
	}
	return nil
}

// Close syncs a writable file, then unmaps it. Close is idempotent.
func (ff *File) Close() error {
	if ff.closed.Swap(true) {
		return nil
	}
	if ff.filter.closed {
		// Torn down through Filter().Close(); the mapping is already gone.
		return nil
	}

	var syncErr error
	if !ff.readOnly {
		syncErr = ff.flush()
	}
	ff.logger.Debug("closed filter file", "path", ff.path)
	return errors.Join(syncErr, ff.filter.Close())
}

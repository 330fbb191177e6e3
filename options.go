package primebloom

import "log/slog"

// Option is a functional option for configuring filter construction.
type Option func(*config)

type config struct {
	buffer    []byte // Caller-owned backing buffer (nil = allocate)
	prefixLen uint64 // Caller-reserved bytes ahead of the filter bits
	hash      HashAlgorithm
	seed      uint64
	count     uint64 // Element count carried over from a persisted buffer
	readOnly  bool   // Map files read-only (Open only)
	logger    *slog.Logger
}

func defaultConfig() *config {
	return &config{
		hash:   HashXXH64,
		logger: slog.New(slog.DiscardHandler),
	}
}

func newConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if !cfg.hash.valid() {
		return nil, errUnknownHash(cfg.hash)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg, nil
}

// WithBuffer mounts the filter on a caller-supplied buffer instead of
// allocating one. The buffer must be at least TotalSize bytes; its existing
// contents are kept, which is how a persisted filter is re-attached. The
// filter never releases a borrowed buffer, so it must outlive the filter.
// Ignored by Create and Open, which always map their file.
func WithBuffer(buf []byte) Option {
	return func(c *config) {
		c.buffer = buf
	}
}

// WithPrefixLen reserves n bytes ahead of the filter bits for caller
// metadata. The filter never reads or writes the prefix. For Create, n is
// the size of the user prefix that follows the file header.
func WithPrefixLen(n uint64) Option {
	return func(c *config) {
		c.prefixLen = n
	}
}

// WithHash selects the digest used to derive partition bits.
// Default is HashXXH64.
func WithHash(algo HashAlgorithm) Option {
	return func(c *config) {
		c.hash = algo
	}
}

// WithSeed sets the digest seed. Default is 0.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithCount restores the element counter when mounting a buffer that already
// holds inserted elements.
func WithCount(n uint64) Option {
	return func(c *config) {
		c.count = n
	}
}

// WithReadOnly maps the file read-only. Only meaningful for Open; Add and
// Reset on such a filter return ErrReadOnly.
func WithReadOnly() Option {
	return func(c *config) {
		c.readOnly = true
	}
}

// WithLogger sets the logger used for construction and file diagnostics.
// Nothing is logged on the per-key path.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// Package fnv1a implements a streaming FNV-1a hash accumulator.
//
// A Hash starts at the offset basis of its width and folds bytes in as they are
// added. It is never reset: hashing another key takes a new Hash.
package fnv1a

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/aglyzov/go-hashtree/alloc"
	"github.com/aglyzov/go-hashtree/internal/errs"
)

var (
	ErrInvalidArgument = errs.ErrInvalidArgument
	ErrOutOfMemory     = errs.ErrOutOfMemory
)

// Width selects the digest size in bits.
type Width uint8

const (
	Width32 Width = 32
	Width64 Width = 64
)

const (
	offset32 uint32 = 0x811c9dc5
	prime32  uint32 = 0x01000193

	offset64 uint64 = 0xcbf29ce484222325
	prime64  uint64 = 0x100000001b3
)

var hashSize = int64(unsafe.Sizeof(Hash{}))

func (w Width) valid() bool {
	return w == Width32 || w == Width64
}

func (w Width) offset() uint64 {
	if w == Width32 {
		return uint64(offset32)
	}
	return offset64
}

// Hash is an FNV-1a accumulator.
type Hash struct {
	digest uint64
	width  Width
	acct   alloc.Allocator
}

type config struct {
	width Width
	acct  alloc.Allocator
}

// Option configures a Hash.
type Option func(*config)

// WithWidth selects a 32- or 64-bit digest (64 by default).
func WithWidth(w Width) Option {
	return func(c *config) { c.width = w }
}

// WithAllocator accounts the accumulator's storage against a.
func WithAllocator(a alloc.Allocator) Option {
	return func(c *config) { c.acct = a }
}

// New returns an accumulator holding the offset basis of the configured width.
func New(opts ...Option) (*Hash, error) {
	cfg := config{width: Width64}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.width.valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "fnv1a: unsupported width %d", cfg.width)
	}

	acct := alloc.OrSystem(cfg.acct)
	if err := acct.Allocate(hashSize); err != nil {
		return nil, errors.Wrap(err, "fnv1a: new")
	}

	return &Hash{
		digest: cfg.width.offset(),
		width:  cfg.width,
		acct:   acct,
	}, nil
}

// Width returns the digest size, or 0 for a nil Hash.
func (h *Hash) Width() Width {
	if h == nil {
		return 0
	}
	return h.width
}

// Add folds buf into the digest and returns the updated value.
//
// An empty buf is rejected rather than treated as a no-op.
func (h *Hash) Add(buf []byte) (uint64, error) {
	if h == nil || h.acct == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "fnv1a: add to a nil hash")
	}
	if len(buf) == 0 {
		return 0, errors.Wrap(ErrInvalidArgument, "fnv1a: add of an empty buffer")
	}

	// XOR touches only the low byte; the multiplication wraps at the width.
	switch h.width {
	case Width32:
		d := uint32(h.digest)
		for _, b := range buf {
			d ^= uint32(b)
			d *= prime32
		}
		h.digest = uint64(d)
	default:
		d := h.digest
		for _, b := range buf {
			d ^= uint64(b)
			d *= prime64
		}
		h.digest = d
	}

	return h.digest, nil
}

// Sum returns the current digest without changing it.
func (h *Hash) Sum() (uint64, error) {
	if h == nil || h.acct == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "fnv1a: sum of a nil hash")
	}
	return h.digest, nil
}

// Destroy releases the accumulator. The Hash must not be used afterwards.
func (h *Hash) Destroy() {
	if h == nil || h.acct == nil {
		return
	}
	h.acct.Release(hashSize)
	h.acct = nil
}

// Digest hashes buf with a fresh accumulator of the given width.
func Digest(w Width, buf []byte, opts ...Option) (uint64, error) {
	h, err := New(append(opts, WithWidth(w))...)
	if err != nil {
		return 0, err
	}
	defer h.Destroy()

	return h.Add(buf)
}

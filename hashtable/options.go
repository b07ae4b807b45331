package hashtable

import (
	"go.uber.org/zap"

	"github.com/aglyzov/go-hashtree/alloc"
	"github.com/aglyzov/go-hashtree/fnv1a"
)

type config struct {
	width    fnv1a.Width
	acct     alloc.Allocator
	log      *zap.Logger
	poolSize int
}

func defaultConfig() config {
	return config{
		width: fnv1a.Width64,
		log:   zap.NewNop(),
	}
}

// Option configures a Table.
type Option func(*config)

// WithWidth selects the digest width (64 bits by default).
func WithWidth(w fnv1a.Width) Option {
	return func(c *config) { c.width = w }
}

// WithAllocator accounts buckets, tree nodes and hash accumulators against a.
func WithAllocator(a alloc.Allocator) Option {
	return func(c *config) { c.acct = a }
}

// WithLogger sets the logger for construction, teardown and digest collisions.
func WithLogger(log *zap.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPoolSize preallocates room for n tree nodes shared by all buckets.
func WithPoolSize(n int) Option {
	return func(c *config) { c.poolSize = n }
}

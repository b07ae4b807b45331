// Package hashtable implements a fixed-size hash table whose buckets are
// red-black trees.
//
// A key is hashed with FNV-1a and the digest selects a bucket (digest modulo
// the bucket count). Inside the bucket the digest itself is the tree key, so a
// lookup costs O(log n) even when many keys land in the same bucket.
//
// The table does not store the original key bytes. Two distinct keys with the
// same digest are indistinguishable: the second Add fails with
// ErrAlreadyExists. A 64-bit digest makes this rare; a 32-bit one does not.
//
// A Table is meant for a single owner and is not safe for concurrent use.
package hashtable

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/aglyzov/go-hashtree/alloc"
	"github.com/aglyzov/go-hashtree/fnv1a"
	"github.com/aglyzov/go-hashtree/internal/errs"
	"github.com/aglyzov/go-hashtree/rbtree"
)

var (
	ErrInvalidArgument = errs.ErrInvalidArgument
	ErrOutOfMemory     = errs.ErrOutOfMemory
	ErrNotFound        = errs.ErrNotFound
	ErrAlreadyExists   = errs.ErrAlreadyExists
)

type bucket struct {
	tree *rbtree.Tree
}

var bucketSize = int64(unsafe.Sizeof(bucket{}))

// Table maps byte-string keys to values.
type Table struct {
	buckets  []bucket
	occupied occupancy
	pool     *rbtree.Pool
	width    fnv1a.Width
	acct     alloc.Allocator
	log      *zap.Logger
	size     int
}

// Stats describes how entries are spread over the buckets.
type Stats struct {
	Buckets  int // number of buckets
	Occupied int // buckets holding at least one entry
	Entries  int // total number of entries
	Deepest  int // entries in the fullest bucket
}

// New returns a table with bucketCount empty buckets.
func New(bucketCount int, opts ...Option) (*Table, error) {
	if bucketCount <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "hashtable: bucket count %d", bucketCount)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.width != fnv1a.Width32 && cfg.width != fnv1a.Width64 {
		return nil, errors.Wrapf(ErrInvalidArgument, "hashtable: digest width %d", cfg.width)
	}

	var (
		acct     = alloc.OrSystem(cfg.acct)
		occupied = newOccupancy(bucketCount)
		reserved = int64(bucketCount)*bucketSize + occupied.size()
	)

	if err := acct.Allocate(reserved); err != nil {
		return nil, errors.Wrapf(err, "hashtable: allocating %d buckets", bucketCount)
	}

	pool, err := rbtree.NewPool(cfg.poolSize, acct)
	if err != nil {
		acct.Release(reserved)
		return nil, err
	}

	t := &Table{
		buckets:  make([]bucket, bucketCount),
		occupied: occupied,
		pool:     pool,
		width:    cfg.width,
		acct:     acct,
		log:      cfg.log,
	}

	for i := range t.buckets {
		tree, err := rbtree.New(rbtree.WithPool(pool), rbtree.WithAllocator(acct))
		if err != nil {
			t.Destroy()
			return nil, errors.Wrapf(err, "hashtable: creating bucket %d", i)
		}
		t.buckets[i].tree = tree
	}

	t.log.Debug("hashtable created",
		zap.Int("buckets", bucketCount),
		zap.Uint8("width", uint8(cfg.width)),
		zap.Int("pool", cfg.poolSize))

	return t, nil
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

// BucketCount returns the fixed number of buckets.
func (t *Table) BucketCount() int {
	if t == nil {
		return 0
	}
	return len(t.buckets)
}

func (t *Table) valid() bool {
	return t != nil && t.buckets != nil
}

// locate hashes key with a fresh accumulator and selects its bucket.
func (t *Table) locate(key []byte) (uint64, int, error) {
	h, err := fnv1a.New(fnv1a.WithWidth(t.width), fnv1a.WithAllocator(t.acct))
	if err != nil {
		return 0, 0, err
	}
	defer h.Destroy()

	digest, err := h.Add(key)
	if err != nil {
		return 0, 0, err
	}

	return digest, int(digest % uint64(len(t.buckets))), nil
}

// Add stores val under key. A key that is already present (or that shares its
// digest with a present key) is rejected with ErrAlreadyExists.
func (t *Table) Add(key []byte, val any) error {
	if !t.valid() {
		return errors.Wrap(ErrInvalidArgument, "hashtable: add to a nil table")
	}

	digest, idx, err := t.locate(key)
	if err != nil {
		return err
	}

	if err := t.buckets[idx].tree.Insert(digest, val); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			t.log.Debug("hashtable digest taken",
				zap.Uint64("digest", digest), zap.Int("bucket", idx))
		}
		return err
	}

	t.occupied.set(idx)
	t.size++

	return nil
}

// Get returns the value stored under key.
func (t *Table) Get(key []byte) (any, error) {
	if !t.valid() {
		return nil, errors.Wrap(ErrInvalidArgument, "hashtable: get from a nil table")
	}

	digest, idx, err := t.locate(key)
	if err != nil {
		return nil, err
	}

	return t.buckets[idx].tree.Find(digest)
}

// Remove deletes key and returns the value it held.
func (t *Table) Remove(key []byte) (any, error) {
	if !t.valid() {
		return nil, errors.Wrap(ErrInvalidArgument, "hashtable: remove from a nil table")
	}

	digest, idx, err := t.locate(key)
	if err != nil {
		return nil, err
	}

	tree := t.buckets[idx].tree

	val, err := tree.Remove(digest)
	if err != nil {
		return nil, err
	}

	if tree.Len() == 0 {
		t.occupied.clear(idx)
	}
	t.size--

	return val, nil
}

// Enumerate calls visit for every entry, bucket by bucket and in ascending
// digest order within a bucket, until visit returns false.
// The visitor must not modify the table.
func (t *Table) Enumerate(visit func(digest uint64, val any) bool) error {
	if !t.valid() {
		return errors.Wrap(ErrInvalidArgument, "hashtable: enumerate a nil table")
	}
	if visit == nil {
		return errors.Wrap(ErrInvalidArgument, "hashtable: enumerate with a nil visitor")
	}

	more := true
	for i := range t.buckets {
		if !more {
			break
		}
		if !t.occupied.has(i) {
			continue
		}
		err := t.buckets[i].tree.Enumerate(func(digest uint64, val any) bool {
			more = visit(digest, val)
			return more
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Stats reports the bucket occupancy.
func (t *Table) Stats() Stats {
	if !t.valid() {
		return Stats{}
	}

	s := Stats{
		Buckets:  len(t.buckets),
		Occupied: t.occupied.count(),
		Entries:  t.size,
	}
	for i := range t.buckets {
		if n := t.buckets[i].tree.Len(); n > s.Deepest {
			s.Deepest = n
		}
	}

	return s
}

// Verify checks every bucket tree and the table's bookkeeping.
func (t *Table) Verify() error {
	if !t.valid() {
		return errors.Wrap(ErrInvalidArgument, "hashtable: verify a nil table")
	}

	total := 0
	for i := range t.buckets {
		tree := t.buckets[i].tree
		if err := tree.Verify(); err != nil {
			return errors.Wrapf(err, "bucket %d", i)
		}
		if (tree.Len() > 0) != t.occupied.has(i) {
			return errors.AssertionFailedf("bucket %d holds %d entries but occupancy is %t",
				i, tree.Len(), t.occupied.has(i))
		}

		var misplaced error
		_ = tree.Enumerate(func(digest uint64, _ any) bool {
			if want := int(digest % uint64(len(t.buckets))); want != i {
				misplaced = errors.AssertionFailedf("digest %d sits in bucket %d, expected %d", digest, i, want)
				return false
			}
			return true
		})
		if misplaced != nil {
			return misplaced
		}

		total += tree.Len()
	}

	if total != t.size {
		return errors.AssertionFailedf("buckets hold %d entries but the table reports %d", total, t.size)
	}

	return nil
}

// Destroy releases every bucket and the shared node pool.
// Values are not touched. The table must not be used afterwards.
func (t *Table) Destroy() {
	if !t.valid() {
		return
	}

	entries := t.size
	for i := range t.buckets {
		if tree := t.buckets[i].tree; tree != nil {
			tree.Destroy()
		}
	}
	t.pool.Close()
	t.acct.Release(int64(len(t.buckets))*bucketSize + t.occupied.size())

	t.log.Debug("hashtable destroyed",
		zap.Int("buckets", len(t.buckets)), zap.Int("entries", entries))

	*t = Table{log: t.log}
}

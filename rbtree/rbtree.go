// Package rbtree implements a red-black tree keyed by uint64.
//
// Nodes live in a Pool and refer to each other by index, so rotations and
// deletions never leave dangling references behind. Values are borrowed: the
// tree stores them and hands them back but never looks inside.
//
// A Tree is meant for a single owner and is not safe for concurrent use.
package rbtree

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/aglyzov/go-hashtree/alloc"
	"github.com/aglyzov/go-hashtree/internal/errs"
)

var (
	ErrInvalidArgument = errs.ErrInvalidArgument
	ErrOutOfMemory     = errs.ErrOutOfMemory
	ErrNotFound        = errs.ErrNotFound
	ErrAlreadyExists   = errs.ErrAlreadyExists
)

const nilIdx int32 = -1

type color uint8

const (
	black color = iota
	red
)

func (c color) String() string {
	if c == red {
		return "RED"
	}
	return "BLACK"
}

type node struct {
	key                 uint64
	val                 any
	parent, left, right int32
	color               color
}

var treeSize = int64(unsafe.Sizeof(Tree{}))

// Tree is a red-black tree.
type Tree struct {
	root    int32
	size    int
	pool    *Pool
	ownPool bool
	acct    alloc.Allocator
}

type config struct {
	acct alloc.Allocator
	pool *Pool
}

// Option configures a Tree.
type Option func(*config)

// WithAllocator accounts the tree (and its private pool) against a.
func WithAllocator(a alloc.Allocator) Option {
	return func(c *config) { c.acct = a }
}

// WithPool places the tree's nodes into a shared pool. The caller keeps
// ownership of the pool and closes it after the last tree is destroyed.
func WithPool(p *Pool) Option {
	return func(c *config) { c.pool = p }
}

// New returns an empty tree.
func New(opts ...Option) (*Tree, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	acct := alloc.OrSystem(cfg.acct)

	if cfg.pool != nil && cfg.pool.closed() {
		return nil, errors.Wrap(ErrInvalidArgument, "rbtree: new tree on a closed pool")
	}
	if err := acct.Allocate(treeSize); err != nil {
		return nil, errors.Wrap(err, "rbtree: new")
	}

	t := &Tree{root: nilIdx, pool: cfg.pool, acct: acct}

	if t.pool == nil {
		pool, err := NewPool(0, acct)
		if err != nil {
			acct.Release(treeSize)
			return nil, err
		}
		t.pool = pool
		t.ownPool = true
	}

	return t, nil
}

// Len returns the number of keys in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return t.size
}

func (t *Tree) valid() bool {
	return t != nil && t.pool != nil && !t.pool.closed()
}

// Destroy returns every node to the pool and releases the tree.
// The tree must not be used afterwards.
func (t *Tree) Destroy() {
	if !t.valid() {
		return
	}

	// Walk the tree without function recursion
	nodes := t.pool.nodes
	toVisit := make([]int32, 0, 64)

	if t.root != nilIdx {
		toVisit = append(toVisit, t.root)
	}
	for l := len(toVisit); l > 0; l = len(toVisit) {
		idx := toVisit[l-1]
		toVisit = toVisit[:l-1]

		// children first: put clears the slot
		if l := nodes[idx].left; l != nilIdx {
			toVisit = append(toVisit, l)
		}
		if r := nodes[idx].right; r != nilIdx {
			toVisit = append(toVisit, r)
		}
		t.pool.put(idx)
	}

	if t.ownPool {
		t.pool.Close()
	}
	t.acct.Release(treeSize)

	*t = Tree{root: nilIdx}
}

// Find returns the value stored under key.
func (t *Tree) Find(key uint64) (any, error) {
	if !t.valid() {
		return nil, errors.Wrap(ErrInvalidArgument, "rbtree: find in a nil tree")
	}
	if idx := t.lookup(key); idx != nilIdx {
		return t.pool.nodes[idx].val, nil
	}
	return nil, ErrNotFound
}

func (t *Tree) lookup(key uint64) int32 {
	nodes := t.pool.nodes
	idx := t.root

	for idx != nilIdx {
		n := &nodes[idx]
		switch {
		case key == n.key:
			return idx
		case key < n.key:
			idx = n.left
		default:
			idx = n.right
		}
	}

	return nilIdx
}

// Insert adds key with its value. A key that is already present is rejected
// with ErrAlreadyExists and the tree is left untouched.
func (t *Tree) Insert(key uint64, val any) error {
	if !t.valid() {
		return errors.Wrap(ErrInvalidArgument, "rbtree: insert into a nil tree")
	}

	// descend to the attachment point
	parent, goLeft := nilIdx, false
	for idx := t.root; idx != nilIdx; {
		n := &t.pool.nodes[idx]
		if key == n.key {
			return errors.Wrapf(ErrAlreadyExists, "rbtree: key %d", key)
		}
		parent = idx
		if goLeft = key < n.key; goLeft {
			idx = n.left
		} else {
			idx = n.right
		}
	}

	idx, err := t.pool.get()
	if err != nil {
		return err
	}

	// the pool may have been reallocated by get
	nodes := t.pool.nodes
	nodes[idx] = node{key: key, val: val, parent: parent, left: nilIdx, right: nilIdx, color: red}

	switch {
	case parent == nilIdx:
		t.root = idx
	case goLeft:
		nodes[parent].left = idx
	default:
		nodes[parent].right = idx
	}
	t.size++

	t.insertFixup(idx)

	return nil
}

// Remove deletes key and returns the value it held.
func (t *Tree) Remove(key uint64) (any, error) {
	if !t.valid() {
		return nil, errors.Wrap(ErrInvalidArgument, "rbtree: remove from a nil tree")
	}

	z := t.lookup(key)
	if z == nilIdx {
		return nil, errors.Wrapf(ErrNotFound, "rbtree: key %d", key)
	}

	nodes := t.pool.nodes
	val := nodes[z].val

	// a node with two children trades its payload with the in-order successor,
	// which has no left child
	y := z
	if nodes[z].left != nilIdx && nodes[z].right != nilIdx {
		y = t.minimum(nodes[z].right)
		nodes[z].key, nodes[z].val = nodes[y].key, nodes[y].val
	}

	child := nodes[y].left
	if child == nilIdx {
		child = nodes[y].right
	}

	if nodes[y].color == black {
		if t.colorOf(child) == red {
			nodes[child].color = black
		} else {
			// y is a black leaf: rebalance around it while it is still linked
			t.deleteFixup(y)
		}
	}

	t.replace(y, child)
	t.pool.put(y)
	t.size--

	return val, nil
}

// Enumerate calls visit for every key in ascending order until visit returns false.
// The visitor must not modify the tree.
func (t *Tree) Enumerate(visit func(key uint64, val any) bool) error {
	if !t.valid() {
		return errors.Wrap(ErrInvalidArgument, "rbtree: enumerate a nil tree")
	}
	if visit == nil {
		return errors.Wrap(ErrInvalidArgument, "rbtree: enumerate with a nil visitor")
	}

	nodes := t.pool.nodes
	stack := make([]int32, 0, 64)

	for idx := t.root; idx != nilIdx || len(stack) > 0; {
		for ; idx != nilIdx; idx = nodes[idx].left {
			stack = append(stack, idx)
		}

		idx = stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n := &nodes[idx]; !visit(n.key, n.val) {
			return nil
		}
		idx = nodes[idx].right
	}

	return nil
}

// Keys returns all keys in ascending order.
func (t *Tree) Keys() []uint64 {
	keys := make([]uint64, 0, t.Len())

	_ = t.Enumerate(func(key uint64, _ any) bool {
		keys = append(keys, key)
		return true
	})

	return keys
}

// Min returns the smallest key and its value.
func (t *Tree) Min() (uint64, any, error) {
	if !t.valid() {
		return 0, nil, errors.Wrap(ErrInvalidArgument, "rbtree: min of a nil tree")
	}
	if t.root == nilIdx {
		return 0, nil, errors.Wrap(ErrNotFound, "rbtree: min of an empty tree")
	}
	n := &t.pool.nodes[t.minimum(t.root)]
	return n.key, n.val, nil
}

// Max returns the largest key and its value.
func (t *Tree) Max() (uint64, any, error) {
	if !t.valid() {
		return 0, nil, errors.Wrap(ErrInvalidArgument, "rbtree: max of a nil tree")
	}
	if t.root == nilIdx {
		return 0, nil, errors.Wrap(ErrNotFound, "rbtree: max of an empty tree")
	}
	n := &t.pool.nodes[t.maximum(t.root)]
	return n.key, n.val, nil
}

func (t *Tree) minimum(idx int32) int32 {
	nodes := t.pool.nodes
	for nodes[idx].left != nilIdx {
		idx = nodes[idx].left
	}
	return idx
}

func (t *Tree) maximum(idx int32) int32 {
	nodes := t.pool.nodes
	for nodes[idx].right != nilIdx {
		idx = nodes[idx].right
	}
	return idx
}

// replace puts newn (possibly nilIdx) where oldn hangs.
func (t *Tree) replace(oldn, newn int32) {
	nodes := t.pool.nodes
	parent := nodes[oldn].parent

	switch {
	case parent == nilIdx:
		t.root = newn
	case nodes[parent].left == oldn:
		nodes[parent].left = newn
	default:
		nodes[parent].right = newn
	}

	if newn != nilIdx {
		nodes[newn].parent = parent
	}
}

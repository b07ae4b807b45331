package rbtree

import (
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/aglyzov/go-hashtree/alloc"
)

const minPoolGrowth = 16

var nodeSize = int64(unsafe.Sizeof(node{}))

// Pool is an arena of tree nodes addressed by index.
//
// Several trees may share one Pool; every node belongs to exactly one tree.
// Freed slots are kept in a free-list and handed out again before the arena
// grows. Growth is accounted against the pool's allocator.
type Pool struct {
	nodes []node
	free  []int32
	acct  alloc.Allocator
}

// NewPool returns a Pool with room for prealloc nodes (none when prealloc <= 0).
func NewPool(prealloc int, a alloc.Allocator) (*Pool, error) {
	p := &Pool{acct: alloc.OrSystem(a)}

	if prealloc > 0 {
		if err := p.acct.Allocate(int64(prealloc) * nodeSize); err != nil {
			return nil, errors.Wrapf(err, "rbtree: preallocating %d nodes", prealloc)
		}
		p.nodes = make([]node, 0, prealloc)
	}

	return p, nil
}

// Len returns the number of nodes in use.
func (p *Pool) Len() int {
	return len(p.nodes) - len(p.free)
}

// Free returns the number of slots waiting on the free-list.
func (p *Pool) Free() int {
	return len(p.free)
}

// Cap returns the number of slots the arena holds without growing.
func (p *Pool) Cap() int {
	return cap(p.nodes)
}

// Close releases the arena. Trees still using the pool become invalid.
func (p *Pool) Close() {
	if p.acct == nil {
		return
	}
	p.acct.Release(int64(cap(p.nodes)) * nodeSize)
	p.nodes = nil
	p.free = nil
	p.acct = nil
}

func (p *Pool) closed() bool {
	return p.acct == nil
}

// get takes a node slot off the free-list or grows the arena.
// On failure nothing changes.
func (p *Pool) get() (int32, error) {
	if l := len(p.free); l > 0 {
		idx := p.free[l-1]
		p.free = p.free[:l-1]
		return idx, nil
	}

	if l := len(p.nodes); l == cap(p.nodes) {
		if err := p.grow(); err != nil {
			return nilIdx, err
		}
	}

	p.nodes = append(p.nodes, node{})

	return int32(len(p.nodes) - 1), nil
}

func (p *Pool) grow() error {
	oldCap := cap(p.nodes)
	newCap := oldCap * 2
	if newCap < minPoolGrowth {
		newCap = minPoolGrowth
	}

	if err := p.acct.Reallocate(int64(oldCap)*nodeSize, int64(newCap)*nodeSize); err != nil {
		return errors.Wrapf(err, "rbtree: growing node pool to %d", newCap)
	}

	nodes := make([]node, len(p.nodes), newCap)
	copy(nodes, p.nodes)
	p.nodes = nodes

	return nil
}

// put clears a node and stores its index for re-use by subsequent get calls.
func (p *Pool) put(idx int32) {
	p.nodes[idx] = node{}
	p.free = append(p.free, idx)
}

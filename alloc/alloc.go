// Package alloc defines the allocator capability threaded through every container.
//
// Go owns the actual memory, so an Allocator is an account: containers ask it
// for permission before they grow their storage and report back when they
// shrink or go away. A refusal surfaces as ErrOutOfMemory and the container is
// left as it was before the call.
package alloc

import (
	"github.com/cockroachdb/errors"

	"github.com/aglyzov/go-hashtree/internal/errs"
)

var ErrOutOfMemory = errs.ErrOutOfMemory

// Allocator grants and takes back storage measured in bytes.
type Allocator interface {
	// Allocate reserves size bytes.
	Allocate(size int64) error
	// Reallocate resizes a reservation of oldSize bytes to newSize bytes.
	// On failure the old reservation stays in place.
	Reallocate(oldSize, newSize int64) error
	// Release returns size bytes.
	Release(size int64)
}

// System is the platform default: every request succeeds.
var System Allocator = system{}

type system struct{}

func (system) Allocate(int64) error          { return nil }
func (system) Reallocate(int64, int64) error { return nil }
func (system) Release(int64)                 {}

// OrSystem returns a, or System when a is nil.
func OrSystem(a Allocator) Allocator {
	if a == nil {
		return System
	}
	return a
}

// Budget is an Allocator bounded by a fixed capacity.
//
// A Budget may be shared by several containers, but it is not safe for
// concurrent use.
type Budget struct {
	capacity int64
	used     int64
}

// NewBudget returns a Budget that grants at most capacity bytes in total.
func NewBudget(capacity int64) *Budget {
	if capacity < 0 {
		capacity = 0
	}
	return &Budget{capacity: capacity}
}

// Capacity returns the total number of bytes the budget may grant.
func (b *Budget) Capacity() int64 {
	return b.capacity
}

// Used returns the number of bytes currently reserved.
func (b *Budget) Used() int64 {
	return b.used
}

func (b *Budget) Allocate(size int64) error {
	return b.grow(size)
}

func (b *Budget) Reallocate(oldSize, newSize int64) error {
	return b.grow(newSize - oldSize)
}

func (b *Budget) Release(size int64) {
	b.used -= size
	if b.used < 0 {
		b.used = 0
	}
}

func (b *Budget) grow(delta int64) error {
	if delta <= 0 {
		b.Release(-delta)
		return nil
	}
	if b.used+delta > b.capacity {
		return errors.Wrapf(ErrOutOfMemory,
			"requested %d bytes with %d of %d in use", delta, b.used, b.capacity)
	}
	b.used += delta
	return nil
}

package rendergraph

import (
	"github.com/forgekit/forge/engine/core"
)

// DefaultAlignment is used by Arena.Reserve when the caller doesn't
// need a specific alignment.
const DefaultAlignment = 16

// destructor is recorded alongside every constructed object so Reset
// can tear it down in reverse construction order.
type destructor func()

// Arena is a single contiguous capacity budget with a bump pointer,
// used exclusively for frame-scoped pass and scope objects. Go's
// garbage collector means Arena doesn't carve memory out of a byte
// buffer the way the source's allocator does; it tracks a capacity
// budget and the construction/destruction order instead, which is
// enough to reproduce the source's reset-all-at-once lifetime model
// and catch exhaustion the same way.
type Arena struct {
	capacity int
	used     int
	ctors    []destructor
}

// NewArena creates a frame arena with the given byte capacity budget.
func NewArena(capacityBytes int) *Arena {
	return &Arena{capacity: capacityBytes}
}

// Reserve accounts for sizeBytes (aligned to alignment) against the
// arena's capacity, returning ErrArenaExhausted if the budget is blown.
func (a *Arena) Reserve(sizeBytes, alignment int) error {
	if alignment <= 0 {
		alignment = DefaultAlignment
	}
	aligned := alignUp(sizeBytes, alignment)
	if a.used+aligned > a.capacity {
		err := newErrorf(ErrArenaExhausted, "arena exhausted: requested %d bytes, %d/%d used", aligned, a.used, a.capacity)
		core.LogFatal(err.Error())
		return err
	}
	a.used += aligned
	return nil
}

// Used returns the number of bytes currently accounted for.
func (a *Arena) Used() int { return a.used }

// Capacity returns the arena's total byte budget.
func (a *Arena) Capacity() int { return a.capacity }

// record appends a destructor to be invoked, in reverse order, on Reset.
func (a *Arena) record(d destructor) {
	if d != nil {
		a.ctors = append(a.ctors, d)
	}
}

// Reset invokes every recorded destructor in reverse construction
// order, then rewinds the bump pointer. Called at the start of every
// frame before the graph is rebuilt.
func (a *Arena) Reset() {
	for i := len(a.ctors) - 1; i >= 0; i-- {
		a.ctors[i]()
	}
	a.ctors = a.ctors[:0]
	a.used = 0
}

func alignUp(size, alignment int) int {
	return (size + alignment - 1) &^ (alignment - 1)
}

// ConstructPass allocates budget for one Pass from the arena and
// records its destructor thunk, returning the pass for the caller to
// finish populating. Mirrors the source's Allocator.Construct<T>.
func (a *Arena) ConstructPass(name string, order int, onDestroy func()) (*Pass, error) {
	if err := a.Reserve(passSizeEstimate, DefaultAlignment); err != nil {
		return nil, err
	}
	p := newPass(name, order)
	a.record(func() {
		if onDestroy != nil {
			onDestroy()
		}
	})
	return p, nil
}

// passSizeEstimate is a representative accounting unit for a Pass plus
// its Scope; the arena doesn't lay Go objects out itself, but it still
// enforces the caller-specified capacity budget against it.
const passSizeEstimate = 256

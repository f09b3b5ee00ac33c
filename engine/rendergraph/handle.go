package rendergraph

import "fmt"

// HandleKind distinguishes the slot table a Handle was issued from, so
// a texture handle can never be mistaken for a view handle even though
// both are generation+index pairs.
type HandleKind uint8

const (
	HandleTexture HandleKind = iota
	HandleView
	HandleRenderTarget
)

func (k HandleKind) String() string {
	switch k {
	case HandleTexture:
		return "Texture"
	case HandleView:
		return "View"
	case HandleRenderTarget:
		return "RenderTarget"
	default:
		return "Unknown"
	}
}

// Handle is an opaque identifier for a virtual resource, view, or
// render-target group. It is only interpretable by the Scheduler/
// Registry pair that issued it (graphID) and only while that graph is
// alive (invariant 1). Index+Generation slot-map entries, rather than
// the source's bare monotonic IDs, so a handle surviving past a frame
// boundary it shouldn't (a stale capture in a closure, say) is
// detected instead of silently resolving to whatever reused the slot.
type Handle struct {
	kind       HandleKind
	index      uint32
	generation uint32
	graphID    uint64
}

// Valid reports whether the handle was ever issued (the zero Handle is not).
func (h Handle) Valid() bool { return h.generation != 0 }

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d.%d", h.kind, h.index, h.generation)
}

// slot is one entry in a slotTable: either occupied (generation is
// odd conceptually tracked via occupied bool) or free for reuse.
type slot[T any] struct {
	value      T
	generation uint32
	occupied   bool
}

// slotTable is a generation-checked, append-only-until-reset slot map.
// It is reset wholesale at the start of every frame along with the
// arena and scheduler it backs, which is why it does not bother
// maintaining a free list across frames: frame N+1 starts from empty.
// generation is bumped once per reset, not per slot, so every handle
// issued within one frame shares that frame's generation and a handle
// captured past a frame boundary (a stale closure, say) fails to
// resolve even when its index happens to be reused.
type slotTable[T any] struct {
	kind       HandleKind
	graphID    uint64
	generation uint32
	slots      []slot[T]
}

func newSlotTable[T any](kind HandleKind, graphID uint64) *slotTable[T] {
	return &slotTable[T]{kind: kind, graphID: graphID, generation: 1}
}

// insert appends a new occupied slot and returns its handle.
func (t *slotTable[T]) insert(value T) Handle {
	idx := uint32(len(t.slots))
	t.slots = append(t.slots, slot[T]{value: value, generation: t.generation, occupied: true})
	return Handle{kind: t.kind, index: idx, generation: t.generation, graphID: t.graphID}
}

// get resolves a handle to its stored value, failing if the handle
// belongs to another graph, is out of range, or refers to a slot whose
// generation has since moved on (invariant 7: a freed handle must
// never silently resolve).
func (t *slotTable[T]) get(h Handle) (T, error) {
	var zero T
	if h.kind != t.kind {
		return zero, newErrorf(ErrBadDeclaration, "handle kind mismatch: expected %s, got %s", t.kind, h.kind)
	}
	if h.graphID != t.graphID {
		return zero, newErrorf(ErrBadDeclaration, "handle %s belongs to another graph", h)
	}
	if int(h.index) >= len(t.slots) {
		return zero, newErrorf(ErrBadDeclaration, "handle %s out of range", h)
	}
	s := &t.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return zero, newErrorf(ErrBadDeclaration, "handle %s resolves to a freed slot", h)
	}
	return s.value, nil
}

// set overwrites the stored value for a still-occupied handle.
func (t *slotTable[T]) set(h Handle, value T) error {
	if int(h.index) >= len(t.slots) {
		return newErrorf(ErrBadDeclaration, "handle %s out of range", h)
	}
	s := &t.slots[h.index]
	if !s.occupied || s.generation != h.generation {
		return newErrorf(ErrBadDeclaration, "handle %s resolves to a freed slot", h)
	}
	s.value = value
	return nil
}

// len reports how many slots are occupied; used for diagnostics.
func (t *slotTable[T]) len() int { return len(t.slots) }

// reset empties the table and advances its generation; called by
// Scheduler.reset at frame start.
func (t *slotTable[T]) reset() {
	t.slots = t.slots[:0]
	t.generation++
}

// all returns the values currently occupied, in insertion order.
func (t *slotTable[T]) all() []T {
	out := make([]T, 0, len(t.slots))
	for _, s := range t.slots {
		if s.occupied {
			out = append(out, s.value)
		}
	}
	return out
}

// slotEntry pairs a handle with its stored value, for callers that
// need to iterate both.
type slotEntry[T any] struct {
	Handle Handle
	Value  T
}

// entries returns every occupied (handle, value) pair in insertion order.
func (t *slotTable[T]) entries() []slotEntry[T] {
	out := make([]slotEntry[T], 0, len(t.slots))
	for i, s := range t.slots {
		if s.occupied {
			out = append(out, slotEntry[T]{
				Handle: Handle{kind: t.kind, index: uint32(i), generation: s.generation, graphID: t.graphID},
				Value:  s.value,
			})
		}
	}
	return out
}

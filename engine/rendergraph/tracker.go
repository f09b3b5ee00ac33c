package rendergraph

import "github.com/forgekit/forge/engine/core"

// Barrier is a single subresource transition the Executor must hand to
// the CommandRecorder.
type Barrier struct {
	Resource    PhysicalTexture
	Subresource uint32
	Before      ResourceState
	After       ResourceState
}

// pendingEntry is recorded the first time a command list observes a
// subresource whose list-local state is still unknown; it is
// reconciled against the resource's global state at Resolve time.
type pendingEntry struct {
	resource    PhysicalTexture
	subresource uint32
	state       ResourceState
}

// resourceTrack is the per-physical-resource bookkeeping the tracker
// keeps: the command-list-local state (reset every Open) and the
// global state shared across the submit order (persists across lists
// until a patch-up barrier changes it).
type resourceTrack struct {
	list   map[uint32]ResourceState
	global map[uint32]ResourceState
}

func newResourceTrack() *resourceTrack {
	return &resourceTrack{
		list:   make(map[uint32]ResourceState),
		global: make(map[uint32]ResourceState),
	}
}

// globalOf returns the tracked global state for a subresource, or
// StateCommon if the resource has never been transitioned before —
// D3D12-style resources begin life in the common state.
func (rt *resourceTrack) globalOf(idx uint32) ResourceState {
	if s, ok := rt.global[idx]; ok {
		return s
	}
	return StateCommon
}

// StateTracker implements the two-phase (pending / resolve) barrier
// model of §4.5: pending transitions are recorded while a command list
// is being built, and reconciled against each resource's global state
// only when that list closes.
type StateTracker struct {
	BatchSize int

	resources map[PhysicalTexture]*resourceTrack
	pending   []pendingEntry

	levelBarrierCount int
	levelUAVCount     int
}

// NewStateTracker creates a tracker that batches up to batchSize
// barriers before a flush is due (see ShouldFlush).
func NewStateTracker(batchSize int) *StateTracker {
	if batchSize <= 0 {
		batchSize = 16
	}
	return &StateTracker{
		BatchSize: batchSize,
		resources: make(map[PhysicalTexture]*resourceTrack),
	}
}

func (t *StateTracker) ensure(resource PhysicalTexture) *resourceTrack {
	rt, ok := t.resources[resource]
	if !ok {
		rt = newResourceTrack()
		t.resources[resource] = rt
	}
	return rt
}

// RequestState asks the tracker to bring every subresource in indices
// of resource into desired state within the command list currently
// being recorded. It returns the immediate barriers the caller must
// hand to the recorder right away; subresources seen for the first
// time this list are instead recorded as pending and reconciled later
// by Resolve.
func (t *StateTracker) RequestState(resource PhysicalTexture, indices []uint32, desired ResourceState) []Barrier {
	rt := t.ensure(resource)
	var barriers []Barrier
	for _, idx := range indices {
		cur, known := rt.list[idx]
		switch {
		case !known:
			t.pending = append(t.pending, pendingEntry{resource: resource, subresource: idx, state: desired})
			rt.list[idx] = desired
		case cur != desired:
			barriers = append(barriers, Barrier{Resource: resource, Subresource: idx, Before: cur, After: desired})
			rt.list[idx] = desired
		}
		// cur == desired: already in the right state, no redundant barrier (property 5).
	}
	t.levelBarrierCount += len(barriers)
	return barriers
}

// ShouldFlush reports whether the accumulated barrier count since the
// last flush has reached BatchSize.
func (t *StateTracker) ShouldFlush(pendingCount int) bool {
	return pendingCount >= t.BatchSize
}

// RecordUAVBarrier accounts for a UAV barrier the executor inserted
// between two same-level writers of one resource (§4.7 step 4); it
// does not by itself decide whether one is needed — see
// Executor.insertUAVBarriersFor.
func (t *StateTracker) RecordUAVBarrier() {
	t.levelUAVCount++
}

// ResolveAll reconciles every still-pending subresource against its
// resource's global state (§4.5 phase 2, "at list close / submit"),
// returning the patch-up barriers that must run on a dedicated list
// scheduled before the primary one. It then clears list-local state so
// the next Open starts every subresource unknown again.
func (t *StateTracker) ResolveAll() []Barrier {
	pending := t.pending
	t.pending = nil

	var patch []Barrier
	touched := make(map[PhysicalTexture]struct{}, len(pending))
	for _, p := range pending {
		rt := t.ensure(p.resource)
		before := rt.globalOf(p.subresource)
		final := rt.list[p.subresource]
		if before != final {
			patch = append(patch, Barrier{Resource: p.resource, Subresource: p.subresource, Before: before, After: final})
		}
		rt.global[p.subresource] = final
		touched[p.resource] = struct{}{}
	}
	for resource := range touched {
		t.resources[resource].list = make(map[uint32]ResourceState)
	}
	return patch
}

// LevelCounts returns, and resets, the number of barriers and UAV
// barriers recorded since the last call — used to feed FrameMetrics.
func (t *StateTracker) LevelCounts() (barriers, uavBarriers int) {
	barriers, uavBarriers = t.levelBarrierCount, t.levelUAVCount
	t.levelBarrierCount, t.levelUAVCount = 0, 0
	return
}

// combineStates implements the Open Question decision recorded in
// DESIGN.md: the union of read-only states combine into a single
// target (and must all agree, since our state enum isn't a bitmask);
// any exclusive (write) request displaces every read in the batch.
func combineStates(states []ResourceState) ResourceState {
	var exclusive ResourceState = StateUnknown
	var lastRead ResourceState = StateUnknown
	distinctReads := false

	for _, s := range states {
		if !s.isReadOnly() {
			exclusive = s
			continue
		}
		if lastRead != StateUnknown && lastRead != s {
			distinctReads = true
		}
		lastRead = s
	}
	if exclusive != StateUnknown {
		return exclusive
	}
	if distinctReads {
		core.LogWarn("rendergraph: dependency level combines distinct read-only states on one resource; using the last declared state")
	}
	return lastRead
}

package rendergraph

import "github.com/forgekit/forge/engine/core"

// levelRequirement accumulates every state a dependency level's passes
// request of one subresource, keyed so two views onto the same texture
// at disjoint mip/array ranges (§S6) never force each other into a
// shared state.
type levelRequirement struct {
	texture Handle
	states  map[uint32][]ResourceState
}

// Executor runs a compiled plan's dependency levels in order: a single
// pre-level barrier batch, then each level's passes in declaration
// order, with a UAV barrier spliced in wherever two passes at the same
// level both write the same physical resource through an unordered-
// access view (§4.7 step 4, scenario S3).
type Executor struct {
	scheduler *Scheduler
	registry  *Registry
	tracker   *StateTracker
}

// NewExecutor binds an Executor to the Scheduler/Registry/StateTracker
// triple a Graph owns; Graph constructs one per Execute.
func NewExecutor(scheduler *Scheduler, registry *Registry, tracker *StateTracker) *Executor {
	return &Executor{scheduler: scheduler, registry: registry, tracker: tracker}
}

// Execute runs every level of plan against recorder, which must
// already be Open on the tracker Executor was constructed with.
func (e *Executor) Execute(levels []DependencyLevel, recorder CommandRecorder) error {
	for _, level := range levels {
		if err := e.executeLevel(level, recorder); err != nil {
			return wrapError(ErrRecorderError, "level execution failed", err)
		}
	}
	return nil
}

func (e *Executor) executeLevel(level DependencyLevel, recorder CommandRecorder) error {
	requirements, physicals, mipLevels, err := e.collectRequirements(level)
	if err != nil {
		return err
	}

	if err := e.flushBarriers(requirements, physicals, mipLevels, recorder); err != nil {
		return err
	}

	uavWriters := make(map[Handle]bool)
	for _, pass := range level.Passes {
		if err := e.insertUAVBarriersFor(pass, uavWriters, physicals, recorder); err != nil {
			return err
		}
		if pass.Callback == nil {
			core.LogWarn("rendergraph: pass %q has no callback, skipping", pass.Name)
			continue
		}
		if err := pass.Callback(e.registry, recorder); err != nil {
			return newErrorf(ErrRecorderError, "pass %q: %v", pass.Name, err)
		}
	}
	return nil
}

// collectRequirements resolves every handle every pass in the level
// reads or writes down to (texture, subresource index) pairs and the
// resource state each access demands, without yet deciding how those
// demands combine — that is combineStates' job, applied per index in
// flushBarriers so two disjoint subranges of one texture can land in
// different states within the same level.
func (e *Executor) collectRequirements(level DependencyLevel) (map[Handle]*levelRequirement, map[Handle]PhysicalTexture, map[Handle]uint32, error) {
	requirements := make(map[Handle]*levelRequirement)
	physicals := make(map[Handle]PhysicalTexture)
	mipLevels := make(map[Handle]uint32)

	arrayLayers := make(map[Handle]uint32)

	record := func(h Handle, write bool) error {
		acc, err := e.scheduler.resolveAccess(h, write)
		if err != nil {
			return err
		}
		if _, ok := physicals[acc.texture]; !ok {
			phys, err := e.registry.ResolveTexture(acc.texture)
			if err != nil {
				return err
			}
			mips, layers, err := e.registry.SubresourceCounts(acc.texture)
			if err != nil {
				return err
			}
			physicals[acc.texture] = phys
			mipLevels[acc.texture] = mips
			arrayLayers[acc.texture] = layers
			requirements[acc.texture] = &levelRequirement{texture: acc.texture, states: make(map[uint32][]ResourceState)}
		}

		req := requirements[acc.texture]
		indices := expandSubresourceIndices(acc.subrange, mipLevels[acc.texture], arrayLayers[acc.texture])
		desired := requiredState(acc.kind, write)
		for _, idx := range indices {
			req.states[idx] = append(req.states[idx], desired)
		}
		return nil
	}

	for _, pass := range level.Passes {
		for _, h := range pass.allReads() {
			if err := record(h, false); err != nil {
				return nil, nil, nil, err
			}
		}
		for _, h := range pass.allWrites() {
			if err := record(h, true); err != nil {
				return nil, nil, nil, err
			}
		}
	}
	return requirements, physicals, mipLevels, nil
}

// flushBarriers combines the per-subresource state requests collected
// for this level and hands the resulting transitions to the tracker
// and recorder, grouping same-desired-state indices into a single
// RequestState call the way a hand-written barrier batch would.
func (e *Executor) flushBarriers(requirements map[Handle]*levelRequirement, physicals map[Handle]PhysicalTexture, mipLevels map[Handle]uint32, recorder CommandRecorder) error {
	for texHandle, req := range requirements {
		phys := physicals[texHandle]
		mips := mipLevels[texHandle]

		byState := make(map[ResourceState][]uint32)
		for idx, states := range req.states {
			desired := combineStates(states)
			byState[desired] = append(byState[desired], idx)
		}

		for desired, indices := range byState {
			barriers := e.tracker.RequestState(phys, indices, desired)
			for _, b := range barriers {
				subrange := subresourceRangeOf(b.Subresource, mips)
				if err := recorder.Transition(phys, b.Before, b.After, subrange); err != nil {
					return wrapError(ErrRecorderError, "transition failed", err)
				}
			}
		}
	}
	return recorder.FlushBarriers()
}

// insertUAVBarriersFor checks whether pass writes, through an
// unordered-access view, a physical resource an earlier pass in this
// same level already wrote through a UAV; if so it splices in a UAV
// barrier before pass's callback runs (§4.7 step 4, scenario S3). Only
// same-level collisions are handled here. Two UAV accesses to one
// resource in different levels get no barrier at all: the state
// tracker skips a request for the state a subresource is already in.
func (e *Executor) insertUAVBarriersFor(pass *Pass, uavWriters map[Handle]bool, physicals map[Handle]PhysicalTexture, recorder CommandRecorder) error {
	for _, h := range pass.allWrites() {
		acc, err := e.scheduler.resolveAccess(h, true)
		if err != nil {
			return err
		}
		if acc.kind != ViewUnorderedAccess {
			continue
		}
		if uavWriters[acc.texture] {
			phys := physicals[acc.texture]
			if err := recorder.UAVBarrier(phys); err != nil {
				return wrapError(ErrRecorderError, "uav barrier failed", err)
			}
			e.tracker.RecordUAVBarrier()
			continue
		}
		uavWriters[acc.texture] = true
	}
	return nil
}

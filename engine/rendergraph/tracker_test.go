package rendergraph

import "testing"

type fakeTexture struct {
	name          string
	width, height uint32
}

func (f *fakeTexture) Width() uint32  { return f.width }
func (f *fakeTexture) Height() uint32 { return f.height }

func TestCombineStatesExclusiveWins(t *testing.T) {
	got := combineStates([]ResourceState{StateShaderResource, StateRenderTarget, StateShaderResource})
	if got != StateRenderTarget {
		t.Errorf("combineStates = %v, want %v", got, StateRenderTarget)
	}
}

func TestCombineStatesAllReadsAgree(t *testing.T) {
	got := combineStates([]ResourceState{StateShaderResource, StateShaderResource})
	if got != StateShaderResource {
		t.Errorf("combineStates = %v, want %v", got, StateShaderResource)
	}
}

func TestCombineStatesDistinctReadsUsesLast(t *testing.T) {
	got := combineStates([]ResourceState{StateShaderResource, StateCopySource})
	if got != StateCopySource {
		t.Errorf("combineStates = %v, want the last declared read state %v", got, StateCopySource)
	}
}

func TestStateTrackerFirstRequestIsPending(t *testing.T) {
	tracker := NewStateTracker(16)
	tex := &fakeTexture{name: "gbuffer", width: 1920, height: 1080}

	barriers := tracker.RequestState(tex, []uint32{0}, StateRenderTarget)
	if len(barriers) != 0 {
		t.Fatalf("first-ever request for a subresource should produce no immediate barrier, got %v", barriers)
	}
}

func TestStateTrackerSameStateRequestIsNoRedundantBarrier(t *testing.T) {
	tracker := NewStateTracker(16)
	tex := &fakeTexture{name: "gbuffer"}

	tracker.RequestState(tex, []uint32{0}, StateRenderTarget)
	barriers := tracker.RequestState(tex, []uint32{0}, StateRenderTarget)
	if len(barriers) != 0 {
		t.Errorf("requesting the state a subresource is already list-local in should not emit a barrier, got %v", barriers)
	}
}

func TestStateTrackerTransitionEmitsBarrier(t *testing.T) {
	tracker := NewStateTracker(16)
	tex := &fakeTexture{name: "gbuffer"}

	tracker.RequestState(tex, []uint32{0}, StateRenderTarget)
	barriers := tracker.RequestState(tex, []uint32{0}, StateShaderResource)
	if len(barriers) != 1 {
		t.Fatalf("expected one barrier for a genuine state change, got %v", barriers)
	}
	b := barriers[0]
	if b.Before != StateRenderTarget || b.After != StateShaderResource {
		t.Errorf("barrier = %+v, want Before=%v After=%v", b, StateRenderTarget, StateShaderResource)
	}
}

func TestStateTrackerSubresourcesAreIndependent(t *testing.T) {
	tracker := NewStateTracker(16)
	tex := &fakeTexture{name: "texture-array"}

	// Mip 0 goes render-target, mip 1 goes shader-resource within the
	// same list, as scenario S6 requires for a split-aliased resource.
	tracker.RequestState(tex, []uint32{0}, StateRenderTarget)
	tracker.RequestState(tex, []uint32{1}, StateShaderResource)

	barriers := tracker.RequestState(tex, []uint32{0}, StateShaderResource)
	if len(barriers) != 1 {
		t.Fatalf("expected exactly one barrier for mip 0's transition, got %v", barriers)
	}
	// Mip 1 should remain untouched (still list-local shader-resource).
	noop := tracker.RequestState(tex, []uint32{1}, StateShaderResource)
	if len(noop) != 0 {
		t.Errorf("mip 1 was already shader-resource, expected no barrier, got %v", noop)
	}
}

func TestStateTrackerResolveAllPatchesAgainstGlobalState(t *testing.T) {
	tracker := NewStateTracker(16)
	tex := &fakeTexture{name: "gbuffer"}

	tracker.RequestState(tex, []uint32{0}, StateRenderTarget)
	patch := tracker.ResolveAll()
	// First-ever use: global state starts at StateCommon, so a patch-up
	// barrier from common to render-target is expected.
	if len(patch) != 1 || patch[0].Before != StateCommon || patch[0].After != StateRenderTarget {
		t.Fatalf("got patch %+v, want one common->render-target barrier", patch)
	}

	// A second list that doesn't touch this subresource at all should
	// resolve to no patch barriers: list-local state was cleared, and
	// nothing new was requested.
	empty := tracker.ResolveAll()
	if len(empty) != 0 {
		t.Errorf("expected no patch barriers on an empty list, got %v", empty)
	}
}

func TestStateTrackerLevelCountsResetAfterRead(t *testing.T) {
	tracker := NewStateTracker(16)
	tex := &fakeTexture{name: "gbuffer"}

	tracker.RequestState(tex, []uint32{0}, StateRenderTarget)
	tracker.RequestState(tex, []uint32{0}, StateShaderResource)
	barriers, uav := tracker.LevelCounts()
	if barriers != 1 {
		t.Errorf("barriers = %d, want 1", barriers)
	}
	if uav != 0 {
		t.Errorf("uavBarriers = %d, want 0", uav)
	}

	barriers2, uav2 := tracker.LevelCounts()
	if barriers2 != 0 || uav2 != 0 {
		t.Errorf("expected counts to reset after being read, got (%d, %d)", barriers2, uav2)
	}
}

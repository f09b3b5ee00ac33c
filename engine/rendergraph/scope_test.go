package rendergraph

import "testing"

type lightingParams struct {
	Exposure float32
}

func TestScopeGetCreatesOnFirstAccess(t *testing.T) {
	s := newScope()
	p := Get[lightingParams](s)
	p.Exposure = 1.5

	p2 := Get[lightingParams](s)
	if p2.Exposure != 1.5 {
		t.Errorf("Exposure = %v, want 1.5 (expected the same backing value across Get calls)", p2.Exposure)
	}
	if p != p2 {
		t.Error("Get should return the same pointer for the same type on repeated calls")
	}
}

// TestScopeHasViewDataByDefault only covers the bare Scope type: it
// has no resolution to draw on, so its ViewData entry is zero until
// something populates it. Graph.AddPass is what actually fills in the
// real render/viewport dimensions (TestGraphAddPassPopulatesViewData).
func TestScopeHasViewDataByDefault(t *testing.T) {
	s := newScope()
	vd := Get[ViewData](s)
	if vd.RenderWidth != 0 {
		t.Errorf("expected a freshly created Scope's ViewData to be zero-valued, got %+v", *vd)
	}
}

func TestScopeDistinctTypesDontCollide(t *testing.T) {
	type a struct{ X int }
	type b struct{ X int }

	s := newScope()
	Get[a](s).X = 1
	Get[b](s).X = 2

	if Get[a](s).X != 1 || Get[b](s).X != 2 {
		t.Error("Scope entries for distinct types should not alias each other")
	}
}

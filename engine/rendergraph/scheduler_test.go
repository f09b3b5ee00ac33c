package rendergraph

import "testing"

func newTestScheduler() *Scheduler { return newScheduler(1) }

func TestSchedulerCreateViewRejectsHandleFromAnotherGraph(t *testing.T) {
	s := newTestScheduler()
	foreign := Handle{kind: HandleTexture, index: 0, generation: 1, graphID: 99}

	_, err := s.CreateView(ViewShaderResource, foreign, SubresourceRange{}, false)
	if err == nil {
		t.Fatal("expected CreateView to reject a handle from another graph")
	}
	ge, ok := AsGraphError(err)
	if !ok || ge.Kind != ErrBadDeclaration {
		t.Fatalf("expected ErrBadDeclaration, got %v", err)
	}
}

func TestSchedulerCreateViewRejectsNonTextureHandle(t *testing.T) {
	s := newTestScheduler()
	tex := s.CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 64, Height: 64})
	view, err := s.CreateView(ViewShaderResource, tex, SubresourceRange{}, false)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	// view is a View handle, not a Texture handle; using it as the
	// resource argument to CreateView must be rejected.
	if _, err := s.CreateView(ViewShaderResource, view, SubresourceRange{}, false); err == nil {
		t.Fatal("expected CreateView to reject a non-texture handle as its resource")
	}
}

func TestSchedulerCreateRenderTargetRejectsTooManyColorViews(t *testing.T) {
	s := newTestScheduler()
	tex := s.CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 64, Height: 64})
	views := make([]Handle, 0, 9)
	for i := 0; i < 9; i++ {
		v, err := s.CreateView(ViewRenderTarget, tex, SubresourceRange{}, false)
		if err != nil {
			t.Fatalf("CreateView %d: %v", i, err)
		}
		views = append(views, v)
	}

	_, err := s.CreateRenderTarget(RenderTargetDesc{ColorViews: views})
	if err == nil {
		t.Fatal("expected CreateRenderTarget to reject more than 8 colour views")
	}
}

func TestSchedulerCreateRenderTargetRejectsUnknownView(t *testing.T) {
	s := newTestScheduler()
	bogus := Handle{kind: HandleView, index: 7, generation: 1, graphID: 1}

	_, err := s.CreateRenderTarget(RenderTargetDesc{ColorViews: []Handle{bogus}})
	if err == nil {
		t.Fatal("expected CreateRenderTarget to reject a colour view handle it never issued")
	}
}

func TestSchedulerResolveAccessDefaultsForBareTextureHandle(t *testing.T) {
	s := newTestScheduler()
	tex := s.CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 64, Height: 64})

	readAccess, err := s.resolveAccess(tex, false)
	if err != nil {
		t.Fatalf("resolveAccess(read): %v", err)
	}
	if readAccess.kind != ViewShaderResource {
		t.Errorf("a bare texture handle read should default to ViewShaderResource, got %v", readAccess.kind)
	}

	writeAccess, err := s.resolveAccess(tex, true)
	if err != nil {
		t.Fatalf("resolveAccess(write): %v", err)
	}
	if writeAccess.kind != ViewRenderTarget {
		t.Errorf("a bare texture handle write should default to ViewRenderTarget, got %v", writeAccess.kind)
	}
}

func TestSchedulerResolveAccessFollowsViewKindAndSubrange(t *testing.T) {
	s := newTestScheduler()
	tex := s.CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 64, Height: 64})
	subrange := SubresourceRange{BaseMip: 2, MipCount: 1, BaseLayer: 0, LayerCount: 1}
	view, err := s.CreateView(ViewUnorderedAccess, tex, subrange, false)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	acc, err := s.resolveAccess(view, true)
	if err != nil {
		t.Fatalf("resolveAccess: %v", err)
	}
	if acc.texture != tex {
		t.Errorf("resolved texture = %v, want %v", acc.texture, tex)
	}
	if acc.kind != ViewUnorderedAccess {
		t.Errorf("resolved kind = %v, want ViewUnorderedAccess", acc.kind)
	}
	if acc.subrange != subrange {
		t.Errorf("resolved subrange = %+v, want %+v", acc.subrange, subrange)
	}
}

func TestSchedulerResetInvalidatesPriorHandles(t *testing.T) {
	s := newTestScheduler()
	tex := s.CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 64, Height: 64})
	s.reset()

	if _, err := s.resolveAccess(tex, false); err == nil {
		t.Fatal("expected a handle from before reset to fail to resolve")
	}
}

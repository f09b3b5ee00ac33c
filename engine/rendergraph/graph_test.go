package rendergraph

import "testing"

type fakePhysicalTexture struct {
	id            int
	width, height uint32
	destroyed     bool
}

func (f *fakePhysicalTexture) Width() uint32  { return f.width }
func (f *fakePhysicalTexture) Height() uint32 { return f.height }

type fakePhysicalView struct {
	texture *fakePhysicalTexture
}

func (f *fakePhysicalView) Texture() PhysicalTexture { return f.texture }

type fakeDevice struct {
	nextID        int
	texturesMade  int
	texturesKilled int
}

func (d *fakeDevice) CreateTexture(desc TextureDesc, width, height uint32) (PhysicalTexture, error) {
	d.nextID++
	d.texturesMade++
	return &fakePhysicalTexture{id: d.nextID, width: width, height: height}, nil
}

func (d *fakeDevice) CreateView(kind ViewKind, texture PhysicalTexture, subrange SubresourceRange, srgb bool) (PhysicalView, error) {
	return &fakePhysicalView{texture: texture.(*fakePhysicalTexture)}, nil
}

func (d *fakeDevice) Destroy(resource interface{}) {
	if tex, ok := resource.(*fakePhysicalTexture); ok {
		tex.destroyed = true
		d.texturesKilled++
	}
}

type recordedTransition struct {
	resource PhysicalTexture
	before   ResourceState
	after    ResourceState
}

type fakeRecorder struct {
	transitions []recordedTransition
	uavBarriers []PhysicalTexture
	opened      bool
}

func (r *fakeRecorder) Open(tracker *StateTracker) error { r.opened = true; return nil }
func (r *fakeRecorder) Close() error                     { return nil }

func (r *fakeRecorder) Transition(resource PhysicalTexture, before, after ResourceState, subresource SubresourceRange) error {
	r.transitions = append(r.transitions, recordedTransition{resource, before, after})
	return nil
}

func (r *fakeRecorder) UAVBarrier(resource PhysicalTexture) error {
	r.uavBarriers = append(r.uavBarriers, resource)
	return nil
}

func (r *fakeRecorder) FlushBarriers() error                                  { return nil }
func (r *fakeRecorder) BeginRenderPass(target RenderTargetDesc, reg *Registry) error { return nil }
func (r *fakeRecorder) EndRenderPass() error                                  { return nil }
func (r *fakeRecorder) SetViewport(rect Rect2D) error                         { return nil }
func (r *fakeRecorder) SetScissor(rect Rect2D) error                         { return nil }
func (r *fakeRecorder) Submit() (SyncPoint, error)                           { return SyncPoint{}, nil }
func (r *fakeRecorder) Wait(point SyncPoint) error                           { return nil }

func newTestGraph(t *testing.T, device Device, resolution ResolutionSource) *Graph {
	t.Helper()
	g, err := NewGraph(1, device, resolution, t.TempDir()+"/nonexistent.toml")
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	return g
}

func TestGraphAddPassRejectsDuplicateNames(t *testing.T) {
	g := newTestGraph(t, &fakeDevice{}, NewFixedResolutionSource(1280, 720, 1280, 720))
	g.BeginFrame()

	if _, err := g.AddPass("gbuffer", QueuePrimary, nil); err != nil {
		t.Fatalf("first AddPass: %v", err)
	}
	if _, err := g.AddPass("gbuffer", QueuePrimary, nil); err == nil {
		t.Fatal("expected a duplicate pass name to be rejected")
	}
}

// TestGraphAddPassPopulatesViewData covers §4.2's "the scope must
// pre-create a ViewData entry exposing the frame's render and
// viewport dimensions": a pass body reading Get[ViewData](pass.Scope)
// must see the graph's actual resolution, not zeros.
func TestGraphAddPassPopulatesViewData(t *testing.T) {
	g := newTestGraph(t, &fakeDevice{}, NewFixedResolutionSource(1920, 1080, 1280, 720))
	g.BeginFrame()

	p, err := g.AddPass("gbuffer", QueuePrimary, nil)
	if err != nil {
		t.Fatalf("AddPass: %v", err)
	}

	vd := Get[ViewData](p.Scope)
	if vd.RenderWidth != 1920 || vd.RenderHeight != 1080 {
		t.Errorf("render dims = %dx%d, want 1920x1080", vd.RenderWidth, vd.RenderHeight)
	}
	if vd.ViewportWidth != 1280 || vd.ViewportHeight != 720 {
		t.Errorf("viewport dims = %dx%d, want 1280x720", vd.ViewportWidth, vd.ViewportHeight)
	}
}

// TestGraphLinearChainExecutesInOrder exercises S1 end to end through
// Graph.Compile/Execute with a fake Device and CommandRecorder.
func TestGraphLinearChainExecutesInOrder(t *testing.T) {
	device := &fakeDevice{}
	g := newTestGraph(t, device, NewFixedResolutionSource(800, 600, 800, 600))
	g.BeginFrame()

	var order []string
	tA := g.Scheduler().CreateTexture("t1", TextureDesc{Resolution: ResolutionFixed, Width: 800, Height: 600, Usage: UsageRenderTarget | UsageShaderResource})
	tB := g.Scheduler().CreateTexture("t2", TextureDesc{Resolution: ResolutionFixed, Width: 800, Height: 600, Usage: UsageRenderTarget | UsageShaderResource})

	a, _ := g.AddPass("A", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { order = append(order, "A"); return nil })
	a.Write(tA)
	b, _ := g.AddPass("B", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { order = append(order, "B"); return nil })
	b.Read(tA)
	b.Write(tB)
	c, _ := g.AddPass("C", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { order = append(order, "C"); return nil })
	c.Read(tB)

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rec := &fakeRecorder{}
	metrics, err := g.Execute(rec)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if metrics.PassCount != 3 || metrics.LevelCount != 3 {
		t.Errorf("metrics = %+v, want PassCount=3 LevelCount=3", metrics)
	}

	want := []string{"A", "B", "C"}
	if len(order) != len(want) {
		t.Fatalf("execution order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

// TestGraphUAVWritersGetBarrier covers S3: two passes that share a
// dependency level (both only read a common input, never each
// other's output) independently write one resource through a UAV
// view; the executor must splice a UAV barrier between them since the
// compiler's dependency graph has no edge to order them by.
func TestGraphUAVWritersGetBarrier(t *testing.T) {
	device := &fakeDevice{}
	g := newTestGraph(t, device, NewFixedResolutionSource(256, 256, 256, 256))
	g.BeginFrame()

	input := g.Scheduler().CreateTexture("input", TextureDesc{Resolution: ResolutionFixed, Width: 256, Height: 256, Usage: UsageShaderResource})
	scratch := g.Scheduler().CreateTexture("scratch", TextureDesc{Resolution: ResolutionFixed, Width: 256, Height: 256, Usage: UsageUnorderedAccess})
	view, err := g.Scheduler().CreateView(ViewUnorderedAccess, scratch, SubresourceRange{}, false)
	if err != nil {
		t.Fatalf("CreateView: %v", err)
	}

	src, _ := g.AddPass("seed", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { return nil })
	src.Write(input)

	w1, _ := g.AddPass("scatter-1", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { return nil })
	w1.Read(input)
	w1.Write(view)
	w2, _ := g.AddPass("scatter-2", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { return nil })
	w2.Read(input)
	w2.Write(view)

	if err := g.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	rec := &fakeRecorder{}
	if _, err := g.Execute(rec); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(rec.uavBarriers) != 1 {
		t.Fatalf("expected exactly one UAV barrier between the two same-level writers, got %d", len(rec.uavBarriers))
	}
}

// TestGraphResolutionChangeReRealizes covers S5: after a viewport
// resolution change, the next Compile destroys the stale
// viewport-relative physical texture and realises exactly one
// replacement at the new size for the re-declared texture.
func TestGraphResolutionChangeReRealizes(t *testing.T) {
	device := &fakeDevice{}
	resolution := NewFixedResolutionSource(800, 600, 800, 600)
	g := newTestGraph(t, device, resolution)

	g.BeginFrame()
	tex := g.Scheduler().CreateTexture("backbuffer", TextureDesc{Resolution: ResolutionViewport, Usage: UsageRenderTarget})
	p, _ := g.AddPass("present", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { return nil })
	p.Write(tex)
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile frame 1: %v", err)
	}
	madeAfterFrame1 := device.texturesMade

	resolution.SetViewportResolution(1920, 1080)

	g.BeginFrame()
	tex2 := g.Scheduler().CreateTexture("backbuffer", TextureDesc{Resolution: ResolutionViewport, Usage: UsageRenderTarget})
	p2, _ := g.AddPass("present", QueuePrimary, func(reg *Registry, rec CommandRecorder) error { return nil })
	p2.Write(tex2)
	if err := g.Compile(); err != nil {
		t.Fatalf("Compile frame 2: %v", err)
	}

	if device.texturesMade != madeAfterFrame1+1 {
		t.Fatalf("expected exactly one new physical texture after the resolution change, made=%d", device.texturesMade)
	}
	if device.texturesKilled != 1 {
		t.Fatalf("expected the stale physical texture to be destroyed, killed=%d", device.texturesKilled)
	}

	phys, err := g.registry.ResolveTexture(tex2)
	if err != nil {
		t.Fatalf("ResolveTexture: %v", err)
	}
	if phys.Width() != 1920 || phys.Height() != 1080 {
		t.Fatalf("resolved texture is %dx%d, want 1920x1080", phys.Width(), phys.Height())
	}
}

// TestArenaHandleSequenceStableAcrossResets is the general property
// that BeginFrame's reset always starts a frame's texture handle
// indices from the same slot sequence, so two frames declaring an
// identical resource set produce handles with identical indices
// (generations differ).
func TestArenaHandleSequenceStableAcrossResets(t *testing.T) {
	device := &fakeDevice{}
	g := newTestGraph(t, device, NewFixedResolutionSource(640, 480, 640, 480))

	var firstIndex, secondIndex uint32
	var firstGen, secondGen uint32

	g.BeginFrame()
	t1 := g.Scheduler().CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 640, Height: 480})
	firstIndex, firstGen = t1.index, t1.generation

	g.BeginFrame()
	t2 := g.Scheduler().CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 640, Height: 480})
	secondIndex, secondGen = t2.index, t2.generation

	if firstIndex != secondIndex {
		t.Errorf("index changed across BeginFrame: %d vs %d", firstIndex, secondIndex)
	}
	if firstGen == secondGen {
		t.Errorf("generation should differ across BeginFrame, both were %d", firstGen)
	}
}

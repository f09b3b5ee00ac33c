package rendergraph

import "testing"

type registryFakeTexture struct {
	width, height uint32
}

func (f *registryFakeTexture) Width() uint32  { return f.width }
func (f *registryFakeTexture) Height() uint32 { return f.height }

type registryFakeView struct {
	texture *registryFakeTexture
}

func (f *registryFakeView) Texture() PhysicalTexture { return f.texture }

type registryFakeDevice struct {
	created   int
	destroyed int
}

func (d *registryFakeDevice) CreateTexture(desc TextureDesc, width, height uint32) (PhysicalTexture, error) {
	d.created++
	return &registryFakeTexture{width: width, height: height}, nil
}

func (d *registryFakeDevice) CreateView(kind ViewKind, texture PhysicalTexture, subrange SubresourceRange, srgb bool) (PhysicalView, error) {
	return &registryFakeView{texture: texture.(*registryFakeTexture)}, nil
}

func (d *registryFakeDevice) Destroy(resource interface{}) {
	d.destroyed++
}

func TestRegistryResolveUnrealisedHandleFails(t *testing.T) {
	device := &registryFakeDevice{}
	reg := NewRegistry(device)
	bogus := Handle{kind: HandleTexture, index: 0, generation: 1, graphID: 1}

	if _, err := reg.ResolveTexture(bogus); err == nil {
		t.Fatal("expected resolving a never-realised texture handle to fail")
	}
	if _, err := reg.ResolveView(bogus); err == nil {
		t.Fatal("expected resolving a never-realised view handle to fail")
	}
	if _, err := reg.ResolveRenderTarget(bogus); err == nil {
		t.Fatal("expected resolving a never-realised render target handle to fail")
	}
}

func TestRegistryReusesPhysicalTextureAcrossFrames(t *testing.T) {
	device := &registryFakeDevice{}
	reg := NewRegistry(device)
	s := newScheduler(1)

	tex := s.CreateTexture("gbuffer", TextureDesc{Resolution: ResolutionFixed, Width: 1920, Height: 1080})
	if err := reg.Realize(s, 0, 0, 0, 0, false, false); err != nil {
		t.Fatalf("Realize frame 1: %v", err)
	}
	if device.created != 1 {
		t.Fatalf("created = %d, want 1", device.created)
	}

	s.reset()
	tex2 := s.CreateTexture("gbuffer", TextureDesc{Resolution: ResolutionFixed, Width: 1920, Height: 1080})
	if err := reg.Realize(s, 0, 0, 0, 0, false, false); err != nil {
		t.Fatalf("Realize frame 2: %v", err)
	}
	if device.created != 1 {
		t.Fatalf("created = %d after an identical redeclare, want 1 (cache reuse)", device.created)
	}

	phys1, err := reg.ResolveTexture(tex)
	if err == nil {
		t.Fatalf("frame-1 handle %v should not resolve once its scheduler slot was reset and reused, but got %v", tex, phys1)
	}
	phys2, err := reg.ResolveTexture(tex2)
	if err != nil {
		t.Fatalf("ResolveTexture(tex2): %v", err)
	}
	if phys2.Width() != 1920 || phys2.Height() != 1080 {
		t.Errorf("resolved texture is %dx%d, want 1920x1080", phys2.Width(), phys2.Height())
	}
}

func TestRegistryRenderResolutionChangeDropsAndRecreates(t *testing.T) {
	device := &registryFakeDevice{}
	reg := NewRegistry(device)
	s := newScheduler(1)

	s.CreateTexture("hdr", TextureDesc{Resolution: ResolutionRender})
	if err := reg.Realize(s, 1280, 720, 1280, 720, true, true); err != nil {
		t.Fatalf("Realize frame 1: %v", err)
	}
	if device.created != 1 {
		t.Fatalf("created = %d, want 1", device.created)
	}

	s.reset()
	tex2 := s.CreateTexture("hdr", TextureDesc{Resolution: ResolutionRender})
	if err := reg.Realize(s, 2560, 1440, 1280, 720, true, false); err != nil {
		t.Fatalf("Realize frame 2: %v", err)
	}
	if device.created != 2 {
		t.Fatalf("created = %d, want 2 (one replacement after the render-resolution change)", device.created)
	}
	if device.destroyed != 1 {
		t.Fatalf("destroyed = %d, want 1 (the stale physical texture)", device.destroyed)
	}

	phys, err := reg.ResolveTexture(tex2)
	if err != nil {
		t.Fatalf("ResolveTexture: %v", err)
	}
	if phys.Width() != 2560 || phys.Height() != 1440 {
		t.Fatalf("resolved texture is %dx%d, want 2560x1440", phys.Width(), phys.Height())
	}
}

func TestRegistrySubresourceCountsDefaultToOne(t *testing.T) {
	device := &registryFakeDevice{}
	reg := NewRegistry(device)
	s := newScheduler(1)

	tex := s.CreateTexture("t", TextureDesc{Resolution: ResolutionFixed, Width: 64, Height: 64})
	if err := reg.Realize(s, 0, 0, 0, 0, false, false); err != nil {
		t.Fatalf("Realize: %v", err)
	}

	mips, layers, err := reg.SubresourceCounts(tex)
	if err != nil {
		t.Fatalf("SubresourceCounts: %v", err)
	}
	if mips != 1 || layers != 1 {
		t.Errorf("mips=%d layers=%d, want 1 and 1 when the descriptor left both at zero", mips, layers)
	}
}

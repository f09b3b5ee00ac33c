package rendergraph

import "fmt"

// Scheduler is the declaration-phase API handed to every pass's
// declaration closure. It allocates virtual resources and records
// their descriptors; the actual read/write bookkeeping lives on the
// Pass itself (see pass.go), since a handle only becomes a dependency
// edge once a pass declares it read or written.
type Scheduler struct {
	graphID uint64

	textures      *slotTable[virtualTexture]
	views         *slotTable[virtualView]
	renderTargets *slotTable[virtualRenderTarget]
}

func newScheduler(graphID uint64) *Scheduler {
	return &Scheduler{
		graphID:       graphID,
		textures:      newSlotTable[virtualTexture](HandleTexture, graphID),
		views:         newSlotTable[virtualView](HandleView, graphID),
		renderTargets: newSlotTable[virtualRenderTarget](HandleRenderTarget, graphID),
	}
}

// reset is called at the start of every frame, before passes are
// redeclared, discarding every handle issued last frame.
func (s *Scheduler) reset() {
	s.textures.reset()
	s.views.reset()
	s.renderTargets.reset()
}

// CreateTexture allocates a virtual-resource slot for a logical
// texture described by desc. name is used for diagnostics only.
func (s *Scheduler) CreateTexture(name string, desc TextureDesc) Handle {
	return s.textures.insert(virtualTexture{name: name, desc: desc})
}

// CreateView allocates a virtual view of kind onto resource, with an
// optional subresource subrange and sRGB override.
func (s *Scheduler) CreateView(kind ViewKind, resource Handle, subrange SubresourceRange, srgb bool) (Handle, error) {
	if resource.kind != HandleTexture || resource.graphID != s.graphID {
		return Handle{}, newErrorf(ErrBadDeclaration, "create_view: handle %s is not a texture from this graph", resource)
	}
	if _, err := s.textures.get(resource); err != nil {
		return Handle{}, err
	}
	return s.views.insert(virtualView{kind: kind, resource: resource, subrange: subrange, srgb: srgb}), nil
}

// CreateRenderTarget groups colour and depth view handles into one bind point.
func (s *Scheduler) CreateRenderTarget(desc RenderTargetDesc) (Handle, error) {
	if len(desc.ColorViews) > 8 {
		return Handle{}, newErrorf(ErrBadDeclaration, "create_render_target: %d colour views exceeds the limit of 8", len(desc.ColorViews))
	}
	for _, v := range desc.ColorViews {
		if _, err := s.views.get(v); err != nil {
			return Handle{}, fmt.Errorf("create_render_target: invalid colour view: %w", err)
		}
	}
	if desc.DepthStencilView.Valid() {
		if _, err := s.views.get(desc.DepthStencilView); err != nil {
			return Handle{}, fmt.Errorf("create_render_target: invalid depth-stencil view: %w", err)
		}
	}
	return s.renderTargets.insert(virtualRenderTarget{desc: desc}), nil
}

// textureDesc resolves a texture handle to its recorded descriptor;
// used by the registry and compiler, not exposed to pass declarations.
func (s *Scheduler) textureDesc(h Handle) (virtualTexture, error) {
	return s.textures.get(h)
}

func (s *Scheduler) viewDesc(h Handle) (virtualView, error) {
	return s.views.get(h)
}

func (s *Scheduler) renderTargetDesc(h Handle) (virtualRenderTarget, error) {
	return s.renderTargets.get(h)
}

// access describes what a pass actually touches once a Read/Write
// handle (which may name a texture directly or a view onto one) has
// been resolved down to the underlying texture it affects.
type access struct {
	texture  Handle
	kind     ViewKind
	subrange SubresourceRange
}

// resolveAccess resolves h, as declared in a pass's read or write set,
// to the texture handle the dependency graph must track plus the view
// kind/subrange the tracker needs to compute the required state. A
// bare texture handle (no view) defaults to ViewShaderResource for
// reads and ViewRenderTarget for writes, covering passes that touch a
// resource directly without binding a typed view.
func (s *Scheduler) resolveAccess(h Handle, write bool) (access, error) {
	switch h.kind {
	case HandleTexture:
		if _, err := s.textures.get(h); err != nil {
			return access{}, err
		}
		kind := ViewShaderResource
		if write {
			kind = ViewRenderTarget
		}
		return access{texture: h, kind: kind}, nil
	case HandleView:
		v, err := s.views.get(h)
		if err != nil {
			return access{}, err
		}
		return access{texture: v.resource, kind: v.kind, subrange: v.subrange}, nil
	default:
		return access{}, newErrorf(ErrBadDeclaration, "handle %s is neither a texture nor a view", h)
	}
}

package rendergraph

import (
	"fmt"

	"github.com/forgekit/forge/engine/core"
)

// registryKey identifies a physical resource slot that can be reused
// across frames: the texture's diagnostic name plus every
// descriptor field that isn't resolution-derived. Two virtual
// textures declared with the same name and descriptor in successive
// frames resolve to the same physical texture as long as the resolved
// width/height hasn't changed (persistent, resolution-keyed reuse,
// §4.4/lifecycle).
type registryKey struct {
	name        string
	dimension   TextureDimension
	format      TextureFormat
	resolution  ResolutionKind
	fixedW      uint32
	fixedH      uint32
	mipLevels   uint32
	arrayLayers uint32
	usage       UsageFlags
}

func makeRegistryKey(name string, desc TextureDesc) registryKey {
	k := registryKey{
		name:        name,
		dimension:   desc.Dimension,
		format:      desc.Format,
		resolution:  desc.Resolution,
		mipLevels:   desc.MipLevels,
		arrayLayers: desc.ArrayLayers,
		usage:       desc.Usage,
	}
	if desc.Resolution == ResolutionFixed {
		k.fixedW, k.fixedH = desc.Width, desc.Height
	}
	return k
}

type viewKey struct {
	kind     ViewKind
	subrange SubresourceRange
	srgb     bool
}

// physicalEntry is a cached physical texture plus every view created
// against it so far, persisted across frames under the owning registryKey.
type physicalEntry struct {
	texture     PhysicalTexture
	width       uint32
	height      uint32
	mipLevels   uint32
	arrayLayers uint32
	views       map[viewKey]PhysicalView
}

// Registry realises virtual resources recorded by a Scheduler into
// physical objects through a Device, and resolves handles back to
// those physical objects for pass execute callbacks (§4.4).
type Registry struct {
	device Device
	cache  map[registryKey]*physicalEntry

	// per-frame resolution, rebuilt by Realize.
	textureEntry map[Handle]*physicalEntry
	viewPhysical map[Handle]PhysicalView
	renderTarget map[Handle]RenderTargetDesc
}

// NewRegistry creates a registry bound to device, which it uses to
// create and destroy physical textures and views.
func NewRegistry(device Device) *Registry {
	return &Registry{
		device: device,
		cache:  make(map[registryKey]*physicalEntry),
	}
}

// Realize materialises every texture, view, and render target the
// scheduler currently knows about, reusing cached physical resources
// whenever their registry key and resolved dimensions haven't changed
// and dropping+recreating the ones that have.
func (r *Registry) Realize(s *Scheduler, renderW, renderH, viewportW, viewportH uint32, renderDirty, viewportDirty bool) error {
	if renderDirty {
		r.dropByResolutionKind(ResolutionRender)
	}
	if viewportDirty {
		r.dropByResolutionKind(ResolutionViewport)
	}

	r.textureEntry = make(map[Handle]*physicalEntry, s.textures.len())
	r.viewPhysical = make(map[Handle]PhysicalView, s.views.len())
	r.renderTarget = make(map[Handle]RenderTargetDesc, s.renderTargets.len())

	for _, te := range s.textures.entries() {
		w, h := resolveDimensions(te.Value.desc, renderW, renderH, viewportW, viewportH)
		key := makeRegistryKey(te.Value.name, te.Value.desc)

		entry, ok := r.cache[key]
		if ok && (entry.width != w || entry.height != h) {
			r.device.Destroy(entry.texture)
			for _, v := range entry.views {
				r.device.Destroy(v)
			}
			delete(r.cache, key)
			ok = false
		}
		if !ok {
			tex, err := r.device.CreateTexture(te.Value.desc, w, h)
			if err != nil {
				return wrapError(ErrResourceUnavailable, fmt.Sprintf("failed to realise texture %q at %dx%d", te.Value.name, w, h), err)
			}
			mipLevels, arrayLayers := te.Value.desc.MipLevels, te.Value.desc.ArrayLayers
			if mipLevels == 0 {
				mipLevels = 1
			}
			if arrayLayers == 0 {
				arrayLayers = 1
			}
			entry = &physicalEntry{
				texture: tex, width: w, height: h,
				mipLevels: mipLevels, arrayLayers: arrayLayers,
				views: make(map[viewKey]PhysicalView),
			}
			r.cache[key] = entry
			core.LogDebug("rendergraph: realised texture %q (%dx%d)", te.Value.name, w, h)
		}
		r.textureEntry[te.Handle] = entry
	}

	for _, ve := range s.views.entries() {
		entry, ok := r.textureEntry[ve.Value.resource]
		if !ok {
			return newErrorf(ErrBadDeclaration, "view references a texture handle not known to this registry")
		}
		vk := viewKey{kind: ve.Value.kind, subrange: ve.Value.subrange, srgb: ve.Value.srgb}
		phys, ok := entry.views[vk]
		if !ok {
			created, err := r.device.CreateView(ve.Value.kind, entry.texture, ve.Value.subrange, ve.Value.srgb)
			if err != nil {
				return wrapError(ErrResourceUnavailable, "failed to realise view", err)
			}
			entry.views[vk] = created
			phys = created
		}
		r.viewPhysical[ve.Handle] = phys
	}

	for _, rte := range s.renderTargets.entries() {
		r.renderTarget[rte.Handle] = rte.Value.desc
	}
	return nil
}

func (r *Registry) dropByResolutionKind(kind ResolutionKind) {
	for key, entry := range r.cache {
		if key.resolution != kind {
			continue
		}
		r.device.Destroy(entry.texture)
		for _, v := range entry.views {
			r.device.Destroy(v)
		}
		delete(r.cache, key)
	}
}

func resolveDimensions(desc TextureDesc, renderW, renderH, viewportW, viewportH uint32) (uint32, uint32) {
	switch desc.Resolution {
	case ResolutionViewport:
		return viewportW, viewportH
	case ResolutionFixed:
		return desc.Width, desc.Height
	default:
		return renderW, renderH
	}
}

// ResolveTexture resolves a virtual texture handle to its physical
// counterpart. A handle from a resource the registry never realised
// (for instance, one resolved after a frame boundary) is a fatal error
// per invariant 7.
func (r *Registry) ResolveTexture(h Handle) (PhysicalTexture, error) {
	entry, ok := r.textureEntry[h]
	if !ok {
		err := newErrorf(ErrBadDeclaration, "resolve: texture handle %s was never realised (freed or from another frame)", h)
		core.LogError(err.Error())
		return nil, err
	}
	return entry.texture, nil
}

// SubresourceCounts returns the mip and array-layer counts a realised
// texture handle was created with, used by the Executor to flatten a
// SubresourceRange into the tracker's per-subresource indices.
func (r *Registry) SubresourceCounts(h Handle) (mipLevels, arrayLayers uint32, err error) {
	entry, ok := r.textureEntry[h]
	if !ok {
		return 0, 0, newErrorf(ErrBadDeclaration, "subresource_counts: texture handle %s was never realised", h)
	}
	return entry.mipLevels, entry.arrayLayers, nil
}

// ResolveView resolves a virtual view handle to its physical counterpart.
func (r *Registry) ResolveView(h Handle) (PhysicalView, error) {
	v, ok := r.viewPhysical[h]
	if !ok {
		err := newErrorf(ErrBadDeclaration, "resolve: view handle %s was never realised (freed or from another frame)", h)
		core.LogError(err.Error())
		return nil, err
	}
	return v, nil
}

// ResolveRenderTarget resolves a render-target group handle back to
// its virtual descriptor (the view handles inside it are resolved
// individually by the caller, typically the CommandRecorder implementation).
func (r *Registry) ResolveRenderTarget(h Handle) (RenderTargetDesc, error) {
	desc, ok := r.renderTarget[h]
	if !ok {
		return RenderTargetDesc{}, newErrorf(ErrBadDeclaration, "resolve: render target handle %s was never realised", h)
	}
	return desc, nil
}

// Shutdown destroys every physical resource the registry has ever
// cached. Called when the owning renderer tears down for good, not
// between frames.
func (r *Registry) Shutdown() {
	for key, entry := range r.cache {
		r.device.Destroy(entry.texture)
		for _, v := range entry.views {
			r.device.Destroy(v)
		}
		delete(r.cache, key)
	}
}

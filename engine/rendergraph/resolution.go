package rendergraph

// ResolutionSource is owned by the outer renderer and exposes the
// frame's current render and viewport widths/heights plus dirty
// flags; the graph consults it once per Compile (§6).
type ResolutionSource interface {
	RenderResolution() (width, height uint32)
	ViewportResolution() (width, height uint32)
	// Dirty reports whether either resolution changed since the last
	// time the graph observed this source, and clears the flag.
	Dirty() (renderChanged, viewportChanged bool)
}

// FixedResolutionSource is the simplest ResolutionSource: two
// resolution pairs set by the owner, with manual dirty marking. It is
// a usable default for tests and for callers that don't yet have a
// real swap-chain-driven resolution source wired up.
type FixedResolutionSource struct {
	renderW, renderH     uint32
	viewportW, viewportH uint32
	renderDirty          bool
	viewportDirty        bool
}

// NewFixedResolutionSource creates a source already marked dirty so
// the first Compile always realises resources.
func NewFixedResolutionSource(renderW, renderH, viewportW, viewportH uint32) *FixedResolutionSource {
	return &FixedResolutionSource{
		renderW: renderW, renderH: renderH,
		viewportW: viewportW, viewportH: viewportH,
		renderDirty: true, viewportDirty: true,
	}
}

func (f *FixedResolutionSource) RenderResolution() (uint32, uint32) { return f.renderW, f.renderH }
func (f *FixedResolutionSource) ViewportResolution() (uint32, uint32) {
	return f.viewportW, f.viewportH
}

func (f *FixedResolutionSource) Dirty() (bool, bool) {
	r, v := f.renderDirty, f.viewportDirty
	f.renderDirty, f.viewportDirty = false, false
	return r, v
}

// SetRenderResolution updates the render resolution and marks it dirty
// if it actually changed.
func (f *FixedResolutionSource) SetRenderResolution(width, height uint32) {
	if width != f.renderW || height != f.renderH {
		f.renderW, f.renderH = width, height
		f.renderDirty = true
	}
}

// SetViewportResolution updates the viewport resolution and marks it
// dirty if it actually changed.
func (f *FixedResolutionSource) SetViewportResolution(width, height uint32) {
	if width != f.viewportW || height != f.viewportH {
		f.viewportW, f.viewportH = width, height
		f.viewportDirty = true
	}
}

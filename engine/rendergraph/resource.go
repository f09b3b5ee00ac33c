package rendergraph

// TextureDimension mirrors the small set of dimensions a virtual
// texture resource can describe.
type TextureDimension uint8

const (
	Texture2D TextureDimension = iota
	Texture2DArray
	Texture3D
	TextureCube
)

// TextureFormat is a small, engine-level stand in for the device's
// native pixel format enumeration; the device trait is responsible for
// translating it to whatever the concrete backend expects.
type TextureFormat uint8

const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8Unorm
	FormatRGBA16Float
	FormatRGBA32Float
	FormatR32Float
	FormatD32Float
	FormatD24UnormS8Uint
	FormatR11G11B10Float
)

// UsageFlags describes the allowed bind points for a virtual texture.
type UsageFlags uint8

const (
	UsageRenderTarget UsageFlags = 1 << iota
	UsageDepthStencil
	UsageShaderResource
	UsageUnorderedAccess
	UsageCopySource
	UsageCopyDest
)

func (u UsageFlags) Has(flag UsageFlags) bool { return u&flag != 0 }

// ResolutionKind selects which of the frame's two resolution pairs a
// virtual texture's width/height are expressed against.
type ResolutionKind uint8

const (
	ResolutionRender ResolutionKind = iota
	ResolutionViewport
	ResolutionFixed
)

// ClearValue is the optimised clear value attached to a texture
// descriptor; device implementations use it at physical creation time
// so driver-side fast-clear paths stay valid.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// TextureDesc fully describes a virtual texture resource. The
// registry's cache key (registry.go) is built from every field here
// except Clear (Width/Height only for ResolutionFixed) plus the
// texture's name, and a cached texture is reused only while its
// resolved width/height is unchanged.
type TextureDesc struct {
	Dimension   TextureDimension
	Format      TextureFormat
	Resolution  ResolutionKind
	Width       uint32 // only meaningful when Resolution == ResolutionFixed
	Height      uint32 // only meaningful when Resolution == ResolutionFixed
	MipLevels   uint32
	ArrayLayers uint32
	Usage       UsageFlags
	Clear       ClearValue
}

// virtualTexture is the scheduler-side record backing a texture Handle.
type virtualTexture struct {
	name string
	desc TextureDesc
}

// ViewKind enumerates the four view flavours a virtual view can be.
type ViewKind uint8

const (
	ViewRenderTarget ViewKind = iota
	ViewDepthStencil
	ViewShaderResource
	ViewUnorderedAccess
)

// SubresourceRange selects a mip/array subset of a texture; the zero
// value means "the whole resource".
type SubresourceRange struct {
	BaseMip    uint32
	MipCount   uint32 // 0 means "all remaining mips"
	BaseLayer  uint32
	LayerCount uint32 // 0 means "all remaining layers"
}

// wholeResource reports whether the range covers every subresource of
// a texture with the given mip/array counts.
func (r SubresourceRange) wholeResource(mipLevels, arrayLayers uint32) bool {
	mc := r.MipCount
	if mc == 0 {
		mc = mipLevels - r.BaseMip
	}
	lc := r.LayerCount
	if lc == 0 {
		lc = arrayLayers - r.BaseLayer
	}
	return r.BaseMip == 0 && r.BaseLayer == 0 && mc >= mipLevels && lc >= arrayLayers
}

// virtualView is the scheduler-side record backing a view Handle.
type virtualView struct {
	kind     ViewKind
	resource Handle
	subrange SubresourceRange
	srgb     bool
}

// RenderTargetDesc groups up to eight colour views and one
// depth-stencil view into a single bind point.
type RenderTargetDesc struct {
	ColorViews       []Handle // at most 8
	DepthStencilView Handle   // zero Handle means "none"
}

// virtualRenderTarget is the scheduler-side record backing a
// render-target Handle.
type virtualRenderTarget struct {
	desc RenderTargetDesc
}

// ResourceState is the fixed usage-state enumeration every physical
// resource transitions between.
type ResourceState uint8

const (
	StateUnknown ResourceState = iota
	StateCommon
	StateRenderTarget
	StateDepthWrite
	StateDepthRead
	StateShaderResource
	StateUnorderedAccess
	StateCopySource
	StateCopyDest
	StatePresent
)

func (s ResourceState) String() string {
	switch s {
	case StateCommon:
		return "common"
	case StateRenderTarget:
		return "render-target"
	case StateDepthWrite:
		return "depth-write"
	case StateDepthRead:
		return "depth-read"
	case StateShaderResource:
		return "shader-resource"
	case StateUnorderedAccess:
		return "unordered-access"
	case StateCopySource:
		return "copy-source"
	case StateCopyDest:
		return "copy-dest"
	case StatePresent:
		return "present"
	default:
		return "unknown"
	}
}

// isReadOnly reports whether a state only ever reads a resource, which
// governs whether it may be combined with other read states in a
// single level's barrier batch (see tracker.go combineStates).
func (s ResourceState) isReadOnly() bool {
	switch s {
	case StateShaderResource, StateDepthRead, StateCopySource:
		return true
	default:
		return false
	}
}

// expandSubresourceIndices flattens a mip/array subrange into the flat
// per-subresource indices the tracker keys its per-list/global state
// maps by, using index = layer*mipLevels + mip so any (mip, layer)
// pair round-trips without needing the tracker to know the texture's
// shape itself.
func expandSubresourceIndices(r SubresourceRange, mipLevels, arrayLayers uint32) []uint32 {
	mipCount := r.MipCount
	if mipCount == 0 {
		mipCount = mipLevels - r.BaseMip
	}
	layerCount := r.LayerCount
	if layerCount == 0 {
		layerCount = arrayLayers - r.BaseLayer
	}
	indices := make([]uint32, 0, mipCount*layerCount)
	for layer := r.BaseLayer; layer < r.BaseLayer+layerCount; layer++ {
		for mip := r.BaseMip; mip < r.BaseMip+mipCount; mip++ {
			indices = append(indices, layer*mipLevels+mip)
		}
	}
	return indices
}

// subresourceRangeOf converts a single flat subresource index produced
// by expandSubresourceIndices back into the single-mip, single-layer
// range the CommandRecorder trait expects for a Transition call.
func subresourceRangeOf(index, mipLevels uint32) SubresourceRange {
	return SubresourceRange{
		BaseMip:    index % mipLevels,
		MipCount:   1,
		BaseLayer:  index / mipLevels,
		LayerCount: 1,
	}
}

// requiredState maps a view kind plus whether the pass reads or writes
// through it to the resource state the tracker must bring the
// underlying subresources into.
func requiredState(kind ViewKind, write bool) ResourceState {
	switch kind {
	case ViewRenderTarget:
		return StateRenderTarget
	case ViewDepthStencil:
		if write {
			return StateDepthWrite
		}
		return StateDepthRead
	case ViewShaderResource:
		return StateShaderResource
	case ViewUnorderedAccess:
		return StateUnorderedAccess
	default:
		return StateCommon
	}
}

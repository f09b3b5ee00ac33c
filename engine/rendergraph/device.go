package rendergraph

// PhysicalTexture is the device-realised counterpart of a virtual
// texture. The graph core only ever holds this behind the interface;
// concrete backends (see rendergraph/vkadapter) embed whatever handle
// type their API needs.
type PhysicalTexture interface {
	// Width and Height report the resolved dimensions the texture was
	// created with, used by the registry to decide whether a cached
	// physical resource survives a resolution change.
	Width() uint32
	Height() uint32
}

// PhysicalView is the device-realised counterpart of a virtual view.
type PhysicalView interface {
	// Texture returns the physical texture this view was created against.
	Texture() PhysicalTexture
}

// Device is the narrow trait the graph core consumes to realise
// virtual resources. All calls are synchronous, matching §6: the
// out-of-scope graphics API wrappers (device, queues, descriptor
// heaps, pipelines) sit behind this single abstraction.
type Device interface {
	// CreateTexture allocates a physical texture matching desc at the
	// given resolved width/height.
	CreateTexture(desc TextureDesc, width, height uint32) (PhysicalTexture, error)
	// CreateView creates a view of kind onto texture, restricted to subrange.
	CreateView(kind ViewKind, texture PhysicalTexture, subrange SubresourceRange, srgb bool) (PhysicalView, error)
	// Destroy releases a physical texture or view created by this device.
	Destroy(resource interface{})
}

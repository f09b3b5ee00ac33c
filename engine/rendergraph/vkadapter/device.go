package vkadapter

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/forgekit/forge/engine/core"
	"github.com/forgekit/forge/engine/rendergraph"
	vulkan "github.com/forgekit/forge/engine/renderer/vulkan"
)

// Device implements rendergraph.Device on top of an existing
// *vulkan.VulkanContext, the same context the rest of the renderer
// backend already owns. It only ever creates render-graph-managed
// transient resources; swapchain images and long-lived engine
// resources are untouched.
type Device struct {
	context *vulkan.VulkanContext
}

// NewDevice adapts context into a rendergraph.Device.
func NewDevice(context *vulkan.VulkanContext) *Device {
	return &Device{context: context}
}

func (d *Device) CreateTexture(desc rendergraph.TextureDesc, width, height uint32) (rendergraph.PhysicalTexture, error) {
	format := formatOf(desc.Format)
	aspect := aspectOf(desc.Format)
	usage := usageFlagsOf(desc.Usage)
	imageType := imageTypeOf(desc.Dimension)

	image, err := vulkan.ImageCreate(
		d.context,
		imageType,
		width, height,
		format,
		vk.ImageTilingOptimal,
		usage,
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit),
		true,
		aspect,
	)
	if err != nil {
		core.LogError("vkadapter: failed to create texture: %v", err)
		return nil, err
	}

	mipLevels, arrayLayers := desc.MipLevels, desc.ArrayLayers
	if mipLevels == 0 {
		mipLevels = 1
	}
	if arrayLayers == 0 {
		arrayLayers = 1
	}

	return &Texture{image: image, format: format, aspect: aspect, mipLevels: mipLevels, arrayLayers: arrayLayers}, nil
}

// CreateView creates a vk.ImageView onto texture. subrange is accepted
// per the rendergraph.Device contract but not yet threaded through to
// the underlying vk.ImageViewCreateInfo.SubresourceRange: the wrapped
// vulkan.VulkanImage.ImageViewCreate hardcodes a single mip/layer,
// matching the rest of the teacher's Vulkan backend, which doesn't
// mip-map or array-layer anything yet either. Whole-resource views are
// the only ones this adapter can realise until that wrapper grows
// subresource support.
func (d *Device) CreateView(kind rendergraph.ViewKind, texture rendergraph.PhysicalTexture, subrange rendergraph.SubresourceRange, srgb bool) (rendergraph.PhysicalView, error) {
	tex, ok := texture.(*Texture)
	if !ok {
		return nil, fmt.Errorf("vkadapter: create_view: texture %T was not created by this device", texture)
	}

	format := tex.format
	if srgb {
		format = srgbVariantOf(format)
	}

	view := &vulkan.VulkanImage{
		Handle: tex.image.Handle,
		Memory: tex.image.Memory,
		Width:  tex.image.Width,
		Height: tex.image.Height,
	}
	if err := view.ImageViewCreate(d.context, format, tex.aspect); err != nil {
		core.LogError("vkadapter: failed to create view: %v", err)
		return nil, err
	}

	return &View{handle: view.View, texture: tex}, nil
}

// Destroy releases a physical texture or view previously created by
// this device. A view shares its owning texture's memory allocation,
// so it only ever destroys the vk.ImageView, never the underlying
// image or memory.
func (d *Device) Destroy(resource interface{}) {
	switch r := resource.(type) {
	case *Texture:
		r.image.ImageDestroy(d.context)
	case *View:
		if r.handle != nil {
			vk.DestroyImageView(d.context.Device.LogicalDevice, r.handle, d.context.Allocator)
			r.handle = nil
		}
	default:
		core.LogWarn("vkadapter: destroy called with unrecognised resource type %T", resource)
	}
}

func formatOf(f rendergraph.TextureFormat) vk.Format {
	switch f {
	case rendergraph.FormatRGBA8Unorm:
		return vk.FormatR8g8b8a8Unorm
	case rendergraph.FormatRGBA16Float:
		return vk.FormatR16g16b16a16Sfloat
	case rendergraph.FormatRGBA32Float:
		return vk.FormatR32g32b32a32Sfloat
	case rendergraph.FormatR32Float:
		return vk.FormatR32Sfloat
	case rendergraph.FormatD32Float:
		return vk.FormatD32Sfloat
	case rendergraph.FormatD24UnormS8Uint:
		return vk.FormatD24UnormS8Uint
	case rendergraph.FormatR11G11B10Float:
		return vk.FormatB10g11r11UfloatPack32
	default:
		return vk.FormatUndefined
	}
}

func srgbVariantOf(f vk.Format) vk.Format {
	if f == vk.FormatR8g8b8a8Unorm {
		return vk.FormatR8g8b8a8Srgb
	}
	return f
}

func aspectOf(f rendergraph.TextureFormat) vk.ImageAspectFlags {
	switch f {
	case rendergraph.FormatD32Float:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	case rendergraph.FormatD24UnormS8Uint:
		return vk.ImageAspectFlags(vk.ImageAspectDepthBit) | vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	default:
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
}

func usageFlagsOf(u rendergraph.UsageFlags) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlags
	if u.Has(rendergraph.UsageRenderTarget) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	}
	if u.Has(rendergraph.UsageDepthStencil) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	}
	if u.Has(rendergraph.UsageShaderResource) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	if u.Has(rendergraph.UsageUnorderedAccess) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}
	if u.Has(rendergraph.UsageCopySource) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit)
	}
	if u.Has(rendergraph.UsageCopyDest) {
		flags |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}
	return flags
}

func imageTypeOf(dim rendergraph.TextureDimension) vk.ImageType {
	if dim == rendergraph.Texture3D {
		return vk.ImageType3d
	}
	return vk.ImageType2d
}

// Package vkadapter adapts the engine's existing Vulkan wrapper
// (engine/renderer/vulkan) to the rendergraph.Device and
// rendergraph.CommandRecorder traits, so the render graph can realise
// and transition real Vulkan resources instead of a test double.
package vkadapter

import (
	vk "github.com/goki/vulkan"

	"github.com/forgekit/forge/engine/rendergraph"
	vulkan "github.com/forgekit/forge/engine/renderer/vulkan"
)

// Texture wraps a VulkanImage plus the descriptor fields the adapter
// needs to decide layouts, access masks, and view creation — none of
// which vulkan.VulkanImage tracks itself.
type Texture struct {
	image       *vulkan.VulkanImage
	format      vk.Format
	aspect      vk.ImageAspectFlags
	mipLevels   uint32
	arrayLayers uint32
}

func (t *Texture) Width() uint32  { return t.image.Width }
func (t *Texture) Height() uint32 { return t.image.Height }

// View wraps a vk.ImageView plus the Texture it was created against,
// satisfying rendergraph.PhysicalView.
type View struct {
	handle  vk.ImageView
	texture *Texture
}

func (v *View) Texture() rendergraph.PhysicalTexture { return v.texture }

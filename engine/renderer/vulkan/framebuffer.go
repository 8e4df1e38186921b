package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Surface is an attachment image. Resizing replaces the image and keeps the Surface.
type Surface struct {
	ID        uuid.UUID
	spec      gpu.AttachmentSpec
	size      gpu.Size
	image     *Image
	destroyed bool
}

func (s *Surface) Size() gpu.Size               { return s.size }
func (s *Surface) Spec() gpu.AttachmentSpec     { return s.spec }
func (s *Surface) sampleView() vk.ImageView     { return s.image.SampleView }
func (s *Surface) sampleLayout() vk.ImageLayout { return restingLayout(s.spec) }

// Framebuffer is an offscreen target with its own render pass.
type Framebuffer struct {
	ID         uuid.UUID
	Handle     vk.Framebuffer
	surfaces   []gpu.Surface
	size       gpu.Size
	renderPass *RenderPass
}

func (f *Framebuffer) Size() gpu.Size          { return f.size }
func (f *Framebuffer) Surfaces() []gpu.Surface { return f.surfaces }

// validateSurfaces checks that the attachments form a complete framebuffer.
func validateSurfaces(surfaces []gpu.Surface, maxColor int) error {
	if len(surfaces) == 0 {
		return core.NewBackendError("validate framebuffer", fmt.Errorf("missing attachment: %w", core.ErrIncompleteTarget))
	}
	colors, depths := 0, 0
	size := surfaces[0].Size()
	for _, s := range surfaces {
		if vs, ok := s.(*Surface); !ok || vs.destroyed {
			return core.NewBackendError("validate framebuffer", fmt.Errorf("foreign or destroyed attachment: %w", core.ErrIncompleteTarget))
		}
		if s.Size() != size {
			return core.NewBackendError("validate framebuffer", fmt.Errorf("attachment size mismatch: %w", core.ErrIncompleteTarget))
		}
		if s.Spec().Role.IsColor() {
			colors++
		} else {
			depths++
		}
	}
	if colors > maxColor {
		return core.NewBackendError("validate framebuffer", fmt.Errorf("%d color attachments: %w", colors, core.ErrUnsupportedFormat))
	}
	if depths > 1 {
		return core.NewBackendError("validate framebuffer", fmt.Errorf("%d depth/stencil attachments: %w", depths, core.ErrIncompleteTarget))
	}
	return nil
}

// attachmentViews orders the framebuffer views the way targetAttachments
// orders the render pass attachments.
func attachmentViews(surfaces []gpu.Surface) []vk.ImageView {
	var colors, depth []vk.ImageView
	for _, s := range surfaces {
		vs := s.(*Surface)
		if vs.spec.Role.IsColor() {
			colors = append(colors, vs.image.View)
		} else {
			depth = append(depth, vs.image.View)
		}
	}
	return append(colors, depth...)
}

func createFramebufferHandle(ctx *Context, rp *RenderPass, views []vk.ImageView, width, height uint32) (vk.Framebuffer, error) {
	info := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp.Handle,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          1,
	}
	var handle vk.Framebuffer
	if err := check("create framebuffer", vk.CreateFramebuffer(ctx.Device.LogicalDevice, &info, ctx.Allocator, &handle)); err != nil {
		return vk.NullFramebuffer, err
	}
	return handle, nil
}

func (f *Framebuffer) destroyHandle(ctx *Context) {
	if f.Handle != vk.NullFramebuffer {
		vk.DestroyFramebuffer(ctx.Device.LogicalDevice, f.Handle, ctx.Allocator)
		f.Handle = vk.NullFramebuffer
	}
}

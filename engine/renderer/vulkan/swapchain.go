package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Swapchain owns the presentable images, a shared depth/stencil image and
// the window render passes. firstPass starts from undefined contents and is
// used for the first window pass of a frame; loadPass keeps what earlier
// window passes drew.
type Swapchain struct {
	Handle       vk.Swapchain
	Format       vk.SurfaceFormat
	Extent       vk.Extent2D
	Images       []vk.Image
	Views        []vk.ImageView
	Depth        *Image
	Framebuffers []vk.Framebuffer

	firstPass *RenderPass
	loadPass  *RenderPass
}

func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	best := vk.PresentModeFifo
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return m
		}
		if m == vk.PresentModeImmediate {
			best = m
		}
	}
	return best
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Unorm && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

func chooseExtent(caps vk.SurfaceCapabilities, size gpu.Size) vk.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(uint32(size.Width), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(size.Height), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, lo, hi uint32) uint32 {
	return max(lo, min(v, hi))
}

func NewSwapchain(ctx *Context, size gpu.Size, vsync bool) (*Swapchain, error) {
	support := ctx.Device.SwapchainSupport
	if len(support.Formats) == 0 {
		return nil, core.NewBackendError("create swapchain", fmt.Errorf("surface has no formats"))
	}
	sc := &Swapchain{
		Format: chooseSurfaceFormat(support.Formats),
		Extent: chooseExtent(support.Capabilities, size),
	}
	if sc.Extent.Width == 0 || sc.Extent.Height == 0 {
		return nil, core.ErrSwapchainBooting
	}

	imageCount := support.Capabilities.MinImageCount + 1
	if support.Capabilities.MaxImageCount > 0 && imageCount > support.Capabilities.MaxImageCount {
		imageCount = support.Capabilities.MaxImageCount
	}

	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          ctx.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      sc.Format.Format,
		ImageColorSpace:  sc.Format.ColorSpace,
		ImageExtent:      sc.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      choosePresentMode(support.PresentModes, vsync),
		Clipped:          vk.True,
	}
	if ctx.Device.GraphicsQueueIndex != ctx.Device.PresentQueueIndex {
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = 2
		info.PQueueFamilyIndices = []uint32{ctx.Device.GraphicsQueueIndex, ctx.Device.PresentQueueIndex}
	}

	device := ctx.Device.LogicalDevice
	var handle vk.Swapchain
	if err := check("create swapchain", vk.CreateSwapchain(device, &info, ctx.Allocator, &handle)); err != nil {
		return nil, err
	}
	sc.Handle = handle

	var count uint32
	if err := check("swapchain images", vk.GetSwapchainImages(device, handle, &count, nil)); err != nil {
		sc.Destroy(ctx)
		return nil, err
	}
	sc.Images = make([]vk.Image, count)
	if err := check("swapchain images", vk.GetSwapchainImages(device, handle, &count, sc.Images)); err != nil {
		sc.Destroy(ctx)
		return nil, err
	}
	sc.Views = make([]vk.ImageView, count)
	for i, img := range sc.Images {
		view, err := createView(ctx, img, sc.Format.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			sc.Destroy(ctx)
			return nil, err
		}
		sc.Views[i] = view
	}

	depthFormat := ctx.Device.DepthStencilFormat
	depth, err := NewImage(ctx, sc.Extent.Width, sc.Extent.Height, depthFormat,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit))
	if err != nil {
		sc.Destroy(ctx)
		return nil, err
	}
	sc.Depth = depth

	depthLayout := vk.ImageLayoutDepthStencilAttachmentOptimal
	first := []attachmentDesc{
		{format: sc.Format.Format, initial: vk.ImageLayoutUndefined, final: vk.ImageLayoutPresentSrc, subpass: vk.ImageLayoutColorAttachmentOptimal},
		{format: depthFormat, initial: vk.ImageLayoutUndefined, final: depthLayout, subpass: depthLayout},
	}
	load := []attachmentDesc{
		{format: sc.Format.Format, initial: vk.ImageLayoutPresentSrc, final: vk.ImageLayoutPresentSrc, subpass: vk.ImageLayoutColorAttachmentOptimal},
		{format: depthFormat, initial: depthLayout, final: depthLayout, subpass: depthLayout},
	}
	if sc.firstPass, err = NewRenderPass(ctx, first); err != nil {
		sc.Destroy(ctx)
		return nil, err
	}
	if sc.loadPass, err = NewRenderPass(ctx, load); err != nil {
		sc.Destroy(ctx)
		return nil, err
	}

	sc.Framebuffers = make([]vk.Framebuffer, count)
	for i, view := range sc.Views {
		fb, err := createFramebufferHandle(ctx, sc.firstPass, []vk.ImageView{view, depth.View}, sc.Extent.Width, sc.Extent.Height)
		if err != nil {
			sc.Destroy(ctx)
			return nil, err
		}
		sc.Framebuffers[i] = fb
	}
	core.LogInfo("Swapchain created (%dx%d, %d images).", sc.Extent.Width, sc.Extent.Height, count)
	return sc, nil
}

// Acquire returns the next image index. ErrSwapchainBooting means the
// swapchain is out of date and must be recreated before drawing.
func (sc *Swapchain) Acquire(ctx *Context, available vk.Semaphore) (uint32, error) {
	var index uint32
	res := vk.AcquireNextImage(ctx.Device.LogicalDevice, sc.Handle, math.MaxUint64, available, vk.NullFence, &index)
	switch res {
	case vk.Success, vk.Suboptimal:
		return index, nil
	case vk.ErrorOutOfDate:
		return 0, core.ErrSwapchainBooting
	}
	return 0, check("acquire swapchain image", res)
}

// Present queues image for display. It reports true when the swapchain no
// longer matches the surface.
func (sc *Swapchain) Present(ctx *Context, renderComplete vk.Semaphore, image uint32) (bool, error) {
	info := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderComplete},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.Handle},
		PImageIndices:      []uint32{image},
	}
	var res vk.Result
	_ = ctx.queueLocks.Do(ctx.Device.PresentQueueIndex, func() error {
		res = vk.QueuePresent(ctx.Device.PresentQueue, &info)
		return nil
	})
	switch res {
	case vk.Success:
		return false, nil
	case vk.Suboptimal, vk.ErrorOutOfDate:
		return true, nil
	}
	return false, check("present", res)
}

func (sc *Swapchain) Destroy(ctx *Context) {
	device := ctx.Device.LogicalDevice
	for _, fb := range sc.Framebuffers {
		if fb != vk.NullFramebuffer {
			vk.DestroyFramebuffer(device, fb, ctx.Allocator)
		}
	}
	sc.Framebuffers = nil
	if sc.firstPass != nil {
		sc.firstPass.Destroy(ctx)
	}
	if sc.loadPass != nil {
		sc.loadPass.Destroy(ctx)
	}
	if sc.Depth != nil {
		sc.Depth.Destroy(ctx)
		sc.Depth = nil
	}
	// Images belong to the swapchain; only the views are ours.
	for _, v := range sc.Views {
		if v != vk.NullImageView {
			vk.DestroyImageView(device, v, ctx.Allocator)
		}
	}
	sc.Views = nil
	if sc.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(device, sc.Handle, ctx.Allocator)
		sc.Handle = vk.NullSwapchain
	}
}

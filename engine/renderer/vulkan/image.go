package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
)

// Image is a device local 2D image with its memory and views.
type Image struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	// View is the framebuffer view covering every aspect of the format.
	View vk.ImageView
	// SampleView is what shaders read. It differs from View for depth/stencil formats.
	SampleView vk.ImageView
	Format     vk.Format
	Width      uint32
	Height     uint32
	Layout     vk.ImageLayout
}

func NewImage(ctx *Context, width, height uint32, format vk.Format, usage vk.ImageUsageFlags) (*Image, error) {
	img := &Image{Format: format, Width: width, Height: height, Layout: vk.ImageLayoutUndefined}
	device := ctx.Device.LogicalDevice

	info := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var handle vk.Image
	if err := check("create image", vk.CreateImage(device, &info, ctx.Allocator, &handle)); err != nil {
		return nil, err
	}
	img.Handle = handle

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, handle, &reqs)
	reqs.Deref()
	index := ctx.FindMemoryIndex(reqs.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if index < 0 {
		img.Destroy(ctx)
		return nil, core.NewBackendError("create image", fmt.Errorf("no device local memory type"))
	}
	alloc := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: uint32(index),
	}
	var mem vk.DeviceMemory
	if err := check("allocate image memory", vk.AllocateMemory(device, &alloc, ctx.Allocator, &mem)); err != nil {
		img.Destroy(ctx)
		return nil, err
	}
	img.Memory = mem
	if err := check("bind image memory", vk.BindImageMemory(device, handle, mem, 0)); err != nil {
		img.Destroy(ctx)
		return nil, err
	}

	view, err := createView(ctx, handle, format, attachmentAspect(format))
	if err != nil {
		img.Destroy(ctx)
		return nil, err
	}
	img.View = view
	img.SampleView = view
	if sampleAspect(format) != attachmentAspect(format) {
		sv, err := createView(ctx, handle, format, sampleAspect(format))
		if err != nil {
			img.Destroy(ctx)
			return nil, err
		}
		img.SampleView = sv
	}
	return img, nil
}

func createView(ctx *Context, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	info := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	var view vk.ImageView
	if err := check("create image view", vk.CreateImageView(ctx.Device.LogicalDevice, &info, ctx.Allocator, &view)); err != nil {
		return vk.NullImageView, err
	}
	return view, nil
}

// Transition records a layout change of the whole image.
func (img *Image) Transition(cmd vk.CommandBuffer, to vk.ImageLayout) {
	if img.Layout == to {
		return
	}
	srcAccess, srcStage := layoutAccess(img.Layout)
	dstAccess, dstStage := layoutAccess(to)
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       srcAccess,
		DstAccessMask:       dstAccess,
		OldLayout:           img.Layout,
		NewLayout:           to,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.Handle,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: attachmentAspect(img.Format),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
	img.Layout = to
}

func layoutAccess(layout vk.ImageLayout) (vk.AccessFlags, vk.PipelineStageFlags) {
	switch layout {
	case vk.ImageLayoutTransferDstOptimal:
		return vk.AccessFlags(vk.AccessTransferWriteBit), vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	case vk.ImageLayoutShaderReadOnlyOptimal, vk.ImageLayoutDepthStencilReadOnlyOptimal:
		return vk.AccessFlags(vk.AccessShaderReadBit), vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	case vk.ImageLayoutColorAttachmentOptimal:
		return vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	case vk.ImageLayoutDepthStencilAttachmentOptimal:
		return vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	}
	return 0, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
}

// CopyFromBuffer records a copy of tightly packed pixels into the image. The
// image must be in TransferDstOptimal.
func (img *Image) CopyFromBuffer(cmd vk.CommandBuffer, buf vk.Buffer) {
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: img.Width, Height: img.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(cmd, buf, img.Handle, vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

func (img *Image) Destroy(ctx *Context) {
	device := ctx.Device.LogicalDevice
	if img.SampleView != vk.NullImageView && img.SampleView != img.View {
		vk.DestroyImageView(device, img.SampleView, ctx.Allocator)
	}
	img.SampleView = vk.NullImageView
	if img.View != vk.NullImageView {
		vk.DestroyImageView(device, img.View, ctx.Allocator)
		img.View = vk.NullImageView
	}
	if img.Handle != vk.NullImage {
		vk.DestroyImage(device, img.Handle, ctx.Allocator)
		img.Handle = vk.NullImage
	}
	if img.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, img.Memory, ctx.Allocator)
		img.Memory = vk.NullDeviceMemory
	}
}

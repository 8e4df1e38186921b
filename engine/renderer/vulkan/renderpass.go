package vulkan

import (
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// attachmentDesc is one attachment of a render pass. Contents are always
// loaded and stored; clears are explicit.
type attachmentDesc struct {
	format  vk.Format
	initial vk.ImageLayout
	final   vk.ImageLayout
	subpass vk.ImageLayout
}

func (a attachmentDesc) isColor() bool {
	return !hasDepth(a.format) && !hasStencil(a.format)
}

type RenderPass struct {
	Handle vk.RenderPass
	// key is equal for compatible render passes, which can share pipelines.
	key         string
	colorCount  int
	depthFormat vk.Format
}

// compatKey describes what makes two render passes compatible: attachment
// formats in order.
func compatKey(descs []attachmentDesc) string {
	parts := make([]string, len(descs))
	for i, d := range descs {
		kind := "c"
		if !d.isColor() {
			kind = "d"
		}
		parts[i] = fmt.Sprintf("%s%d", kind, d.format)
	}
	return strings.Join(parts, ",")
}

// targetAttachments describes the attachments of an offscreen framebuffer.
// Colors come first in their given order, then the depth/stencil attachment.
func targetAttachments(specs []gpu.AttachmentSpec, depthStencil vk.Format) ([]attachmentDesc, error) {
	var colors, depth []attachmentDesc
	for _, spec := range specs {
		format, err := attachmentFormat(spec, depthStencil)
		if err != nil {
			return nil, err
		}
		d := attachmentDesc{
			format:  format,
			initial: restingLayout(spec),
			final:   restingLayout(spec),
			subpass: subpassLayout(spec),
		}
		if spec.Role.IsColor() {
			colors = append(colors, d)
		} else {
			depth = append(depth, d)
		}
	}
	return append(colors, depth...), nil
}

func NewRenderPass(ctx *Context, descs []attachmentDesc) (*RenderPass, error) {
	rp := &RenderPass{key: compatKey(descs), depthFormat: vk.FormatUndefined}

	attachments := make([]vk.AttachmentDescription, len(descs))
	var colorRefs []vk.AttachmentReference
	var depthRef *vk.AttachmentReference
	for i, d := range descs {
		attachments[i] = vk.AttachmentDescription{
			Format:         d.format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpLoad,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpLoad,
			StencilStoreOp: vk.AttachmentStoreOpStore,
			InitialLayout:  d.initial,
			FinalLayout:    d.final,
		}
		if d.initial == vk.ImageLayoutUndefined {
			attachments[i].LoadOp = vk.AttachmentLoadOpDontCare
			attachments[i].StencilLoadOp = vk.AttachmentLoadOpDontCare
		}
		ref := vk.AttachmentReference{Attachment: uint32(i), Layout: d.subpass}
		if d.isColor() {
			colorRefs = append(colorRefs, ref)
		} else {
			depthRef = &ref
			rp.depthFormat = d.format
		}
	}
	rp.colorCount = len(colorRefs)

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorRefs)),
		PColorAttachments:       colorRefs,
		PDepthStencilAttachment: depthRef,
	}

	// Writes from earlier passes must land before this one samples or loads
	// them, and this pass's writes must land before later passes sample them.
	attachmentStages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit |
		vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	attachmentAccess := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit |
		vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  attachmentStages | vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			DstStageMask:  attachmentStages | vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask: attachmentAccess,
			DstAccessMask: attachmentAccess | vk.AccessFlags(vk.AccessShaderReadBit),
		},
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  attachmentStages,
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
			SrcAccessMask: attachmentAccess,
			DstAccessMask: vk.AccessFlags(vk.AccessShaderReadBit),
		},
	}

	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}
	var handle vk.RenderPass
	if err := check("create render pass", vk.CreateRenderPass(ctx.Device.LogicalDevice, &info, ctx.Allocator, &handle)); err != nil {
		return nil, err
	}
	rp.Handle = handle
	return rp, nil
}

func (rp *RenderPass) Destroy(ctx *Context) {
	if rp.Handle != vk.NullRenderPass {
		vk.DestroyRenderPass(ctx.Device.LogicalDevice, rp.Handle, ctx.Allocator)
		rp.Handle = vk.NullRenderPass
	}
}

// Begin starts the pass on fb and points the viewport at the whole target.
func (rp *RenderPass) Begin(cb *CommandBuffer, fb vk.Framebuffer, width, height uint32) {
	area := vk.Rect2D{Extent: vk.Extent2D{Width: width, Height: height}}
	info := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Handle,
		Framebuffer: fb,
		RenderArea:  area,
	}
	vk.CmdBeginRenderPass(cb.Handle, &info, vk.SubpassContentsInline)
	vk.CmdSetViewport(cb.Handle, 0, 1, []vk.Viewport{{
		Width:    float32(width),
		Height:   float32(height),
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(cb.Handle, 0, 1, []vk.Rect2D{area})
	cb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS
}

func (rp *RenderPass) End(cb *CommandBuffer) {
	vk.CmdEndRenderPass(cb.Handle)
	cb.State = COMMAND_BUFFER_STATE_RECORDING
}

// clearAttachments builds the clears for flags against the pass attachments.
func (rp *RenderPass) clearAttachments(flags gpu.ClearFlags, color gpu.Color) []vk.ClearAttachment {
	var out []vk.ClearAttachment
	if flags&gpu.ClearColor != 0 {
		for i := 0; i < rp.colorCount; i++ {
			var v vk.ClearValue
			v.SetColor([]float32{color.R, color.G, color.B, color.A})
			out = append(out, vk.ClearAttachment{
				AspectMask:      vk.ImageAspectFlags(vk.ImageAspectColorBit),
				ColorAttachment: uint32(i),
				ClearValue:      v,
			})
		}
	}
	var aspect vk.ImageAspectFlagBits
	if flags&gpu.ClearDepth != 0 && hasDepth(rp.depthFormat) {
		aspect |= vk.ImageAspectDepthBit
	}
	if flags&gpu.ClearStencil != 0 && hasStencil(rp.depthFormat) {
		aspect |= vk.ImageAspectStencilBit
	}
	if aspect != 0 {
		var v vk.ClearValue
		v.SetDepthStencil(1, 0)
		out = append(out, vk.ClearAttachment{AspectMask: vk.ImageAspectFlags(aspect), ClearValue: v})
	}
	return out
}

// Clear clears the attachments selected by flags inside an active pass.
func (rp *RenderPass) Clear(cb *CommandBuffer, flags gpu.ClearFlags, color gpu.Color, width, height uint32) {
	atts := rp.clearAttachments(flags, color)
	if len(atts) == 0 {
		return
	}
	rect := vk.ClearRect{
		Rect:       vk.Rect2D{Extent: vk.Extent2D{Width: width, Height: height}},
		LayerCount: 1,
	}
	vk.CmdClearAttachments(cb.Handle, uint32(len(atts)), atts, 1, []vk.ClearRect{rect})
}

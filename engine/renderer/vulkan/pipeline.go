package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
)

type pipelineKey struct {
	pass      string
	depthTest bool
	blend     bool
}

type Pipeline struct {
	Handle vk.Pipeline
}

// NewGraphicsPipeline builds the pipeline drawing p into render passes
// compatible with rp using the given fixed function state.
func NewGraphicsPipeline(ctx *Context, layout vk.PipelineLayout, rp *RenderPass, p *Program, depthTest, blend bool) (*Pipeline, error) {
	binding, attributes, err := vertexInput(p.layout)
	if err != nil {
		return nil, err
	}
	vertexInputInfo := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{binding},
		VertexAttributeDescriptionCount: uint32(len(attributes)),
		PVertexAttributeDescriptions:    attributes,
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}

	// Viewport and scissor are dynamic and set when a pass begins.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1,
	}

	multisampling := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1,
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:          vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthCompareOp: vk.CompareOpLess,
	}
	if depthTest && rp.depthFormat != vk.FormatUndefined {
		depthStencil.DepthTestEnable = vk.True
		depthStencil.DepthWriteEnable = vk.True
	}

	attachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
			vk.ColorComponentBBit | vk.ColorComponentABit),
	}
	if blend {
		attachment.BlendEnable = vk.True
		attachment.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		attachment.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		attachment.ColorBlendOp = vk.BlendOpAdd
		attachment.SrcAlphaBlendFactor = vk.BlendFactorOne
		attachment.DstAlphaBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		attachment.AlphaBlendOp = vk.BlendOpAdd
	}
	attachments := make([]vk.PipelineColorBlendAttachmentState, rp.colorCount)
	for i := range attachments {
		attachments[i] = attachment
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: p.vertex,
			PName:  safeString("main"),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: p.fragment,
			PName:  safeString("main"),
		},
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInputInfo,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisampling,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlend,
		PDynamicState:       &dynamicState,
		Layout:              layout,
		RenderPass:          rp.Handle,
		BasePipelineHandle:  vk.NullPipeline,
		BasePipelineIndex:   -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	if err := check("create graphics pipeline", vk.CreateGraphicsPipelines(ctx.Device.LogicalDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{info}, ctx.Allocator, pipelines)); err != nil {
		return nil, err
	}
	core.LogDebug("Graphics pipeline created for program '%s' (pass %s, depth %t, blend %t).", p.name, rp.key, depthTest, blend)
	return &Pipeline{Handle: pipelines[0]}, nil
}

func (p *Pipeline) Destroy(ctx *Context) {
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(ctx.Device.LogicalDevice, p.Handle, ctx.Allocator)
		p.Handle = vk.NullPipeline
	}
}

func (p *Pipeline) Bind(cb *CommandBuffer) {
	vk.CmdBindPipeline(cb.Handle, vk.PipelineBindPointGraphics, p.Handle)
}

package vulkan

import (
	vk "github.com/goki/vulkan"
)

// DescriptorLayout is the single set layout shared by every program: a
// uniform block at BINDING_UNIFORMS and an array of sampled textures, one
// per texture unit, at BINDING_TEXTURES.
type DescriptorLayout struct {
	SetLayout      vk.DescriptorSetLayout
	PipelineLayout vk.PipelineLayout
	Units          int
}

func NewDescriptorLayout(ctx *Context, units int) (*DescriptorLayout, error) {
	stages := vk.ShaderStageFlags(vk.ShaderStageVertexBit | vk.ShaderStageFragmentBit)
	bindings := []vk.DescriptorSetLayoutBinding{
		{
			Binding:         BINDING_UNIFORMS,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			DescriptorCount: 1,
			StageFlags:      stages,
		},
		{
			Binding:         BINDING_TEXTURES,
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			DescriptorCount: uint32(units),
			StageFlags:      vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
		},
	}
	layoutInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	dl := &DescriptorLayout{Units: units}
	var setLayout vk.DescriptorSetLayout
	if err := check("create descriptor set layout", vk.CreateDescriptorSetLayout(ctx.Device.LogicalDevice, &layoutInfo, ctx.Allocator, &setLayout)); err != nil {
		return nil, err
	}
	dl.SetLayout = setLayout

	pipelineInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{setLayout},
	}
	var pipelineLayout vk.PipelineLayout
	if err := check("create pipeline layout", vk.CreatePipelineLayout(ctx.Device.LogicalDevice, &pipelineInfo, ctx.Allocator, &pipelineLayout)); err != nil {
		dl.Destroy(ctx)
		return nil, err
	}
	dl.PipelineLayout = pipelineLayout
	return dl, nil
}

func (dl *DescriptorLayout) Destroy(ctx *Context) {
	if dl.PipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(ctx.Device.LogicalDevice, dl.PipelineLayout, ctx.Allocator)
		dl.PipelineLayout = vk.NullPipelineLayout
	}
	if dl.SetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(ctx.Device.LogicalDevice, dl.SetLayout, ctx.Allocator)
		dl.SetLayout = vk.NullDescriptorSetLayout
	}
}

// DescriptorPool hands out one set per draw and is reset once per frame.
type DescriptorPool struct {
	Handle    vk.DescriptorPool
	capacity  int
	allocated int
}

func NewDescriptorPool(ctx *Context, units, sets int) (*DescriptorPool, error) {
	sizes := []vk.DescriptorPoolSize{
		{Type: vk.DescriptorTypeUniformBuffer, DescriptorCount: uint32(sets)},
		{Type: vk.DescriptorTypeCombinedImageSampler, DescriptorCount: uint32(sets * units)},
	}
	info := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(sets),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	var handle vk.DescriptorPool
	if err := check("create descriptor pool", vk.CreateDescriptorPool(ctx.Device.LogicalDevice, &info, ctx.Allocator, &handle)); err != nil {
		return nil, err
	}
	return &DescriptorPool{Handle: handle, capacity: sets}, nil
}

func (dp *DescriptorPool) Reset(ctx *Context) error {
	dp.allocated = 0
	return check("reset descriptor pool", vk.ResetDescriptorPool(ctx.Device.LogicalDevice, dp.Handle, 0))
}

// Allocate returns false once the frame has used every set.
func (dp *DescriptorPool) Allocate(ctx *Context, layout *DescriptorLayout) (vk.DescriptorSet, bool) {
	if dp.allocated >= dp.capacity {
		return vk.NullDescriptorSet, false
	}
	info := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     dp.Handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.SetLayout},
	}
	var set vk.DescriptorSet
	if vk.AllocateDescriptorSets(ctx.Device.LogicalDevice, &info, &set) != vk.Success {
		return vk.NullDescriptorSet, false
	}
	dp.allocated++
	return set, true
}

func (dp *DescriptorPool) Destroy(ctx *Context) {
	if dp.Handle != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(ctx.Device.LogicalDevice, dp.Handle, ctx.Allocator)
		dp.Handle = vk.NullDescriptorPool
	}
}

// writeDrawSet points set at a uniform block range and one image per unit.
func writeDrawSet(ctx *Context, set vk.DescriptorSet, uniforms vk.Buffer, offset, size int, images []vk.DescriptorImageInfo) {
	writes := []vk.WriteDescriptorSet{
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_UNIFORMS,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: uniforms,
				Offset: vk.DeviceSize(offset),
				Range:  vk.DeviceSize(size),
			}},
		},
		{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      BINDING_TEXTURES,
			DescriptorCount: uint32(len(images)),
			DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
			PImageInfo:      images,
		},
	}
	vk.UpdateDescriptorSets(ctx.Device.LogicalDevice, uint32(len(writes)), writes, 0, nil)
}

func NewSampler(ctx *Context) (vk.Sampler, error) {
	info := vk.SamplerCreateInfo{
		SType:        vk.StructureTypeSamplerCreateInfo,
		MagFilter:    vk.FilterLinear,
		MinFilter:    vk.FilterLinear,
		MipmapMode:   vk.SamplerMipmapModeLinear,
		AddressModeU: vk.SamplerAddressModeClampToEdge,
		AddressModeV: vk.SamplerAddressModeClampToEdge,
		AddressModeW: vk.SamplerAddressModeClampToEdge,
		MaxLod:       1,
		BorderColor:  vk.BorderColorFloatOpaqueBlack,
	}
	var sampler vk.Sampler
	if err := check("create sampler", vk.CreateSampler(ctx.Device.LogicalDevice, &info, ctx.Allocator, &sampler)); err != nil {
		return vk.NullSampler, err
	}
	return sampler, nil
}

package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// sampled is implemented by everything a texture unit can hold.
type sampled interface {
	gpu.Texture
	sampleView() vk.ImageView
	sampleLayout() vk.ImageLayout
}

// Texture is an immutable RGBA8 image uploaded from the CPU.
type Texture struct {
	ID    uuid.UUID
	image *Image
	size  gpu.Size
}

func (t *Texture) Size() gpu.Size               { return t.size }
func (t *Texture) sampleView() vk.ImageView     { return t.image.SampleView }
func (t *Texture) sampleLayout() vk.ImageLayout { return vk.ImageLayoutShaderReadOnlyOptimal }

// Mesh keeps vertex and index data in host visible buffers.
type Mesh struct {
	ID        uuid.UUID
	vertices  *Buffer
	indices   *Buffer
	count     int
	indexed   bool
	destroyed bool
}

func (m *Mesh) VertexCount() int { return m.count }

func (m *Mesh) release(ctx *Context) {
	if m.vertices != nil {
		m.vertices.Destroy(ctx)
		m.vertices = nil
	}
	if m.indices != nil {
		m.indices.Destroy(ctx)
		m.indices = nil
	}
}

// frame holds what one frame in flight records into.
type frame struct {
	cmd            *CommandBuffer
	imageAvailable vk.Semaphore
	renderComplete vk.Semaphore
	fence          *Fence
	descriptors    *DescriptorPool
	uniforms       *Buffer
	uniformOffset  int
}

func newFrame(ctx *Context, units int) (*frame, error) {
	f := &frame{}
	var err error
	if f.cmd, err = NewCommandBuffer(ctx); err != nil {
		return nil, err
	}
	info := vk.SemaphoreCreateInfo{SType: vk.StructureTypeSemaphoreCreateInfo}
	if err = check("create semaphore", vk.CreateSemaphore(ctx.Device.LogicalDevice, &info, ctx.Allocator, &f.imageAvailable)); err != nil {
		f.destroy(ctx)
		return nil, err
	}
	if err = check("create semaphore", vk.CreateSemaphore(ctx.Device.LogicalDevice, &info, ctx.Allocator, &f.renderComplete)); err != nil {
		f.destroy(ctx)
		return nil, err
	}
	// Signaled so the first wait on this frame returns at once.
	if f.fence, err = NewFence(ctx, true); err != nil {
		f.destroy(ctx)
		return nil, err
	}
	if f.descriptors, err = NewDescriptorPool(ctx, units, MAX_DRAWS_PER_FRAME); err != nil {
		f.destroy(ctx)
		return nil, err
	}
	if f.uniforms, err = NewBuffer(ctx, UNIFORM_RING_SIZE, vk.BufferUsageUniformBufferBit); err != nil {
		f.destroy(ctx)
		return nil, err
	}
	return f, nil
}

// pushUniforms copies block into the uniform ring and returns its offset.
func (f *frame) pushUniforms(block []byte, align int) (int, bool) {
	offset := alignUp(f.uniformOffset, align)
	if offset+len(block) > f.uniforms.Size {
		return 0, false
	}
	if err := f.uniforms.Write(offset, block); err != nil {
		return 0, false
	}
	f.uniformOffset = offset + len(block)
	return offset, true
}

func (f *frame) destroy(ctx *Context) {
	device := ctx.Device.LogicalDevice
	if f.uniforms != nil {
		f.uniforms.Destroy(ctx)
	}
	if f.descriptors != nil {
		f.descriptors.Destroy(ctx)
	}
	if f.fence != nil {
		f.fence.Destroy(ctx)
	}
	if f.renderComplete != vk.NullSemaphore {
		vk.DestroySemaphore(device, f.renderComplete, ctx.Allocator)
	}
	if f.imageAvailable != vk.NullSemaphore {
		vk.DestroySemaphore(device, f.imageAvailable, ctx.Allocator)
	}
	if f.cmd != nil {
		f.cmd.Free(ctx)
	}
}

package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
)

// Buffer is a host visible, coherent buffer that stays mapped for its lifetime.
type Buffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   int
	mapped unsafe.Pointer
}

func NewBuffer(ctx *Context, size int, usage vk.BufferUsageFlagBits) (*Buffer, error) {
	if size <= 0 {
		return nil, core.NewBackendError("create buffer", fmt.Errorf("size %d: %w", size, core.ErrNilArgument))
	}
	device := ctx.Device.LogicalDevice
	b := &Buffer{Size: size}

	info := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := check("create buffer", vk.CreateBuffer(device, &info, ctx.Allocator, &handle)); err != nil {
		return nil, err
	}
	b.Handle = handle

	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, handle, &reqs)
	reqs.Deref()
	index := ctx.FindMemoryIndex(reqs.MemoryTypeBits, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if index < 0 {
		b.Destroy(ctx)
		return nil, core.NewBackendError("create buffer", fmt.Errorf("no host visible memory type"))
	}
	alloc := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: uint32(index),
	}
	var mem vk.DeviceMemory
	if err := check("allocate buffer memory", vk.AllocateMemory(device, &alloc, ctx.Allocator, &mem)); err != nil {
		b.Destroy(ctx)
		return nil, err
	}
	b.Memory = mem
	if err := check("bind buffer memory", vk.BindBufferMemory(device, handle, mem, 0)); err != nil {
		b.Destroy(ctx)
		return nil, err
	}
	var ptr unsafe.Pointer
	if err := check("map buffer memory", vk.MapMemory(device, mem, 0, vk.DeviceSize(size), 0, &ptr)); err != nil {
		b.Destroy(ctx)
		return nil, err
	}
	b.mapped = ptr
	return b, nil
}

// Write copies data into the buffer at offset.
func (b *Buffer) Write(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > b.Size {
		return core.NewBackendError("write buffer", fmt.Errorf("%d bytes at %d overflow %d", len(data), offset, b.Size))
	}
	if len(data) == 0 {
		return nil
	}
	vk.Memcopy(unsafe.Add(b.mapped, offset), data)
	return nil
}

func (b *Buffer) Destroy(ctx *Context) {
	device := ctx.Device.LogicalDevice
	if b.mapped != nil {
		vk.UnmapMemory(device, b.Memory)
		b.mapped = nil
	}
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(device, b.Handle, ctx.Allocator)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device, b.Memory, ctx.Allocator)
		b.Memory = vk.NullDeviceMemory
	}
}

// floatBytes views a float slice as raw bytes without copying.
func floatBytes(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

func indexBytes(v []uint32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}

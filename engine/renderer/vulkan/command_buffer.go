package vulkan

import (
	vk "github.com/goki/vulkan"
)

type CommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY CommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

type CommandBuffer struct {
	Handle vk.CommandBuffer
	State  CommandBufferState
}

// NewCommandBuffer allocates a primary command buffer from the device pool.
func NewCommandBuffer(ctx *Context) (*CommandBuffer, error) {
	info := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        ctx.Device.CommandPool,
		CommandBufferCount: 1,
		Level:              vk.CommandBufferLevelPrimary,
	}
	handles := make([]vk.CommandBuffer, 1)
	if err := check("allocate command buffer", vk.AllocateCommandBuffers(ctx.Device.LogicalDevice, &info, handles)); err != nil {
		return nil, err
	}
	return &CommandBuffer{Handle: handles[0], State: COMMAND_BUFFER_STATE_READY}, nil
}

func (c *CommandBuffer) Free(ctx *Context) {
	if c.Handle == nil {
		return
	}
	vk.FreeCommandBuffers(ctx.Device.LogicalDevice, ctx.Device.CommandPool, 1, []vk.CommandBuffer{c.Handle})
	c.Handle = nil
	c.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (c *CommandBuffer) Begin(singleUse bool) error {
	info := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if singleUse {
		info.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if err := check("begin command buffer", vk.BeginCommandBuffer(c.Handle, &info)); err != nil {
		return err
	}
	c.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

func (c *CommandBuffer) End() error {
	if err := check("end command buffer", vk.EndCommandBuffer(c.Handle)); err != nil {
		return err
	}
	c.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (c *CommandBuffer) Reset() error {
	if err := check("reset command buffer", vk.ResetCommandBuffer(c.Handle, 0)); err != nil {
		return err
	}
	c.State = COMMAND_BUFFER_STATE_READY
	return nil
}

// RunSingleUse records fn into a transient command buffer, submits it to the
// graphics queue and waits for completion.
func RunSingleUse(ctx *Context, fn func(cmd vk.CommandBuffer)) error {
	cb, err := NewCommandBuffer(ctx)
	if err != nil {
		return err
	}
	defer cb.Free(ctx)

	if err := cb.Begin(true); err != nil {
		return err
	}
	fn(cb.Handle)
	if err := cb.End(); err != nil {
		return err
	}

	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{cb.Handle},
	}
	queue := ctx.Device.GraphicsQueue
	return ctx.queueLocks.Do(ctx.Device.GraphicsQueueIndex, func() error {
		if err := check("submit single use", vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submit}, vk.NullFence)); err != nil {
			return err
		}
		return check("queue wait idle", vk.QueueWaitIdle(queue))
	})
}

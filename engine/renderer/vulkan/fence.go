package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
)

type Fence struct {
	Handle   vk.Fence
	Signaled bool
}

func NewFence(ctx *Context, signaled bool) (*Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var handle vk.Fence
	if err := check("create fence", vk.CreateFence(ctx.Device.LogicalDevice, &info, ctx.Allocator, &handle)); err != nil {
		return nil, err
	}
	return &Fence{Handle: handle, Signaled: signaled}, nil
}

func (f *Fence) Destroy(ctx *Context) {
	if f.Handle != vk.NullFence {
		vk.DestroyFence(ctx.Device.LogicalDevice, f.Handle, ctx.Allocator)
		f.Handle = vk.NullFence
	}
	f.Signaled = false
}

// Wait blocks until the fence is signaled or the timeout expires.
func (f *Fence) Wait(ctx *Context, timeoutNs uint64) error {
	if f.Signaled {
		return nil
	}
	switch res := vk.WaitForFences(ctx.Device.LogicalDevice, 1, []vk.Fence{f.Handle}, vk.True, timeoutNs); res {
	case vk.Success:
		f.Signaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("fence wait timed out")
		return core.NewBackendError("fence wait", fmt.Errorf("timed out after %dns", timeoutNs))
	default:
		return check("fence wait", res)
	}
}

func (f *Fence) Reset(ctx *Context) error {
	if !f.Signaled {
		return nil
	}
	if err := check("reset fence", vk.ResetFences(ctx.Device.LogicalDevice, 1, []vk.Fence{f.Handle})); err != nil {
		return err
	}
	f.Signaled = false
	return nil
}

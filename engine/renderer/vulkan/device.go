package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
)

// PhysicalDevice is the selected GPU together with its logical device and queues.
type PhysicalDevice struct {
	Handle           vk.PhysicalDevice
	LogicalDevice    vk.Device
	SwapchainSupport SwapchainSupport

	GraphicsQueueIndex uint32
	PresentQueueIndex  uint32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	CommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Limits     vk.PhysicalDeviceLimits
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	// DepthStencilFormat is the best supported combined depth/stencil format.
	DepthStencilFormat vk.Format
}

type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type queueFamilies struct {
	graphics, present       uint32
	hasGraphics, hasPresent bool
}

func selectPhysicalDevice(ctx *Context) (*PhysicalDevice, error) {
	var count uint32
	if err := check("enumerate physical devices", vk.EnumeratePhysicalDevices(ctx.Instance, &count, nil)); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, core.NewBackendError("select device", fmt.Errorf("no devices which support Vulkan were found"))
	}
	handles := make([]vk.PhysicalDevice, count)
	if err := check("enumerate physical devices", vk.EnumeratePhysicalDevices(ctx.Instance, &count, handles)); err != nil {
		return nil, err
	}

	// Prefer a discrete GPU, fall back to the first suitable device.
	var chosen *PhysicalDevice
	for _, h := range handles {
		d, ok := inspectDevice(h, ctx.Surface)
		if !ok {
			continue
		}
		if chosen == nil || d.Properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			chosen = d
		}
		if d.Properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			break
		}
	}
	if chosen == nil {
		return nil, core.NewBackendError("select device", fmt.Errorf("no physical device meets the requirements"))
	}

	core.LogInfo("Selected device: '%s' (%s).", cString(chosen.Properties.DeviceName[:]), deviceTypeName(chosen.Properties.DeviceType))
	core.LogInfo("Vulkan API version: %d.%d.%d",
		vk.Version(chosen.Properties.ApiVersion).Major(),
		vk.Version(chosen.Properties.ApiVersion).Minor(),
		vk.Version(chosen.Properties.ApiVersion).Patch())
	for i := uint32(0); i < chosen.Memory.MemoryHeapCount; i++ {
		heap := chosen.Memory.MemoryHeaps[i]
		heap.Deref()
		gib := float64(heap.Size) / (1 << 30)
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", gib)
		} else {
			core.LogInfo("Shared system memory: %.2f GiB", gib)
		}
	}
	return chosen, nil
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "unknown"
}

// inspectDevice reports whether h can render and present to surface.
func inspectDevice(h vk.PhysicalDevice, surface vk.Surface) (*PhysicalDevice, bool) {
	d := &PhysicalDevice{Handle: h}
	vk.GetPhysicalDeviceProperties(h, &d.Properties)
	d.Properties.Deref()
	d.Limits = d.Properties.Limits
	d.Limits.Deref()
	vk.GetPhysicalDeviceFeatures(h, &d.Features)
	d.Features.Deref()
	vk.GetPhysicalDeviceMemoryProperties(h, &d.Memory)
	d.Memory.Deref()

	name := cString(d.Properties.DeviceName[:])
	families, ok := findQueueFamilies(h, surface)
	if !ok {
		core.LogDebug("Device '%s' has no graphics and present queues, skipping.", name)
		return nil, false
	}
	d.GraphicsQueueIndex = families.graphics
	d.PresentQueueIndex = families.present

	if !hasDeviceExtension(h, vk.KhrSwapchainExtensionName) {
		core.LogDebug("Device '%s' has no swapchain support, skipping.", name)
		return nil, false
	}
	support, err := querySwapchainSupport(h, surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogDebug("Device '%s' cannot present to the surface, skipping.", name)
		return nil, false
	}
	d.SwapchainSupport = support

	d.DepthStencilFormat = detectDepthStencilFormat(h)
	if d.DepthStencilFormat == vk.FormatUndefined {
		core.LogDebug("Device '%s' has no depth/stencil format, skipping.", name)
		return nil, false
	}
	return d, true
}

func findQueueFamilies(h vk.PhysicalDevice, surface vk.Surface) (queueFamilies, bool) {
	var out queueFamilies
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(h, &count, props)

	for i := uint32(0); i < count; i++ {
		props[i].Deref()
		graphics := vk.QueueFlagBits(props[i].QueueFlags)&vk.QueueGraphicsBit != 0
		var present vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(h, i, surface, &present)

		// A family that does both wins.
		if graphics && present == vk.True {
			return queueFamilies{graphics: i, present: i, hasGraphics: true, hasPresent: true}, true
		}
		if graphics && !out.hasGraphics {
			out.graphics, out.hasGraphics = i, true
		}
		if present == vk.True && !out.hasPresent {
			out.present, out.hasPresent = i, true
		}
	}
	return out, out.hasGraphics && out.hasPresent
}

func hasDeviceExtension(h vk.PhysicalDevice, name string) bool {
	var count uint32
	if vk.EnumerateDeviceExtensionProperties(h, "", &count, nil) != vk.Success {
		return false
	}
	exts := make([]vk.ExtensionProperties, count)
	if vk.EnumerateDeviceExtensionProperties(h, "", &count, exts) != vk.Success {
		return false
	}
	for i := range exts {
		exts[i].Deref()
		if cString(exts[i].ExtensionName[:]) == name {
			return true
		}
	}
	return false
}

func querySwapchainSupport(h vk.PhysicalDevice, surface vk.Surface) (SwapchainSupport, error) {
	var s SwapchainSupport
	if err := check("surface capabilities", vk.GetPhysicalDeviceSurfaceCapabilities(h, surface, &s.Capabilities)); err != nil {
		return s, err
	}
	s.Capabilities.Deref()
	s.Capabilities.CurrentExtent.Deref()
	s.Capabilities.MinImageExtent.Deref()
	s.Capabilities.MaxImageExtent.Deref()

	var count uint32
	if err := check("surface formats", vk.GetPhysicalDeviceSurfaceFormats(h, surface, &count, nil)); err != nil {
		return s, err
	}
	if count > 0 {
		s.Formats = make([]vk.SurfaceFormat, count)
		if err := check("surface formats", vk.GetPhysicalDeviceSurfaceFormats(h, surface, &count, s.Formats)); err != nil {
			return s, err
		}
		for i := range s.Formats {
			s.Formats[i].Deref()
		}
	}

	count = 0
	if err := check("present modes", vk.GetPhysicalDeviceSurfacePresentModes(h, surface, &count, nil)); err != nil {
		return s, err
	}
	if count > 0 {
		s.PresentModes = make([]vk.PresentMode, count)
		if err := check("present modes", vk.GetPhysicalDeviceSurfacePresentModes(h, surface, &count, s.PresentModes)); err != nil {
			return s, err
		}
	}
	return s, nil
}

func detectDepthStencilFormat(h vk.PhysicalDevice) vk.Format {
	candidates := []vk.Format{vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint}
	want := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	for _, f := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(h, f, &props)
		props.Deref()
		if props.OptimalTilingFeatures&want == want {
			return f
		}
	}
	return vk.FormatUndefined
}

func (d *PhysicalDevice) createLogicalDevice(ctx *Context) error {
	indices := []uint32{d.GraphicsQueueIndex}
	if d.PresentQueueIndex != d.GraphicsQueueIndex {
		indices = append(indices, d.PresentQueueIndex)
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, idx := range indices {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: idx,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		}
	}

	extensions := []string{vk.KhrSwapchainExtensionName}
	if hasDeviceExtension(d.Handle, "VK_KHR_portability_subset") {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensions = append(extensions, "VK_KHR_portability_subset")
	}

	features := vk.PhysicalDeviceFeatures{}
	if d.Features.SamplerAnisotropy == vk.True {
		features.SamplerAnisotropy = vk.True
	}

	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}
	var device vk.Device
	if err := check("create device", vk.CreateDevice(d.Handle, &info, ctx.Allocator, &device)); err != nil {
		return err
	}
	d.LogicalDevice = device
	core.LogInfo("Logical device created.")

	var graphics, present vk.Queue
	vk.GetDeviceQueue(device, d.GraphicsQueueIndex, 0, &graphics)
	vk.GetDeviceQueue(device, d.PresentQueueIndex, 0, &present)
	d.GraphicsQueue, d.PresentQueue = graphics, present

	poolInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if err := check("create command pool", vk.CreateCommandPool(device, &poolInfo, ctx.Allocator, &pool)); err != nil {
		return err
	}
	d.CommandPool = pool
	return nil
}

// RefreshSwapchainSupport requeries the surface after a resize.
func (d *PhysicalDevice) RefreshSwapchainSupport(surface vk.Surface) error {
	s, err := querySwapchainSupport(d.Handle, surface)
	if err != nil {
		return err
	}
	d.SwapchainSupport = s
	return nil
}

func (d *PhysicalDevice) destroy(ctx *Context) {
	if d.LogicalDevice == nil {
		return
	}
	if d.CommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.LogicalDevice, d.CommandPool, ctx.Allocator)
		d.CommandPool = vk.NullCommandPool
	}
	vk.DestroyDevice(d.LogicalDevice, ctx.Allocator)
	d.LogicalDevice = nil
	d.GraphicsQueue, d.PresentQueue = nil, nil
}

package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
)

// WindowSurface is the window system half of the Vulkan device.
type WindowSurface interface {
	RequiredInstanceExtensions() []string
	CreateSurface(instance vk.Instance) (vk.Surface, error)
}

// Context owns the instance level objects and the logical device.
type Context struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks
	Surface   vk.Surface

	debugCallback vk.DebugReportCallback
	debug         bool

	Device *PhysicalDevice

	queueLocks *QueueLocks
}

const validationLayer = "VK_LAYER_KHRONOS_validation"

// NewContext loads the Vulkan loader through glfw, creates the instance and the
// window surface, and selects a device.
func NewContext(appName string, window WindowSurface, debug bool) (*Context, error) {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return nil, core.NewBackendError("vulkan init", fmt.Errorf("GetInstanceProcAddress is nil"))
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, core.NewBackendError("vulkan init", err)
	}

	ctx := &Context{debug: debug}
	if err := ctx.createInstance(appName, window.RequiredInstanceExtensions()); err != nil {
		return nil, err
	}

	surface, err := window.CreateSurface(ctx.Instance)
	if err != nil {
		ctx.Destroy()
		return nil, core.NewBackendError("create surface", err)
	}
	ctx.Surface = surface
	core.LogDebug("Vulkan surface created.")

	device, err := selectPhysicalDevice(ctx)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.Device = device
	if err := ctx.Device.createLogicalDevice(ctx); err != nil {
		ctx.Destroy()
		return nil, err
	}
	ctx.queueLocks = NewQueueLocks()
	return ctx, nil
}

func (c *Context) createInstance(appName string, windowExtensions []string) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 1, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   safeString(appName),
		PEngineName:        safeString("Tessera"),
	}

	extensions := append([]string(nil), windowExtensions...)
	var flags vk.InstanceCreateFlags
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		flags |= 1
	}

	var layers []string
	if c.debug {
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
		if hasLayer(validationLayer) {
			layers = append(layers, validationLayer)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("Validation layer %s is not available.", validationLayer)
		}
	}
	for _, e := range extensions {
		core.LogDebug("Required extension: %s", e)
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		Flags:                   flags,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}
	if err := check("create instance", vk.CreateInstance(&createInfo, c.Allocator, &c.Instance)); err != nil {
		return err
	}
	if err := vk.InitInstance(c.Instance); err != nil {
		return core.NewBackendError("init instance", err)
	}
	core.LogInfo("Vulkan instance created.")

	if c.debug {
		debugInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: debugReport,
		}
		var cb vk.DebugReportCallback
		if err := check("create debug callback", vk.CreateDebugReportCallback(c.Instance, &debugInfo, c.Allocator, &cb)); err != nil {
			core.LogWarn(err.Error())
		} else {
			c.debugCallback = cb
		}
	}
	return nil
}

func hasLayer(name string) bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success || count == 0 {
		return false
	}
	layers := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, layers) != vk.Success {
		return false
	}
	for i := range layers {
		layers[i].Deref()
		if cString(layers[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

// FindMemoryIndex returns the first memory type allowed by typeFilter that has
// every property in flags, or -1.
func (c *Context) FindMemoryIndex(typeFilter uint32, flags vk.MemoryPropertyFlagBits) int32 {
	memory := c.Device.Memory
	for i := uint32(0); i < memory.MemoryTypeCount; i++ {
		memory.MemoryTypes[i].Deref()
		want := vk.MemoryPropertyFlags(flags)
		if typeFilter&(1<<i) != 0 && memory.MemoryTypes[i].PropertyFlags&want == want {
			return int32(i)
		}
	}
	return -1
}

// WaitIdle blocks until the logical device has no work in flight.
func (c *Context) WaitIdle() {
	if c.Device != nil && c.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(c.Device.LogicalDevice)
	}
}

// Destroy releases the device, the surface and the instance.
func (c *Context) Destroy() {
	if c.Device != nil {
		c.Device.destroy(c)
		c.Device = nil
	}
	if c.Surface != vk.NullSurface {
		vk.DestroySurface(c.Instance, c.Surface, c.Allocator)
		c.Surface = vk.NullSurface
	}
	if c.debugCallback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(c.Instance, c.debugCallback, c.Allocator)
		c.debugCallback = vk.NullDebugReportCallback
	}
	if c.Instance != nil {
		vk.DestroyInstance(c.Instance, c.Allocator)
		c.Instance = nil
	}
}

func debugReport(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("performance: [%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

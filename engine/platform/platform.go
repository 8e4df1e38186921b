package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Window is a GLFW window without a client API, presented through Vulkan.
// Key, button, cursor and scroll events feed the engine input.
type Window struct {
	handle    *glfw.Window
	input     *core.Input
	device    gpu.Device
	size      gpu.Size
	listeners []func(gpu.Size)
	captured  bool
	startTime float64
}

func NewWindow(cfg *core.ApplicationConfig, input *core.Input) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, fmt.Errorf("glfw reports no Vulkan loader")
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	handle, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Name, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	w := &Window{handle: handle, input: input}
	fw, fh := handle.GetFramebufferSize()
	w.size = gpu.Size{Width: fw, Height: fh}

	handle.SetKeyCallback(w.onKey)
	handle.SetMouseButtonCallback(w.onMouseButton)
	handle.SetCursorPosCallback(w.onCursorPos)
	handle.SetScrollCallback(w.onScroll)
	handle.SetFramebufferSizeCallback(w.onFramebufferSize)
	handle.SetPos(cfg.X, cfg.Y)
	handle.Show()

	w.startTime = glfw.GetTime()
	core.LogInfo("Window '%s' created (%dx%d).", cfg.Name, fw, fh)
	return w, nil
}

// AttachDevice sets the device that window frames and resizes go to.
func (w *Window) AttachDevice(device gpu.Device) {
	w.device = device
}

// RequiredInstanceExtensions lists the Vulkan instance extensions needed to
// present to this window.
func (w *Window) RequiredInstanceExtensions() []string {
	return w.handle.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(ptr), nil
}

// Time is the number of seconds since the window opened.
func (w *Window) Time() float64 {
	return glfw.GetTime() - w.startTime
}

func (w *Window) Size() gpu.Size {
	return w.size
}

func (w *Window) OnResize(fn func(size gpu.Size)) {
	w.listeners = append(w.listeners, fn)
}

func (w *Window) BeginFrame(clearDepth bool) {
	gpu.Prepare(w.device, clearDepth)
}

func (w *Window) EndFrame() {
	if w.device != nil {
		if err := w.device.EndFrame(); err != nil {
			core.LogError("failed to present frame: %s", err)
		}
	}
	if w.input != nil {
		w.input.Update()
	}
	glfw.PollEvents()
}

// PollEvents waits briefly for events. It stands in for EndFrame while no
// frame can be presented, e.g. when the window is minimized.
func (w *Window) PollEvents() {
	glfw.WaitEventsTimeout(0.05)
}

func (w *Window) ShouldClose() bool {
	return w.handle.ShouldClose()
}

func (w *Window) Close() {
	w.handle.SetShouldClose(true)
}

func (w *Window) CursorCaptured() bool {
	return w.captured
}

func (w *Window) SetCursorCaptured(captured bool) {
	w.captured = captured
	mode := glfw.CursorNormal
	if captured {
		mode = glfw.CursorDisabled
	}
	w.handle.SetInputMode(glfw.CursorMode, mode)
}

func (w *Window) Destroy() {
	if w.handle == nil {
		return
	}
	w.listeners = nil
	w.handle.Destroy()
	w.handle = nil
	glfw.Terminate()
}

func (w *Window) onKey(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
	if action == glfw.Repeat {
		return
	}
	if key == glfw.KeyEscape && action == glfw.Press {
		w.Close()
	}
	if code := translateKey(key); code != core.KEY_UNKNOWN && w.input != nil {
		w.input.ProcessKey(code, action == glfw.Press)
	}
}

func (w *Window) onMouseButton(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
	b, ok := translateButton(button)
	if !ok || w.input == nil {
		return
	}
	w.input.ProcessButton(b, action == glfw.Press)
}

func (w *Window) onCursorPos(_ *glfw.Window, x, y float64) {
	if w.input != nil {
		w.input.ProcessMouseMove(x, y)
	}
}

func (w *Window) onScroll(_ *glfw.Window, _, yoff float64) {
	if w.input != nil {
		w.input.ProcessMouseWheel(yoff)
	}
}

// onFramebufferSize forwards every size to the device. Listeners only see
// drawable sizes, so minimizing keeps the render targets.
func (w *Window) onFramebufferSize(_ *glfw.Window, width, height int) {
	size := gpu.Size{Width: width, Height: height}
	if w.device != nil {
		w.device.Resize(size)
	}
	if width <= 0 || height <= 0 {
		return
	}
	w.size = size
	for _, fn := range w.listeners {
		fn(size)
	}
}

func translateButton(b glfw.MouseButton) (core.Button, bool) {
	switch b {
	case glfw.MouseButtonLeft:
		return core.BUTTON_LEFT, true
	case glfw.MouseButtonRight:
		return core.BUTTON_RIGHT, true
	case glfw.MouseButtonMiddle:
		return core.BUTTON_MIDDLE, true
	}
	return 0, false
}

func translateKey(k glfw.Key) core.KeyCode {
	switch {
	case k >= glfw.KeyA && k <= glfw.KeyZ:
		return core.KEY_A + core.KeyCode(k-glfw.KeyA)
	case k >= glfw.Key0 && k <= glfw.Key9:
		return core.KEY_0 + core.KeyCode(k-glfw.Key0)
	case k >= glfw.KeyF1 && k <= glfw.KeyF12:
		return core.KEY_F1 + core.KeyCode(k-glfw.KeyF1)
	}
	switch k {
	case glfw.KeyBackspace:
		return core.KEY_BACKSPACE
	case glfw.KeyTab:
		return core.KEY_TAB
	case glfw.KeyEnter:
		return core.KEY_ENTER
	case glfw.KeyEscape:
		return core.KEY_ESCAPE
	case glfw.KeySpace:
		return core.KEY_SPACE
	case glfw.KeyLeft:
		return core.KEY_LEFT
	case glfw.KeyUp:
		return core.KEY_UP
	case glfw.KeyRight:
		return core.KEY_RIGHT
	case glfw.KeyDown:
		return core.KEY_DOWN
	case glfw.KeyLeftShift:
		return core.KEY_LSHIFT
	case glfw.KeyRightShift:
		return core.KEY_RSHIFT
	case glfw.KeyLeftControl:
		return core.KEY_LCONTROL
	case glfw.KeyRightControl:
		return core.KEY_RCONTROL
	case glfw.KeyLeftAlt:
		return core.KEY_LALT
	case glfw.KeyRightAlt:
		return core.KEY_RALT
	}
	return core.KEY_UNKNOWN
}

package headless

import (
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Window is a window without a display. Resize delivers the new size to the
// listeners synchronously, the same way the platform window does.
type Window struct {
	// CloseAfter closes the window after that many frames; zero never closes.
	CloseAfter int

	device    gpu.Device
	input     *core.Input
	size      gpu.Size
	listeners []func(gpu.Size)
	frames    int
	closed    bool
}

func NewWindow(device gpu.Device, input *core.Input, size gpu.Size) *Window {
	return &Window{device: device, input: input, size: size}
}

func (w *Window) Size() gpu.Size {
	return w.size
}

func (w *Window) OnResize(fn func(size gpu.Size)) {
	w.listeners = append(w.listeners, fn)
}

// Resize simulates the OS changing the framebuffer size.
func (w *Window) Resize(size gpu.Size) {
	w.size = size
	w.device.Resize(size)
	for _, fn := range w.listeners {
		fn(size)
	}
}

func (w *Window) BeginFrame(clearDepth bool) {
	gpu.Prepare(w.device, clearDepth)
}

func (w *Window) EndFrame() {
	if err := w.device.EndFrame(); err != nil {
		core.LogError("failed to present frame: %s", err)
	}
	if w.input != nil {
		w.input.Update()
	}
	w.frames++
	if w.CloseAfter > 0 && w.frames >= w.CloseAfter {
		w.closed = true
	}
}

func (w *Window) Frames() int {
	return w.frames
}

func (w *Window) Close() {
	w.closed = true
}

func (w *Window) ShouldClose() bool {
	return w.closed
}

func (w *Window) Destroy() {
	w.listeners = nil
	w.closed = true
}

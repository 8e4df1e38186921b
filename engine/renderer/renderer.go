package renderer

import (
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/platform"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/renderer/headless"
	"github.com/spaghettifunk/tessera/engine/renderer/vulkan"
)

type RendererType uint8

const (
	Vulkan RendererType = iota
	Headless
)

func (t RendererType) String() string {
	switch t {
	case Vulkan:
		return "vulkan"
	case Headless:
		return "headless"
	}
	return "unknown"
}

// Backend pairs the window with the device that presents to it.
type Backend struct {
	Type   RendererType
	Window Window
	Device gpu.Device
}

// OpenBackend creates the window and the device selected by the
// configuration. The headless backend needs no display and closes its window
// after cfg.Application.Frames frames.
func OpenBackend(cfg *core.Config, input *core.Input) (*Backend, error) {
	if cfg == nil {
		return nil, core.NewConfigurationError("open backend", core.ErrNilArgument, "configuration is required")
	}
	size := gpu.Size{Width: cfg.Application.Width, Height: cfg.Application.Height}
	clear := cfg.Renderer.ClearColor
	clearColor := gpu.Color{R: clear[0], G: clear[1], B: clear[2], A: clear[3]}

	if cfg.Renderer.UseHeadless(cfg.Application) {
		dev := headless.NewDevice(size)
		dev.SetMaxTextureUnits(cfg.Renderer.MaxTextureUnits)
		dev.SetClearColor(clearColor)
		win := headless.NewWindow(dev, input, size)
		win.CloseAfter = cfg.Application.Frames
		core.LogInfo("renderer backend: %s", Headless)
		return &Backend{Type: Headless, Window: win, Device: dev}, nil
	}

	win, err := platform.NewWindow(&cfg.Application, input)
	if err != nil {
		return nil, err
	}
	dev, err := vulkan.New(win, vulkan.Config{
		AppName:         cfg.Application.Name,
		Size:            win.Size(),
		VSync:           cfg.Renderer.VSync,
		Debug:           cfg.Renderer.Debug,
		MaxTextureUnits: cfg.Renderer.MaxTextureUnits,
		ClearColor:      clearColor,
	})
	if err != nil {
		win.Destroy()
		return nil, err
	}
	win.AttachDevice(dev)
	core.LogInfo("renderer backend: %s", Vulkan)
	return &Backend{Type: Vulkan, Window: win, Device: dev}, nil
}

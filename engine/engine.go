package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/systems"
)

const (
	UNIFORM_TIME = "uTime"
	// Frames between two metrics log lines.
	METRICS_LOG_INTERVAL = 300
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitializing:
		return "initializing"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	case EngineStageShutdown:
		return "shutdown"
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// Engine drives the frame loop: it owns the backend, the systems and the
// pipeline, and calls the game hooks at fixed points of every frame.
type Engine struct {
	stage  Stage
	game   *Game
	config *core.Config

	bus     *core.EventBus
	input   *core.Input
	backend *renderer.Backend

	systemManager *systems.SystemManager
	pipeline      *renderer.Pipeline

	clock   *core.Clock
	metrics *core.Metrics
	frames  uint64
	quit    bool
}

func New(g *Game) (*Engine, error) {
	if g == nil {
		return nil, core.NewConfigurationError("engine", core.ErrNilArgument, "game is required")
	}
	cfg := g.Config
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bus := core.NewEventBus()
	return &Engine{
		stage:   EngineStageUninitialized,
		game:    g,
		config:  cfg,
		bus:     bus,
		input:   core.NewInput(bus),
		clock:   core.NewClock(),
		metrics: core.NewMetrics(),
	}, nil
}

// Initialize opens the backend, loads the shaders, sets the pipeline up and
// lets the game build its scene. Any error leaves the engine unusable.
func (e *Engine) Initialize(ctx context.Context) error {
	if e.stage != EngineStageUninitialized {
		return core.NewConfigurationError("engine initialize", nil, "engine is %s", e.stage)
	}
	e.stage = EngineStageInitializing

	logCfg := e.config.Log
	if e.game.LogOutput != nil {
		logCfg.Output = e.game.LogOutput
	}
	core.SetLogger(core.NewLogger(logCfg))

	backend, err := renderer.OpenBackend(e.config, e.input)
	if err != nil {
		return err
	}
	e.backend = backend

	sm, err := systems.NewSystemManager(ctx, backend.Device, e.bus, systems.SystemManagerConfig{
		ShaderManifest: e.config.Renderer.ShaderManifest,
		HotReload:      e.config.Renderer.HotReload,
	})
	if err != nil {
		e.closeBackend()
		return err
	}
	e.systemManager = sm

	e.pipeline = renderer.NewPipeline(renderer.PipelineConfig{
		Device:  backend.Device,
		Window:  backend.Window,
		Shaders: sm.ShaderSystem(),
		Post:    e.config.Renderer.Post,
	})
	if err := e.pipeline.Setup(); err != nil {
		e.systemManager.Shutdown()
		e.systemManager.ShaderSystem().DestroyAll()
		e.closeBackend()
		return err
	}
	if err := e.pipeline.SetCamera(e.newCamera()); err != nil {
		return err
	}

	e.bus.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onQuit)
	e.bus.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	backend.Window.OnResize(e.onResize)

	if e.game.FnInitialize != nil {
		if err := e.game.FnInitialize(e); err != nil {
			e.Shutdown()
			return err
		}
	}
	if e.game.FnOnResize != nil {
		e.game.FnOnResize(backend.Window.Size())
	}

	e.stage = EngineStageInitialized
	core.LogInfo("engine initialized [%s backend]", backend.Type)
	return nil
}

func (e *Engine) newCamera() renderer.Camera {
	size := e.backend.Window.Size()
	switch e.config.Camera.Kind {
	case "2d":
		return renderer.NewCamera2D(size)
	case "3d":
		return renderer.NewCamera3D(size, e.config.Camera.FOV)
	}
	cursor, _ := e.backend.Window.(renderer.CursorController)
	return renderer.NewFlyCamera(size, e.config.Camera.FOV, e.input, cursor)
}

// Run steps frames until the window closes, the game asks to quit or ctx is
// done, then shuts the engine down.
func (e *Engine) Run(ctx context.Context) error {
	if e.stage != EngineStageInitialized {
		return core.NewConfigurationError("engine run", nil, "engine is %s", e.stage)
	}
	e.stage = EngineStageRunning
	e.clock.Start()

	var runErr error
	for !e.quit && e.pipeline.IsRunning() {
		if ctx.Err() != nil {
			core.LogInfo("context done, shutting down: %s", ctx.Err())
			break
		}
		if err := e.frame(); err != nil {
			runErr = err
			break
		}
	}

	if err := e.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// frame runs one iteration of the loop. Only game errors end the loop; a
// frame the device cannot start is skipped.
func (e *Engine) frame() error {
	start := e.clock.Now()
	e.systemManager.Update()

	if err := e.pipeline.BeginFrame(); err != nil {
		if !errors.Is(err, core.ErrSwapchainBooting) {
			core.LogError("frame skipped: %s", err)
		}
		if poller, ok := e.backend.Window.(renderer.EventPoller); ok {
			poller.PollEvents()
		}
		return nil
	}

	delta := e.pipeline.Time().Delta
	e.pipeline.Update(delta)
	if e.game.FnUpdate != nil {
		if err := e.game.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update failed: %w", err)
		}
	}
	e.systemManager.ShaderSystem().SetFloat(UNIFORM_TIME, float32(e.pipeline.Time().Elapsed))
	e.pipeline.Render()
	e.pipeline.EndFrame()

	e.metrics.Update(e.clock.Now() - start)
	e.frames++
	if e.frames%METRICS_LOG_INTERVAL == 0 {
		fps, ms := e.metrics.Frame()
		core.LogDebug("frame %d: %.0f fps, %.3f ms", e.frames, fps, ms)
	}
	return nil
}

// Shutdown releases the scene, the pipeline, the systems and the backend, in
// that order. It is safe to call more than once.
func (e *Engine) Shutdown() error {
	if e.stage == EngineStageShutdown || e.stage == EngineStageUninitialized {
		return nil
	}
	e.stage = EngineStageShuttingDown

	var err error
	if e.game.FnShutdown != nil {
		err = e.game.FnShutdown()
	}
	if e.pipeline != nil {
		e.pipeline.Scene().Delete()
	}
	if e.systemManager != nil {
		if serr := e.systemManager.Shutdown(); serr != nil && err == nil {
			err = serr
		}
	}
	if e.pipeline != nil {
		// destroys the programs, the device and the window
		e.pipeline.Delete()
	}
	e.bus.Shutdown()

	e.stage = EngineStageShutdown
	core.LogInfo("engine shut down after %d frames", e.frames)
	return err
}

func (e *Engine) closeBackend() {
	e.backend.Device.Destroy()
	e.backend.Window.Destroy()
}

// Quit stops the loop after the current frame.
func (e *Engine) Quit() {
	e.bus.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func (e *Engine) onQuit(core.EventContext) bool {
	core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
	e.quit = true
	return false
}

func (e *Engine) onKey(ctx core.EventContext) bool {
	ke, ok := ctx.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", ctx.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		e.Quit()
		return true
	}
	return false
}

func (e *Engine) onResize(size gpu.Size) {
	core.LogDebug("Window resize: %d, %d", size.Width, size.Height)
	e.bus.Fire(core.EventContext{
		Type: core.EVENT_CODE_RESIZED,
		Data: &core.ResizeEvent{Width: size.Width, Height: size.Height},
	})
	if e.game.FnOnResize != nil {
		e.game.FnOnResize(size)
	}
}

func (e *Engine) Stage() Stage {
	return e.stage
}

func (e *Engine) Config() *core.Config {
	return e.config
}

func (e *Engine) Frames() uint64 {
	return e.frames
}

func (e *Engine) Bus() *core.EventBus {
	return e.bus
}

func (e *Engine) Input() *core.Input {
	return e.input
}

func (e *Engine) Device() gpu.Device {
	return e.backend.Device
}

func (e *Engine) Window() renderer.Window {
	return e.backend.Window
}

func (e *Engine) Pipeline() *renderer.Pipeline {
	return e.pipeline
}

func (e *Engine) Shaders() *systems.ShaderSystem {
	return e.systemManager.ShaderSystem()
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

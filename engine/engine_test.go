package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/renderer/headless"
	"github.com/spaghettifunk/tessera/engine/systems"
)

const manifest = `
[[shader]]
name = "depth"
vertex = "stage.spv"
fragment = "stage.spv"

[[shader]]
name = "mainShader"
vertex = "stage.spv"
fragment = "stage.spv"
uniforms = [
  { name = "uTime", type = "float" },
]

[[shader]]
name = "screen"
vertex = "stage.spv"
fragment = "stage.spv"
uniforms = [
  { name = "screenTexture", type = "sampler2d" },
  { name = "finalTexture", type = "int" },
]
`

func testConfig(t *testing.T, frames int) *core.Config {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stage.spv"), []byte{0, 0, 0, 0}, 0o644))
	path := filepath.Join(dir, "shaders.toml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))

	cfg := core.DefaultConfig()
	cfg.Application.Headless = true
	cfg.Application.Frames = frames
	cfg.Renderer.ShaderManifest = path
	return cfg
}

func newEngine(t *testing.T, g *Game) *Engine {
	g.LogOutput = io.Discard
	e, err := New(g)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))
	return e
}

func TestEngineRunsHeadlessFrames(t *testing.T) {
	updates := 0
	initialized := false
	var resized gpu.Size
	g := &Game{
		Config: testConfig(t, 3),
		FnInitialize: func(e *Engine) error {
			initialized = true
			return nil
		},
		FnUpdate: func(float64) error {
			updates++
			return nil
		},
		FnOnResize: func(size gpu.Size) { resized = size },
	}
	e := newEngine(t, g)
	assert.True(t, initialized)
	assert.Equal(t, gpu.Size{Width: 800, Height: 600}, resized)
	assert.Equal(t, EngineStageInitialized, e.Stage())
	dev := e.Device().(*headless.Device)

	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, 3, updates)
	assert.Equal(t, uint64(3), e.Frames())
	assert.Equal(t, 3, dev.Frames())
	assert.Equal(t, EngineStageShutdown, e.Stage())
}

func TestEngineCameraFromConfig(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Camera.Kind = "3d"
	e := newEngine(t, &Game{Config: cfg})
	assert.IsType(t, &renderer.Camera3D{}, e.Pipeline().Camera())
	require.NoError(t, e.Shutdown())

	cfg = testConfig(t, 1)
	e = newEngine(t, &Game{Config: cfg})
	assert.IsType(t, &renderer.FlyCamera{}, e.Pipeline().Camera())
	require.NoError(t, e.Shutdown())
}

func TestEngineQuit(t *testing.T) {
	var e *Engine
	g := &Game{
		Config: testConfig(t, 0),
		FnUpdate: func(float64) error {
			e.Quit()
			return nil
		},
	}
	e = newEngine(t, g)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(1), e.Frames())
}

func TestEngineEscapeQuits(t *testing.T) {
	var e *Engine
	g := &Game{
		Config: testConfig(t, 0),
		FnUpdate: func(float64) error {
			if e.Frames() == 1 {
				e.Input().ProcessKey(core.KEY_ESCAPE, true)
			}
			return nil
		},
	}
	e = newEngine(t, g)
	require.NoError(t, e.Run(context.Background()))
	assert.Equal(t, uint64(2), e.Frames())
}

func TestEngineContextCancelled(t *testing.T) {
	shutdown := false
	g := &Game{
		Config:     testConfig(t, 0),
		FnShutdown: func() error { shutdown = true; return nil },
	}
	e := newEngine(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, e.Run(ctx))
	assert.Zero(t, e.Frames())
	assert.True(t, shutdown)
	assert.Equal(t, EngineStageShutdown, e.Stage())
}

func TestEngineUpdateErrorStopsLoop(t *testing.T) {
	boom := errors.New("boom")
	g := &Game{
		Config:   testConfig(t, 0),
		FnUpdate: func(float64) error { return boom },
	}
	e := newEngine(t, g)
	err := e.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, e.Frames())
	assert.Equal(t, EngineStageShutdown, e.Stage())
}

func TestEnginePublishesTime(t *testing.T) {
	var e *Engine
	var seen []interface{}
	g := &Game{
		Config: testConfig(t, 3),
		FnUpdate: func(float64) error {
			sh, ok := e.Shaders().Shader("mainShader")
			require.True(t, ok)
			seen = append(seen, sh.Program().(*headless.Program).Uniforms[UNIFORM_TIME])
			return nil
		},
	}
	e = newEngine(t, g)
	require.NoError(t, e.Run(context.Background()))

	require.Len(t, seen, 3)
	// uTime is set after the game update
	assert.Nil(t, seen[0])
	assert.IsType(t, float32(0), seen[1])
}

func TestEngineResizeReachesGameAndBus(t *testing.T) {
	var sizes []gpu.Size
	g := &Game{
		Config:     testConfig(t, 1),
		FnOnResize: func(size gpu.Size) { sizes = append(sizes, size) },
	}
	e := newEngine(t, g)

	var event *core.ResizeEvent
	e.Bus().Register(core.EVENT_CODE_RESIZED, t, func(ctx core.EventContext) bool {
		event = ctx.Data.(*core.ResizeEvent)
		return true
	})
	e.Window().(*headless.Window).Resize(gpu.Size{Width: 1024, Height: 768})

	require.NotNil(t, event)
	assert.Equal(t, 1024, event.Width)
	assert.Equal(t, []gpu.Size{{Width: 800, Height: 600}, {Width: 1024, Height: 768}}, sizes)
	for _, rp := range e.Pipeline().WorldPasses() {
		assert.Equal(t, gpu.Size{Width: 1024, Height: 768}, rp.Size())
	}
	assert.InDelta(t, 1024.0/768.0, e.Pipeline().Camera().AspectRatio(), 1e-5)
	require.NoError(t, e.Shutdown())
}

func TestEngineInitializeErrors(t *testing.T) {
	cfg := testConfig(t, 1)
	cfg.Renderer.ShaderManifest = filepath.Join(t.TempDir(), "missing.toml")
	e, err := New(&Game{Config: cfg, LogOutput: io.Discard})
	require.NoError(t, err)
	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, e.Initialize(context.Background()), &cfgErr)

	boom := errors.New("boom")
	e, err = New(&Game{
		Config:       testConfig(t, 1),
		LogOutput:    io.Discard,
		FnInitialize: func(*Engine) error { return boom },
	})
	require.NoError(t, err)
	assert.ErrorIs(t, e.Initialize(context.Background()), boom)
	assert.Equal(t, EngineStageShutdown, e.Stage())

	var runErr *core.ConfigurationError
	assert.ErrorAs(t, e.Run(context.Background()), &runErr)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, core.ErrNilArgument)

	cfg := core.DefaultConfig()
	cfg.Camera.Kind = "orbit"
	_, err = New(&Game{Config: cfg})
	assert.Error(t, err)
}

func TestShaderSystemIsTheRegistry(t *testing.T) {
	e := newEngine(t, &Game{Config: testConfig(t, 1)})
	var registry renderer.ShaderRegistry = e.Shaders()
	_, ok := registry.(*systems.ShaderSystem)
	assert.True(t, ok)
	assert.Equal(t, []string{"depth", "mainShader", "screen"}, e.Shaders().Names())
	require.NoError(t, e.Shutdown())
}

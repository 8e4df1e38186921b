package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendErrorUnwraps(t *testing.T) {
	err := error(NewBackendError("framebuffer", ErrIncompleteTarget))

	var be *BackendError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "framebuffer", be.Op)
	assert.ErrorIs(t, err, ErrIncompleteTarget)
	assert.Contains(t, err.Error(), "render target incomplete")
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := NewConfigurationError("scene.add", ErrNotFound, "path %q", "A/B")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `configuration: scene.add: path "A/B": not found`, err.Error())
}

func TestInputStatePromotion(t *testing.T) {
	bus := NewEventBus()
	var pressed, released int
	bus.Register(EVENT_CODE_KEY_PRESSED, "test", func(ctx EventContext) bool {
		pressed++
		assert.Equal(t, KEY_W, ctx.Data.(*KeyEvent).KeyCode)
		return true
	})
	bus.Register(EVENT_CODE_KEY_RELEASED, "test", func(ctx EventContext) bool {
		released++
		return true
	})

	in := NewInput(bus)
	assert.Equal(t, Up, in.KeyState(KEY_W))

	in.ProcessKey(KEY_W, true)
	assert.Equal(t, Pressed, in.KeyState(KEY_W))
	assert.True(t, in.IsKeyDown(KEY_W))
	assert.True(t, in.IsKeyPressed(KEY_W))

	// repeated press events do not re-trigger
	in.ProcessKey(KEY_W, true)
	assert.Equal(t, 1, pressed)

	in.Update()
	assert.Equal(t, Down, in.KeyState(KEY_W))
	assert.False(t, in.IsKeyPressed(KEY_W))

	in.ProcessKey(KEY_W, false)
	assert.Equal(t, Released, in.KeyState(KEY_W))
	assert.True(t, in.IsKeyUp(KEY_W))
	in.Update()
	assert.Equal(t, Up, in.KeyState(KEY_W))
	assert.Equal(t, 1, released)
}

func TestInputMouse(t *testing.T) {
	in := NewInput(NewEventBus())
	in.ProcessMouseMove(400, 300)
	dx, dy := in.MouseDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	in.ProcessMouseMove(410, 290)
	dx, dy = in.MouseDelta()
	assert.Equal(t, 10.0, dx)
	assert.Equal(t, -10.0, dy)

	in.Update()
	dx, _ = in.MouseDelta()
	assert.Zero(t, dx)

	in.ProcessButton(BUTTON_LEFT, true)
	assert.True(t, in.IsButtonPressed(BUTTON_LEFT))
	in.Update()
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.False(t, in.IsButtonPressed(BUTTON_LEFT))
}

func TestPixelToScreenUV(t *testing.T) {
	u, v := PixelToScreenUV(0, 0, 800, 600)
	assert.Equal(t, float32(-1), u)
	assert.Equal(t, float32(1), v)

	u, v = PixelToScreenUV(400, 300, 800, 600)
	assert.InDelta(t, 0, u, 1e-6)
	assert.InDelta(t, 0, v, 1e-6)

	u, v = PixelToScreenUV(800, 600, 800, 600)
	assert.Equal(t, float32(1), u)
	assert.Equal(t, float32(-1), v)
}

func TestEventBusRegistration(t *testing.T) {
	bus := NewEventBus()
	calls := []string{}
	first := func(EventContext) bool { calls = append(calls, "first"); return false }
	second := func(EventContext) bool { calls = append(calls, "second"); return true }
	third := func(EventContext) bool { calls = append(calls, "third"); return true }

	require.True(t, bus.Register(EVENT_CODE_RESIZED, 1, first))
	require.False(t, bus.Register(EVENT_CODE_RESIZED, 1, first))
	require.True(t, bus.Register(EVENT_CODE_RESIZED, 2, second))
	require.True(t, bus.Register(EVENT_CODE_RESIZED, 3, third))

	assert.True(t, bus.Fire(EventContext{Type: EVENT_CODE_RESIZED}))
	assert.Equal(t, []string{"first", "second"}, calls)

	assert.True(t, bus.Unregister(EVENT_CODE_RESIZED, 2))
	assert.False(t, bus.Unregister(EVENT_CODE_RESIZED, 2))
	calls = calls[:0]
	bus.Fire(EventContext{Type: EVENT_CODE_RESIZED})
	assert.Equal(t, []string{"first", "third"}, calls)
}

func TestMetricsAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 16.0, m.FrameTime(), 1e-9)

	for i := 0; i < 100; i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 62, m.FPS(), 1)
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Zero(t, c.Elapsed())
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	c.Update()
	assert.GreaterOrEqual(t, c.Elapsed(), 0.0)
	a := c.Now()
	b := c.Now()
	assert.GreaterOrEqual(t, b, a)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[application]
name = "demo"
width = 1024
height = 768

[renderer]
backend = "headless"

[[renderer.post]]
name = "blur"
program = "blur"
outputs = ["color"]
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Application.Name)
	assert.Equal(t, 1024, cfg.Application.Width)
	assert.Equal(t, "headless", cfg.Renderer.Backend)
	assert.Equal(t, 16, cfg.Renderer.MaxTextureUnits)
	require.Len(t, cfg.Renderer.Post, 1)
	assert.Equal(t, []string{"color"}, cfg.Renderer.Post[0].Outputs)
	assert.Equal(t, "fly", cfg.Camera.Kind)
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[renderer]\nbackend = \"gl\"\n"), 0o644))

	_, err := LoadConfig(path)
	var ce *ConfigurationError
	require.ErrorAs(t, err, &ce)
}

func TestValidateRejectsCollidingPostPasses(t *testing.T) {
	for _, names := range [][]string{
		{"main"},
		{"depth"},
		{"screen"},
		{"final"},
		{"blur", "blur"},
		{"main_color"},
		{""},
	} {
		cfg := DefaultConfig()
		for _, n := range names {
			cfg.Renderer.Post = append(cfg.Renderer.Post, PassConfig{Name: n, Program: "blur"})
		}
		var ce *ConfigurationError
		assert.ErrorAs(t, cfg.Validate(), &ce, "post passes %v", names)
	}

	cfg := DefaultConfig()
	cfg.Renderer.Post = []PassConfig{{Name: "blur", Program: "blur"}, {Name: "bloom2", Program: "bloom"}}
	assert.NoError(t, cfg.Validate())
	assert.ErrorIs(t, CheckPassName("bloom2", []string{"blur", "bloom2"}), ErrNameTaken)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

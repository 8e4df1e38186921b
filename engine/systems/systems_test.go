package systems

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/renderer/headless"
)

const manifest = `
[[shader]]
name = "screen"
vertex = "screen.vert.spv"
fragment = "screen.frag.spv"
layout = "pnu"

  [[shader.uniforms]]
  name = "finalTexture"
  type = "int"

  [[shader.uniforms]]
  name = "uScreenSize"
  type = "vec2"

[[shader]]
name = "text"
vertex = "text.vert.spv"
fragment = "text.frag.spv"
layout = "pu"
`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{"screen.vert.spv", "screen.frag.spv", "text.vert.spv", "text.frag.spv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(f), 0o644))
	}
	path := filepath.Join(dir, "shaders.toml")
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	return path
}

func backend(t *testing.T, s *ShaderSystem, name string) *headless.Program {
	t.Helper()
	sh, ok := s.Shader(name)
	require.True(t, ok, name)
	return sh.Program().(*headless.Program)
}

func TestLoadManifest(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	s := NewShaderSystem(d, nil)
	require.NoError(t, s.LoadManifest(writeManifest(t)))

	assert.Equal(t, []string{"screen", "text"}, s.Names())
	screen := backend(t, s, "screen")
	assert.Equal(t, []byte("screen.vert.spv"), screen.Source.Vertex)
	assert.Equal(t, gpu.LayoutPNU, screen.Source.Layout)
	assert.Equal(t, []gpu.UniformDecl{{Name: "finalTexture", Type: gpu.UniformInt}, {Name: "uScreenSize", Type: gpu.UniformVec2}}, screen.Source.Uniforms)
	assert.Equal(t, gpu.LayoutPU, backend(t, s, "text").Source.Layout)

	assert.Nil(t, s.Get("missing"))
	assert.NotNil(t, s.Get("screen"))
}

func TestLoadManifestErrors(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	s := NewShaderSystem(d, nil)

	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, s.LoadManifest(filepath.Join(t.TempDir(), "none.toml")), &cfgErr)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[[shader]]\nname = \"x\"\nvertex = \"missing.spv\"\nfragment = \"missing.spv\"\n"), 0o644))
	assert.ErrorAs(t, s.LoadManifest(bad), &cfgErr)

	require.NoError(t, os.WriteFile(bad, []byte("[[shader]]\nname = \"x\"\nlayout = \"weird\"\n"), 0o644))
	assert.ErrorAs(t, s.LoadManifest(bad), &cfgErr)
}

func TestBroadcastRemembersGlobals(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	s := NewShaderSystem(d, nil)
	_, err := s.Register(gpu.ProgramSource{Name: "a"})
	require.NoError(t, err)

	s.SetVec2("uScreenSize", mgl32.Vec2{800, 600})
	s.SetInt("finalTexture", 3)
	s.SetMat4("uView", mgl32.Ident4())
	assert.Equal(t, mgl32.Vec2{800, 600}, backend(t, s, "a").Uniforms["uScreenSize"])

	// a program created later receives the globals set before
	_, err = s.Register(gpu.ProgramSource{Name: "b"})
	require.NoError(t, err)
	b := backend(t, s, "b")
	assert.Equal(t, mgl32.Vec2{800, 600}, b.Uniforms["uScreenSize"])
	assert.Equal(t, int32(3), b.Uniforms["finalTexture"])
	assert.Equal(t, mgl32.Ident4(), b.Uniforms["uView"])
}

func TestRegisterKeepsHandleAcrossReplacement(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	s := NewShaderSystem(d, nil)
	first, err := s.Register(gpu.ProgramSource{Name: "main"})
	require.NoError(t, err)
	old := first.Program().(*headless.Program)

	second, err := s.Register(gpu.ProgramSource{Name: "main", Vertex: []byte("v2")})
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.True(t, old.Destroyed)
	assert.Equal(t, []byte("v2"), first.Source().Vertex)
	assert.Same(t, first.Program(), gpu.Unwrap(s.Get("main")))

	_, err = s.Register(gpu.ProgramSource{})
	var be *core.BackendError
	assert.ErrorAs(t, err, &be)
}

func TestDestroyAll(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	s := NewShaderSystem(d, nil)
	require.NoError(t, s.LoadManifest(writeManifest(t)))
	s.DestroyAll()

	assert.Empty(t, s.Names())
	_, _, _, _, programs := d.Live()
	assert.Equal(t, 0, programs)
}

func TestWatchReloadsChangedStage(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	bus := core.NewEventBus()
	s := NewShaderSystem(d, bus)
	path := writeManifest(t)
	require.NoError(t, s.LoadManifest(path))

	var reloaded []string
	bus.Register(core.EVENT_CODE_SHADER_RELOADED, t, func(ctx core.EventContext) bool {
		reloaded = append(reloaded, ctx.Data.(string))
		return true
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Watch(ctx))

	handle, _ := s.Shader("text")
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "text.frag.spv"), []byte("v2"), 0o644))

	require.Eventually(t, func() bool {
		s.Poll()
		return string(handle.Source().Fragment) == "v2"
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, reloaded, "text")
	assert.NotContains(t, reloaded, "screen")
}

func TestWatchWithoutManifest(t *testing.T) {
	s := NewShaderSystem(headless.NewDevice(gpu.Size{Width: 8, Height: 8}), nil)
	assert.ErrorIs(t, s.Watch(context.Background()), core.ErrNotFound)
}

func TestJobSystem(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)

	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)

	var mu sync.Mutex
	var completed, failed int
	for i := 0; i < 6; i++ {
		fail := i%2 == 0
		require.NoError(t, js.Submit(Job{
			Name: "job",
			Run: func() (interface{}, error) {
				if fail {
					return nil, errors.New("boom")
				}
				return 1, nil
			},
			OnComplete: func(interface{}) { mu.Lock(); completed++; mu.Unlock() },
			OnFailure:  func(error) { mu.Lock(); failed++; mu.Unlock() },
		}))
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, 3, completed)
	assert.Equal(t, 3, failed)
	assert.ErrorIs(t, js.Submit(Job{}), ErrJobSystemClosed)
	require.NoError(t, js.Shutdown())
}

func TestSystemManager(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	sm, err := NewSystemManager(context.Background(), d, nil, SystemManagerConfig{ShaderManifest: writeManifest(t), HotReload: true})
	require.NoError(t, err)
	assert.NotNil(t, sm.ShaderSystem().Get("screen"))
	sm.Update()
	require.NoError(t, sm.Shutdown())

	_, err = NewSystemManager(context.Background(), d, nil, SystemManagerConfig{ShaderManifest: "missing.toml"})
	assert.Error(t, err)
}

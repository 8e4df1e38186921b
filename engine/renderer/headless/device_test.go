package headless

import (
	"errors"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

func surfaces(t *testing.T, d *Device, size gpu.Size, specs ...gpu.AttachmentSpec) []gpu.Surface {
	t.Helper()
	out := make([]gpu.Surface, 0, len(specs))
	for _, s := range specs {
		sf, err := d.CreateSurface(s, size)
		require.NoError(t, err)
		out = append(out, sf)
	}
	return out
}

func TestFramebufferValidation(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 800, Height: 600})
	size := gpu.Size{Width: 800, Height: 600}

	_, err := d.CreateFramebuffer(surfaces(t, d, size, gpu.ColorTexture, gpu.DepthStencilOpaque))
	require.NoError(t, err)

	_, err = d.CreateFramebuffer(nil)
	assert.ErrorIs(t, err, core.ErrIncompleteTarget)

	_, err = d.CreateFramebuffer(surfaces(t, d, size, gpu.ColorTexture, gpu.DepthStencilOpaque, gpu.DepthTexture))
	var be *core.BackendError
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, core.ErrIncompleteTarget)

	mixed := surfaces(t, d, size, gpu.ColorTexture)
	mixed = append(mixed, surfaces(t, d, gpu.Size{Width: 10, Height: 10}, gpu.NormalTexture)...)
	_, err = d.CreateFramebuffer(mixed)
	assert.ErrorIs(t, err, core.ErrIncompleteTarget)
}

func TestBindTextureRejectsOpaqueAndOutOfRange(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 4, Height: 4})
	sf := surfaces(t, d, gpu.Size{Width: 4, Height: 4}, gpu.ColorTexture, gpu.DepthStencilOpaque)

	require.NoError(t, d.BindTexture(0, sf[0]))
	assert.Error(t, d.BindTexture(1, sf[1]))
	assert.Error(t, d.BindTexture(d.MaxTextureUnits(), sf[0]))
	assert.Len(t, d.Units(), 1)

	d.UnbindTexture(0)
	assert.Empty(t, d.Units())
}

func TestResizeFailureKeepsSize(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 4, Height: 4})
	sf := surfaces(t, d, gpu.Size{Width: 4, Height: 4}, gpu.ColorTexture)[0]

	d.FailResize = errors.New("out of memory")
	assert.Error(t, d.ResizeSurface(sf, gpu.Size{Width: 8, Height: 8}))
	assert.Equal(t, gpu.Size{Width: 4, Height: 4}, sf.Size())

	d.FailResize = nil
	require.NoError(t, d.ResizeSurface(sf, gpu.Size{Width: 8, Height: 8}))
	assert.Equal(t, 2, sf.(*Surface).Generation)
}

func TestFramebufferGoesStaleUntilRebuilt(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 4, Height: 4})
	sfs := surfaces(t, d, gpu.Size{Width: 4, Height: 4}, gpu.ColorTexture, gpu.DepthStencilOpaque)
	gfb, err := d.CreateFramebuffer(sfs)
	require.NoError(t, err)
	fb := gfb.(*Framebuffer)
	assert.False(t, fb.Stale())

	d.ResizeCheck = func(s gpu.Surface, _ gpu.Size) error {
		if !s.Spec().Role.IsColor() {
			return errors.New("no depth memory")
		}
		return nil
	}
	require.NoError(t, d.ResizeSurface(sfs[0], gpu.Size{Width: 8, Height: 8}))
	assert.Error(t, d.ResizeSurface(sfs[1], gpu.Size{Width: 8, Height: 8}))
	assert.True(t, fb.Stale())

	d.ResizeCheck = nil
	require.NoError(t, d.ResizeSurface(sfs[1], gpu.Size{Width: 8, Height: 8}))
	require.NoError(t, d.RebuildFramebuffer(fb))
	assert.False(t, fb.Stale())
	assert.Equal(t, 1, fb.Rebuilds)
	assert.Equal(t, gpu.Size{Width: 8, Height: 8}, fb.Size())
}

func TestProgramIgnoresUndeclaredUniforms(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 4, Height: 4})
	p, err := d.CreateProgram(gpu.ProgramSource{
		Name:     "screen",
		Uniforms: []gpu.UniformDecl{{Name: "screenTexture", Type: gpu.UniformInt}},
	})
	require.NoError(t, err)

	p.SetInt("screenTexture", 3)
	p.SetInt("unknown", 1)
	p.SetMat4("screenTexture", mgl32.Ident4())

	hp := p.(*Program)
	assert.Equal(t, map[string]interface{}{"screenTexture": int32(3)}, hp.Uniforms)
}

func TestDestroyReleasesEverything(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 4, Height: 4})
	surfaces(t, d, gpu.Size{Width: 4, Height: 4}, gpu.ColorTexture)
	_, err := d.CreateTexture(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	_, err = d.CreateMesh(gpu.QuadData(2, 2))
	require.NoError(t, err)

	d.Destroy()
	s, f, tx, m, p := d.Live()
	assert.Zero(t, s+f+tx+m+p)
}

func TestWindowResizeNotifiesSynchronously(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 800, Height: 600})
	w := NewWindow(d, nil, gpu.Size{Width: 800, Height: 600})

	var got []gpu.Size
	w.OnResize(func(s gpu.Size) { got = append(got, s) })
	w.Resize(gpu.Size{Width: 1024, Height: 768})

	assert.Equal(t, []gpu.Size{{Width: 1024, Height: 768}}, got)
	assert.Equal(t, gpu.Size{Width: 1024, Height: 768}, d.Size())
}

func TestWindowCloseAfter(t *testing.T) {
	d := NewDevice(gpu.Size{Width: 8, Height: 8})
	w := NewWindow(d, core.NewInput(core.NewEventBus()), gpu.Size{Width: 8, Height: 8})
	w.CloseAfter = 2

	for i := 0; i < 2; i++ {
		assert.False(t, w.ShouldClose())
		require.NoError(t, d.BeginFrame())
		w.EndFrame()
	}
	assert.True(t, w.ShouldClose())
	assert.Equal(t, 2, d.Frames())
}

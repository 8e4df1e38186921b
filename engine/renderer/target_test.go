package renderer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/renderer/headless"
)

var (
	size800  = gpu.Size{Width: 800, Height: 600}
	size1024 = gpu.Size{Width: 1024, Height: 768}
)

func gbuffer() []gpu.AttachmentSpec {
	return []gpu.AttachmentSpec{gpu.PositionTexture, gpu.NormalTexture, gpu.ColorFloatTexture, gpu.DepthStencilOpaque}
}

func TestRenderTargetOutputs(t *testing.T) {
	d := headless.NewDevice(size800)
	rt, err := NewRenderTarget(d, gbuffer(), size800)
	require.NoError(t, err)

	var names []string
	for _, o := range rt.SampledOutputs() {
		names = append(names, o.Name)
		assert.Equal(t, size800, o.Texture.Size())
	}
	assert.Equal(t, []string{"position", "normal", "color"}, names)

	_, ok := rt.Output("depthStencil")
	assert.False(t, ok, "opaque attachments are never sampled")
}

func TestRenderTargetRepeatedRoles(t *testing.T) {
	d := headless.NewDevice(size800)
	rt, err := NewRenderTarget(d, []gpu.AttachmentSpec{gpu.ColorTexture, gpu.ColorFloatTexture}, size800)
	require.NoError(t, err)

	_, ok := rt.Output("color")
	assert.True(t, ok)
	_, ok = rt.Output("color1")
	assert.True(t, ok)
}

func TestRenderTargetSameSizeResizeIsIdempotent(t *testing.T) {
	d := headless.NewDevice(size800)
	rt, err := NewRenderTarget(d, gbuffer(), size800)
	require.NoError(t, err)
	before := append([]SampledOutput(nil), rt.SampledOutputs()...)

	require.NoError(t, rt.Resize(size800))

	assert.Equal(t, size800, rt.Size())
	for i, o := range rt.SampledOutputs() {
		assert.Same(t, before[i].Texture.(*headless.Surface), o.Texture.(*headless.Surface))
		assert.Equal(t, 1, o.Texture.(*headless.Surface).Generation)
		assert.Equal(t, size800, o.Texture.Size())
	}
}

func TestRenderTargetResizeKeepsIdentity(t *testing.T) {
	d := headless.NewDevice(size800)
	rt, err := NewRenderTarget(d, gbuffer(), size800)
	require.NoError(t, err)
	color, _ := rt.Output("color")

	require.NoError(t, rt.Resize(size1024))

	after, _ := rt.Output("color")
	assert.Same(t, color.(*headless.Surface), after.(*headless.Surface))
	assert.Equal(t, size1024, after.Size())
	assert.Equal(t, size1024, rt.Framebuffer().Size())
}

func TestRenderTargetResizeFailureRollsBack(t *testing.T) {
	d := headless.NewDevice(size800)
	rt, err := NewRenderTarget(d, gbuffer(), size800)
	require.NoError(t, err)

	d.FailResize = errors.New("out of memory")
	err = rt.Resize(size1024)
	var be *core.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, size800, rt.Size())

	d.FailResize = nil
	d.Validate = func(surfaces []gpu.Surface) error {
		if surfaces[0].Size() == size1024 {
			return core.NewBackendError("validate", core.ErrIncompleteTarget)
		}
		return nil
	}
	err = rt.Resize(size1024)
	assert.ErrorIs(t, err, core.ErrIncompleteTarget)
	assert.Equal(t, size800, rt.Size())
	for _, o := range rt.SampledOutputs() {
		assert.Equal(t, size800, o.Texture.Size())
	}
	assert.Equal(t, size800, rt.Framebuffer().Size())
}

func TestRenderTargetPartialResizeFailureRebuildsFramebuffer(t *testing.T) {
	d := headless.NewDevice(size800)
	rt, err := NewRenderTarget(d, gbuffer(), size800)
	require.NoError(t, err)
	fb := rt.Framebuffer().(*headless.Framebuffer)

	// position and normal are reallocated before the color attachment fails
	d.ResizeCheck = func(s gpu.Surface, size gpu.Size) error {
		if s.Spec() == gpu.ColorFloatTexture && size == size1024 {
			return errors.New("out of memory")
		}
		return nil
	}
	err = rt.Resize(size1024)
	assert.Error(t, err)

	assert.Equal(t, size800, rt.Size())
	for _, o := range rt.SampledOutputs() {
		assert.Equal(t, size800, o.Texture.Size())
	}
	assert.False(t, fb.Stale(), "framebuffer must point at the restored storage")
	assert.Equal(t, 1, fb.Rebuilds)
	assert.Equal(t, size800, fb.Size())

	d.ResizeCheck = nil
	require.NoError(t, rt.Resize(size1024))
	assert.False(t, fb.Stale())
	assert.Equal(t, size1024, fb.Size())
}

func TestRenderTargetCreateFailureReleasesSurfaces(t *testing.T) {
	d := headless.NewDevice(size800)
	_, err := NewRenderTarget(d, []gpu.AttachmentSpec{gpu.ColorTexture, gpu.DepthTexture, gpu.DepthStencilOpaque}, size800)
	assert.ErrorIs(t, err, core.ErrIncompleteTarget)
	surfaces, framebuffers, _, _, _ := d.Live()
	assert.Zero(t, surfaces)
	assert.Zero(t, framebuffers)

	_, err = NewRenderTarget(d, nil, size800)
	assert.ErrorIs(t, err, core.ErrIncompleteTarget)

	_, err = NewRenderTarget(nil, gbuffer(), size800)
	assert.ErrorIs(t, err, core.ErrNilArgument)
}

func TestRenderTargetBindLeavesSamplers(t *testing.T) {
	d := headless.NewDevice(size800)
	rt, err := NewRenderTarget(d, gbuffer(), size800)
	require.NoError(t, err)
	tex, _ := rt.Output("color")
	require.NoError(t, d.BindTexture(0, tex))

	rt.Bind()
	assert.Same(t, rt.Framebuffer().(*headless.Framebuffer), d.Bound())
	rt.Unbind()
	assert.Nil(t, d.Bound())
	assert.Len(t, d.Units(), 1)

	rt.Destroy()
	surfaces, framebuffers, _, _, _ := d.Live()
	assert.Zero(t, surfaces)
	assert.Zero(t, framebuffers)
}

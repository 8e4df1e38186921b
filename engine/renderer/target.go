package renderer

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// SampledOutput is an attachment that later passes can read.
type SampledOutput struct {
	Name    string
	Texture gpu.Texture
}

// RenderTarget owns a framebuffer and the surfaces attached to it. The
// surfaces keep their identity across resizes.
type RenderTarget struct {
	device      gpu.Device
	specs       []gpu.AttachmentSpec
	surfaces    []gpu.Surface
	outputs     []SampledOutput
	framebuffer gpu.Framebuffer
	size        gpu.Size
}

func NewRenderTarget(device gpu.Device, specs []gpu.AttachmentSpec, size gpu.Size) (*RenderTarget, error) {
	if device == nil {
		return nil, core.NewConfigurationError("render target", core.ErrNilArgument, "device is required")
	}
	if len(specs) == 0 {
		return nil, core.NewBackendError("render target", fmt.Errorf("no attachments: %w", core.ErrIncompleteTarget))
	}

	rt := &RenderTarget{
		device: device,
		specs:  append([]gpu.AttachmentSpec(nil), specs...),
		size:   size,
	}

	for _, spec := range specs {
		s, err := device.CreateSurface(spec, size)
		if err != nil {
			rt.Destroy()
			return nil, asBackendError("create attachment "+spec.String(), err)
		}
		rt.surfaces = append(rt.surfaces, s)
	}

	fb, err := device.CreateFramebuffer(rt.surfaces)
	if err != nil {
		rt.Destroy()
		return nil, asBackendError("create framebuffer", err)
	}
	rt.framebuffer = fb
	rt.outputs = sampledOutputs(rt.surfaces)

	core.LogDebug("render target created [%dx%d, %d attachments, %d sampled]", size.Width, size.Height, len(specs), len(rt.outputs))
	return rt, nil
}

// sampledOutputs names texture backed attachments by role in attachment
// order. A repeated role gets its index appended.
func sampledOutputs(surfaces []gpu.Surface) []SampledOutput {
	var outputs []SampledOutput
	seen := make(map[string]int)
	for _, s := range surfaces {
		if !s.Spec().Sampled() {
			continue
		}
		name := s.Spec().Role.Name()
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s%d", name, n)
		} else {
			seen[name] = 1
		}
		outputs = append(outputs, SampledOutput{Name: name, Texture: s})
	}
	return outputs
}

func asBackendError(op string, err error) error {
	var be *core.BackendError
	if errors.As(err, &be) {
		return err
	}
	return core.NewBackendError(op, err)
}

// Resize reallocates every attachment at the new size and revalidates the
// framebuffer. On failure the target is restored to its previous size.
func (rt *RenderTarget) Resize(size gpu.Size) error {
	if size == rt.size {
		return nil
	}
	old := rt.size

	for i, s := range rt.surfaces {
		if err := rt.device.ResizeSurface(s, size); err != nil {
			rt.restore(rt.surfaces[:i], old)
			return asBackendError("resize attachment "+s.Spec().String(), err)
		}
	}
	if err := rt.device.RebuildFramebuffer(rt.framebuffer); err != nil {
		rt.restore(rt.surfaces, old)
		return asBackendError("rebuild framebuffer", err)
	}

	rt.size = size
	return nil
}

// restore reallocates surfaces at size and points the framebuffer back at
// the new storage. The old storage is gone once a surface was reallocated.
func (rt *RenderTarget) restore(surfaces []gpu.Surface, size gpu.Size) {
	if len(surfaces) == 0 {
		return
	}
	for _, s := range surfaces {
		if err := rt.device.ResizeSurface(s, size); err != nil {
			core.LogError("failed to restore attachment %s: %s", s.Spec(), err)
		}
	}
	if err := rt.device.RebuildFramebuffer(rt.framebuffer); err != nil {
		core.LogError("failed to restore render target at %dx%d: %s", size.Width, size.Height, err)
	}
}

func (rt *RenderTarget) Size() gpu.Size {
	return rt.size
}

// SampledOutputs returns the texture backed attachments, in attachment order.
func (rt *RenderTarget) SampledOutputs() []SampledOutput {
	return rt.outputs
}

func (rt *RenderTarget) Output(name string) (gpu.Texture, bool) {
	for _, o := range rt.outputs {
		if o.Name == name {
			return o.Texture, true
		}
	}
	return nil, false
}

func (rt *RenderTarget) Specs() []gpu.AttachmentSpec {
	return rt.specs
}

func (rt *RenderTarget) Framebuffer() gpu.Framebuffer {
	return rt.framebuffer
}

// Bind makes the target the draw destination. Sampler bindings are untouched.
func (rt *RenderTarget) Bind() {
	rt.device.BindFramebuffer(rt.framebuffer)
}

func (rt *RenderTarget) Unbind() {
	rt.device.BindFramebuffer(nil)
}

func (rt *RenderTarget) Destroy() {
	if rt.framebuffer != nil {
		rt.device.DestroyFramebuffer(rt.framebuffer)
		rt.framebuffer = nil
	}
	for _, s := range rt.surfaces {
		rt.device.DestroySurface(s)
	}
	rt.surfaces = nil
	rt.outputs = nil
}

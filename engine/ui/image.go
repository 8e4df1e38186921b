package ui

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Image is a textured quad drawn in screen space.
type Image struct {
	device   gpu.Device
	quad     gpu.Mesh
	texture  gpu.Texture
	position mgl32.Vec2
	program  gpu.Program
}

func NewImage(device gpu.Device, texture gpu.Texture, position mgl32.Vec2, program gpu.Program) (*Image, error) {
	if device == nil || texture == nil || program == nil {
		return nil, core.NewConfigurationError("image", core.ErrNilArgument, "device, texture and program are required")
	}
	size := texture.Size()
	quad, err := device.CreateMesh(gpu.QuadData(float32(size.Width), float32(size.Height)))
	if err != nil {
		core.LogError("failed to create the image quad: %s", err)
		return nil, err
	}
	return &Image{
		device:   device,
		quad:     quad,
		texture:  texture,
		position: position,
		program:  program,
	}, nil
}

func (i *Image) Program() gpu.Program {
	return i.program
}

func (i *Image) SetProgram(p gpu.Program) {
	i.program = p
}

func (i *Image) Position() mgl32.Vec2 {
	return i.position
}

func (i *Image) Texture() gpu.Texture {
	return i.texture
}

func (i *Image) Draw() {
	if i.quad == nil {
		return
	}
	i.program.Bind()
	defer i.program.Unbind()
	if err := i.device.BindTexture(0, i.texture); err != nil {
		core.LogError("failed to bind image texture: %s", err)
		return
	}
	i.program.SetInt("uTextured", 1)
	i.program.SetInt("uTex", 0)
	i.program.SetVec2("uPosition", i.position)
	i.device.Draw(i.program, i.quad)
}

func (i *Image) Destroy() {
	if i.quad != nil {
		i.device.DestroyMesh(i.quad)
		i.quad = nil
	}
}

package graphics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Sprite is a textured quad the size of its texture, drawn in the world with
// its own program.
type Sprite struct {
	device   gpu.Device
	quad     gpu.Mesh
	texture  gpu.Texture
	position mgl32.Vec2
	program  gpu.Program
}

func NewSprite(device gpu.Device, texture gpu.Texture, position mgl32.Vec2, program gpu.Program) (*Sprite, error) {
	if texture == nil || program == nil {
		return nil, core.NewConfigurationError("sprite", core.ErrNilArgument, "texture and program are required")
	}
	size := texture.Size()
	quad, err := device.CreateMesh(gpu.QuadData(float32(size.Width), float32(size.Height)))
	if err != nil {
		core.LogError("failed to create the sprite quad: %s", err)
		return nil, err
	}
	return &Sprite{
		device:   device,
		quad:     quad,
		texture:  texture,
		position: position,
		program:  program,
	}, nil
}

func (s *Sprite) Program() gpu.Program {
	return s.program
}

func (s *Sprite) SetProgram(p gpu.Program) {
	s.program = p
}

func (s *Sprite) Position() mgl32.Vec2 {
	return s.position
}

func (s *Sprite) Draw() {
	if s.quad == nil {
		return
	}
	s.program.Bind()
	defer s.program.Unbind()
	if err := s.device.BindTexture(0, s.texture); err != nil {
		core.LogError("failed to bind sprite texture: %s", err)
		return
	}
	s.program.SetInt("uTex", 0)
	s.program.SetVec2("uPosition", s.position)
	s.device.Draw(s.program, s.quad)
}

func (s *Sprite) Destroy() {
	if s.quad != nil {
		s.device.DestroyMesh(s.quad)
		s.quad = nil
	}
}

package ui

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

const (
	TEXT_MAX_LENGTH    = 512
	VERTICES_PER_GLYPH = 6
)

// Text is a string laid out with a Font into a screen space mesh. Position is
// in normalized device coordinates, sizes are in pixels.
type Text struct {
	device   gpu.Device
	font     *Font
	content  string
	position mgl32.Vec2
	size     float32
	color    gpu.Color
	centered bool

	computedOutputSize mgl32.Vec2
	data               *gpu.MeshData
	mesh               gpu.Mesh
}

func NewText(device gpu.Device, font *Font, content string, position mgl32.Vec2) (*Text, error) {
	if device == nil || font == nil {
		return nil, core.NewConfigurationError("text", core.ErrNilArgument, "device and font are required")
	}
	t := &Text{
		device:   device,
		font:     font,
		position: position,
		size:     1,
		color:    gpu.White,
		centered: true,
		data:     &gpu.MeshData{Layout: gpu.LayoutPU},
	}
	t.setContent(content)
	t.layout()

	mesh, err := device.CreateMesh(t.data)
	if err != nil {
		core.LogError("failed to build text mesh: %s", err)
		return nil, err
	}
	t.mesh = mesh
	return t, nil
}

func (t *Text) setContent(content string) {
	if runes := []rune(content); len(runes) > TEXT_MAX_LENGTH {
		core.LogWarn("text truncated from %d to %d characters", len(runes), TEXT_MAX_LENGTH)
		content = string(runes[:TEXT_MAX_LENGTH])
	}
	t.content = content
}

func (t *Text) SetContent(content string) {
	t.setContent(content)
	t.update()
}

func (t *Text) Content() string {
	return t.content
}

func (t *Text) SetSize(size float32) {
	t.size = size
	t.update()
}

func (t *Text) Size() float32 {
	return t.size
}

func (t *Text) SetCentered(centered bool) {
	t.centered = centered
	t.update()
}

func (t *Text) Centered() bool {
	return t.centered
}

func (t *Text) SetColor(c gpu.Color) {
	t.color = c
}

func (t *Text) Color() gpu.Color {
	return t.color
}

func (t *Text) SetPosition(position mgl32.Vec2) {
	t.position = position
}

func (t *Text) Position() mgl32.Vec2 {
	return t.position
}

// ComputedOutputSize is the pixel extent of the laid out text: the widest
// line by the line height times the number of lines.
func (t *Text) ComputedOutputSize() mgl32.Vec2 {
	return t.computedOutputSize
}

func (t *Text) VertexCount() int {
	return t.data.VertexCount()
}

func (t *Text) update() {
	t.layout()
	if t.mesh == nil {
		return
	}
	if err := t.device.UpdateMesh(t.mesh, t.data); err != nil {
		core.LogError("failed to update text mesh: %s", err)
	}
}

// glyph resolves r, substituting an empty advance for a space the font lacks.
func (t *Text) glyph(r rune) (Glyph, bool, bool) {
	if g, ok := t.font.Glyph(r); ok {
		return g, true, true
	}
	if r == ' ' {
		w := t.font.SpaceWidth()
		g := Glyph{Advance: w}
		g.Dest.Width = w
		return g, false, true
	}
	return Glyph{}, false, false
}

func (t *Text) layout() {
	lineHeight := t.font.LineHeight() * t.size
	lines := strings.Split(t.content, "\n")

	width := float32(0)
	for _, line := range lines {
		lineWidth := float32(0)
		for _, r := range line {
			if g, _, ok := t.glyph(r); ok {
				lineWidth += g.Dest.Width * t.size
			}
		}
		if lineWidth > width {
			width = lineWidth
		}
	}
	t.computedOutputSize = mgl32.Vec2{width, lineHeight * float32(len(lines))}

	startX := float32(0)
	if t.centered {
		startX = -width * 0.5
	}

	vertices := make([]float32, 0, len(t.content)*VERTICES_PER_GLYPH*5)
	y := float32(0)
	for _, line := range lines {
		x := startX
		for _, r := range line {
			g, visible, ok := t.glyph(r)
			if !ok {
				continue
			}
			if visible {
				w, h := g.Dest.Width*t.size, g.Dest.Height*t.size
				u0, v0 := g.Source.X, g.Source.Y
				u1, v1 := g.Source.X+g.Source.Width, g.Source.Y+g.Source.Height
				vertices = append(vertices,
					x, y, 0, u0, v1,
					x+w, y, 0, u1, v1,
					x+w, y+h, 0, u1, v0,
					x+w, y+h, 0, u1, v0,
					x, y+h, 0, u0, v0,
					x, y, 0, u0, v1,
				)
			}
			x += g.Advance * t.size
		}
		y -= lineHeight
	}
	t.data.Vertices = vertices
}

// Draw draws the text with the atlas bound to unit 0.
func (t *Text) Draw(program gpu.Program) {
	if t.mesh == nil || program == nil {
		return
	}
	if err := t.device.BindTexture(0, t.font.Atlas()); err != nil {
		core.LogError("failed to bind font atlas: %s", err)
		return
	}
	program.SetInt("uAtlas", 0)
	program.SetVec2("uPosition", t.position)
	program.SetVec4("uColor", t.color.Vec4())
	t.device.Draw(program, t.mesh)
	t.device.UnbindTexture(0)
}

func (t *Text) Destroy() {
	if t.mesh != nil {
		t.device.DestroyMesh(t.mesh)
		t.mesh = nil
	}
}

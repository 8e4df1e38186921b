package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/graphics"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/ui"
)

// RenderContext is handed to the world render phase. Program is the program
// of the pass being drawn.
type RenderContext struct {
	Device  gpu.Device
	Program gpu.Program
}

// Component is a behavior owned by one node. The set of variants is closed:
// MeshRender, ModelRender, SpriteRender, TextRender, ImageRender and
// ButtonRender.
type Component interface {
	Node() *Node
	Destroy()

	attach(n *Node)
}

type componentBase struct {
	node *Node
}

func (b *componentBase) Node() *Node {
	return b.node
}

func (b *componentBase) attach(n *Node) {
	b.node = n
}

func (b *componentBase) world() mgl32.Mat4 {
	if b.node == nil {
		return mgl32.Ident4()
	}
	return b.node.World()
}

// MeshRender draws a mesh with the node's world matrix as uModel.
type MeshRender struct {
	componentBase
	device   gpu.Device
	mesh     gpu.Mesh
	program  gpu.Program
	material graphics.Material
}

// NewMeshRender draws mesh with the active pass program, or with program
// when it is not nil.
func NewMeshRender(device gpu.Device, mesh gpu.Mesh, program gpu.Program) (*MeshRender, error) {
	if device == nil || mesh == nil {
		return nil, core.NewConfigurationError("mesh render", core.ErrNilArgument, "device and mesh are required")
	}
	return &MeshRender{device: device, mesh: mesh, program: program}, nil
}

func (c *MeshRender) Mesh() gpu.Mesh {
	return c.mesh
}

// SetMaterial shares material with the mesh; nil draws without one.
func (c *MeshRender) SetMaterial(material graphics.Material) *MeshRender {
	c.material = material
	return c
}

func (c *MeshRender) Material() graphics.Material {
	return c.material
}

func (c *MeshRender) render(rc RenderContext) {
	p := c.program
	if p == nil {
		p = rc.Program
	}
	if p == nil {
		return
	}
	p.SetMat4("uModel", c.world())
	graphics.ApplyMaterial(p, c.material)
	c.device.Draw(p, c.mesh)
}

func (c *MeshRender) Destroy() {
	if c.mesh != nil {
		c.device.DestroyMesh(c.mesh)
		c.mesh = nil
	}
}

// ModelRender draws a model with the active pass program.
type ModelRender struct {
	componentBase
	model *graphics.Model
}

func NewModelRender(model *graphics.Model) (*ModelRender, error) {
	if model == nil {
		return nil, core.NewConfigurationError("model render", core.ErrNilArgument, "model is required")
	}
	return &ModelRender{model: model}, nil
}

func (c *ModelRender) Model() *graphics.Model {
	return c.model
}

func (c *ModelRender) render(rc RenderContext) {
	if rc.Program == nil {
		return
	}
	c.model.Draw(rc.Program, c.world())
}

func (c *ModelRender) Destroy() {
	c.model.Destroy()
}

// SpriteRender draws a sprite with its own program.
type SpriteRender struct {
	componentBase
	sprite *graphics.Sprite
}

func NewSpriteRender(sprite *graphics.Sprite) (*SpriteRender, error) {
	if sprite == nil {
		return nil, core.NewConfigurationError("sprite render", core.ErrNilArgument, "sprite is required")
	}
	return &SpriteRender{sprite: sprite}, nil
}

func (c *SpriteRender) Sprite() *graphics.Sprite {
	return c.sprite
}

func (c *SpriteRender) render() {
	p := c.sprite.Position()
	model := c.world().Mul4(mgl32.Translate3D(p.X(), p.Y(), 0))
	prog := c.sprite.Program()
	prog.SetFloat("uAlpha", 1)
	prog.SetMat4("uModel", model)
	c.sprite.Draw()
}

func (c *SpriteRender) Destroy() {
	c.sprite.Destroy()
}

// TextRender draws text over the composited frame.
type TextRender struct {
	componentBase
	text    *ui.Text
	program gpu.Program
}

func NewTextRender(text *ui.Text, program gpu.Program) (*TextRender, error) {
	if text == nil || program == nil {
		return nil, core.NewConfigurationError("text render", core.ErrNilArgument, "text and program are required")
	}
	return &TextRender{text: text, program: program}, nil
}

func (c *TextRender) Text() *ui.Text {
	return c.text
}

func (c *TextRender) renderUI() {
	c.program.Bind()
	c.text.Draw(c.program)
	c.program.Unbind()
}

func (c *TextRender) Destroy() {
	c.text.Destroy()
}

// ImageRender draws an image over the composited frame.
type ImageRender struct {
	componentBase
	image *ui.Image
}

func NewImageRender(image *ui.Image) (*ImageRender, error) {
	if image == nil {
		return nil, core.NewConfigurationError("image render", core.ErrNilArgument, "image is required")
	}
	return &ImageRender{image: image}, nil
}

func (c *ImageRender) Image() *ui.Image {
	return c.image
}

func (c *ImageRender) renderUI() {
	c.image.Program().SetFloat("uAlpha", 1)
	c.image.Draw()
}

func (c *ImageRender) Destroy() {
	c.image.Destroy()
}

// ButtonRender updates a button's hover and click state and draws it over the
// composited frame.
type ButtonRender struct {
	componentBase
	button *ui.Button
}

func NewButtonRender(button *ui.Button) (*ButtonRender, error) {
	if button == nil {
		return nil, core.NewConfigurationError("button render", core.ErrNilArgument, "button is required")
	}
	return &ButtonRender{button: button}, nil
}

func (c *ButtonRender) Button() *ui.Button {
	return c.button
}

func (c *ButtonRender) update(float64) {
	c.button.Update()
}

func (c *ButtonRender) renderUI() {
	c.button.Draw()
}

func (c *ButtonRender) Destroy() {
	c.button.Destroy()
}

func updateComponent(c Component, delta float64) {
	switch v := c.(type) {
	case *ButtonRender:
		v.update(delta)
	}
}

func renderComponent(c Component, rc RenderContext) {
	switch v := c.(type) {
	case *MeshRender:
		v.render(rc)
	case *ModelRender:
		v.render(rc)
	case *SpriteRender:
		v.render()
	}
}

func renderUIComponent(c Component) {
	switch v := c.(type) {
	case *TextRender:
		v.renderUI()
	case *ImageRender:
		v.renderUI()
	case *ButtonRender:
		v.renderUI()
	}
}

package ui

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

const BUTTON_PADDING float32 = 4

// Viewport reports the pixel size buttons are hit tested against.
type Viewport interface {
	Size() gpu.Size
}

// Pointer is the slice of input a button reads.
type Pointer interface {
	NormalizedMousePosition(width, height int) (float32, float32)
	IsButtonPressed(button core.Button) bool
}

type buttonFace interface {
	draw(hovered bool)
	destroy()
}

// Button is a clickable screen space rectangle, faced either with text on a
// background quad or with an image. Position is the center in normalized
// device coordinates and size the half extent in the same space.
type Button struct {
	position mgl32.Vec2
	size     mgl32.Vec2
	pointer  Pointer
	viewport Viewport
	face     buttonFace

	hovered   bool
	clicked   bool
	callbacks []func()
}

type textFace struct {
	device      gpu.Device
	text        *Text
	back        gpu.Mesh
	position    mgl32.Vec2
	color       gpu.Color
	hoverColor  gpu.Color
	textProgram gpu.Program
	uiProgram   gpu.Program
}

func (f *textFace) draw(hovered bool) {
	color := f.color
	if hovered {
		color = f.hoverColor
	}
	f.uiProgram.Bind()
	f.uiProgram.SetInt("uTextured", 0)
	f.uiProgram.SetVec4("uColor", color.Vec4())
	f.uiProgram.SetVec2("uPosition", f.position)
	f.device.Draw(f.uiProgram, f.back)
	f.uiProgram.Unbind()

	f.textProgram.Bind()
	f.text.Draw(f.textProgram)
	f.textProgram.Unbind()
}

func (f *textFace) destroy() {
	f.text.Destroy()
	f.device.DestroyMesh(f.back)
}

type imageFace struct {
	image *Image
}

func (f *imageFace) draw(hovered bool) {
	alpha := float32(1)
	if hovered {
		alpha = 0.8
	}
	f.image.Program().SetFloat("uAlpha", alpha)
	f.image.Draw()
}

func (f *imageFace) destroy() {
	f.image.Destroy()
}

// NewTextButton lays content out with font and puts a padded background
// behind it. The button sits above position by half its height.
func NewTextButton(device gpu.Device, font *Font, content string, position mgl32.Vec2, textProgram, uiProgram gpu.Program, pointer Pointer, viewport Viewport) (*Button, error) {
	if textProgram == nil || uiProgram == nil || pointer == nil || viewport == nil {
		return nil, core.NewConfigurationError("button", core.ErrNilArgument, "programs, pointer and viewport are required")
	}
	text, err := NewText(device, font, content, position)
	if err != nil {
		return nil, err
	}

	vp := viewport.Size()
	textSize := text.ComputedOutputSize().Add(mgl32.Vec2{2 * BUTTON_PADDING, 2 * BUTTON_PADDING})
	size := mgl32.Vec2{textSize.X() / float32(vp.Width), textSize.Y() / float32(vp.Height)}
	center := position.Add(mgl32.Vec2{0, size.Y() * 0.5})

	back, err := device.CreateMesh(gpu.QuadData(textSize.X(), textSize.Y()))
	if err != nil {
		text.Destroy()
		core.LogError("failed to create the button background: %s", err)
		return nil, err
	}

	return &Button{
		position: center,
		size:     size,
		pointer:  pointer,
		viewport: viewport,
		face: &textFace{
			device:      device,
			text:        text,
			back:        back,
			position:    center,
			color:       gpu.Black,
			hoverColor:  gpu.Color{A: 0.5},
			textProgram: textProgram,
			uiProgram:   uiProgram,
		},
	}, nil
}

// NewImageButton faces the button with texture, sized to the texture.
func NewImageButton(device gpu.Device, texture gpu.Texture, position mgl32.Vec2, program gpu.Program, pointer Pointer, viewport Viewport) (*Button, error) {
	if pointer == nil || viewport == nil {
		return nil, core.NewConfigurationError("button", core.ErrNilArgument, "pointer and viewport are required")
	}
	image, err := NewImage(device, texture, position, program)
	if err != nil {
		return nil, err
	}
	vp := viewport.Size()
	ts := texture.Size()
	return &Button{
		position: position,
		size:     mgl32.Vec2{float32(ts.Width) / float32(vp.Width), float32(ts.Height) / float32(vp.Height)},
		pointer:  pointer,
		viewport: viewport,
		face:     &imageFace{image: image},
	}, nil
}

// OnClick registers fn to run each frame the left button is pressed over the
// button.
func (b *Button) OnClick(fn func()) *Button {
	if fn != nil {
		b.callbacks = append(b.callbacks, fn)
	}
	return b
}

// Update refreshes the hover and click state from the pointer.
func (b *Button) Update() {
	b.hovered = false
	b.clicked = false

	vp := b.viewport.Size()
	x, y := b.pointer.NormalizedMousePosition(vp.Width, vp.Height)
	if x <= b.position.X()-b.size.X() || x >= b.position.X()+b.size.X() ||
		y <= b.position.Y()-b.size.Y() || y >= b.position.Y()+b.size.Y() {
		return
	}
	b.hovered = true
	if b.pointer.IsButtonPressed(core.BUTTON_LEFT) {
		b.clicked = true
		for _, fn := range b.callbacks {
			fn()
		}
	}
}

func (b *Button) Hovered() bool {
	return b.hovered
}

// Clicked reports whether the last Update registered a click.
func (b *Button) Clicked() bool {
	return b.clicked
}

func (b *Button) Position() mgl32.Vec2 {
	return b.position
}

func (b *Button) Size() mgl32.Vec2 {
	return b.size
}

func (b *Button) Draw() {
	b.face.draw(b.hovered)
}

func (b *Button) Destroy() {
	b.face.destroy()
}

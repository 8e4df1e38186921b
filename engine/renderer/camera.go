package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	emath "github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

const (
	NEAR_PLANE float32 = 0.01
	FAR_PLANE  float32 = 1000
)

// Camera provides the view and projection matrices published to every program.
type Camera interface {
	// Resize recomputes the projection for a viewport size.
	Resize(size gpu.Size)
	// Update advances time based controllers.
	Update(delta float32)
	View() mgl32.Mat4
	Projection() mgl32.Mat4
	AspectRatio() float32
	Position() mgl32.Vec3
}

// CursorController toggles whether the cursor is captured by the window.
type CursorController interface {
	CursorCaptured() bool
	SetCursorCaptured(captured bool)
}

// lens holds the state shared by every camera kind.
type lens struct {
	position   mgl32.Vec3
	size       gpu.Size
	view       mgl32.Mat4
	projection mgl32.Mat4
	isDirty    bool
}

func (l *lens) AspectRatio() float32 {
	return l.size.AspectRatio()
}

func (l *lens) Position() mgl32.Vec3 {
	return l.position
}

func (l *lens) SetPosition(position mgl32.Vec3) {
	l.position = position
	l.isDirty = true
}

func (l *lens) Move(translation mgl32.Vec3) {
	l.position = l.position.Add(translation)
	l.isDirty = true
}

// Camera2D is an orthographic camera centered on its position, one unit per pixel.
type Camera2D struct {
	lens
}

func NewCamera2D(size gpu.Size) *Camera2D {
	c := &Camera2D{}
	c.view = mgl32.Ident4()
	c.Resize(size)
	return c
}

func (c *Camera2D) Resize(size gpu.Size) {
	c.size = size
	w, h := float32(size.Width)*0.5, float32(size.Height)*0.5
	c.projection = mgl32.Ortho2D(-w, w, -h, h)
	c.isDirty = true
}

func (c *Camera2D) Update(delta float32) {}

func (c *Camera2D) View() mgl32.Mat4 {
	if c.isDirty {
		c.view = mgl32.Translate3D(c.position.X(), c.position.Y(), c.position.Z())
		c.isDirty = false
	}
	return c.view
}

func (c *Camera2D) Projection() mgl32.Mat4 {
	return c.projection
}

// Camera3D is a perspective camera looking along its forward vector.
type Camera3D struct {
	lens
	fov     float32
	forward mgl32.Vec3
	up      mgl32.Vec3
}

func NewCamera3D(size gpu.Size, fov float32) *Camera3D {
	c := &Camera3D{
		fov:     fov,
		forward: mgl32.Vec3{0, 0, -1},
		up:      mgl32.Vec3{0, 1, 0},
	}
	c.position = mgl32.Vec3{0, 0, 6}
	c.Resize(size)
	return c
}

func (c *Camera3D) Resize(size gpu.Size) {
	c.size = size
	c.projection = mgl32.Perspective(mgl32.DegToRad(c.fov), c.AspectRatio(), NEAR_PLANE, FAR_PLANE)
	c.isDirty = true
}

func (c *Camera3D) Update(delta float32) {}

func (c *Camera3D) View() mgl32.Mat4 {
	if c.isDirty {
		c.view = mgl32.LookAtV(c.position, c.position.Add(c.forward), c.up)
		c.isDirty = false
	}
	return c.view
}

func (c *Camera3D) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *Camera3D) Forward() mgl32.Vec3 {
	return c.forward
}

func (c *Camera3D) FOV() float32 {
	return c.fov
}

// LookAt points the camera at a world position.
func (c *Camera3D) LookAt(target mgl32.Vec3) {
	dir := target.Sub(c.position)
	if dir.Len() == 0 {
		return
	}
	c.forward = dir.Normalize()
	c.isDirty = true
}

const (
	flySpeed       float32 = 25
	flySensitivity float32 = 0.1
	flyPitchLimit  float32 = 89
)

// FlyCamera moves with WASD, Space and LeftShift and looks around with the
// mouse while the cursor is captured. LeftCtrl toggles the capture.
type FlyCamera struct {
	*Camera3D
	input  *core.Input
	cursor CursorController

	yaw, pitch float32
	captured   bool
}

func NewFlyCamera(size gpu.Size, fov float32, input *core.Input, cursor CursorController) *FlyCamera {
	c := &FlyCamera{
		Camera3D: NewCamera3D(size, fov),
		input:    input,
		cursor:   cursor,
		yaw:      -90,
	}
	c.Update(0)
	return c
}

func (c *FlyCamera) Captured() bool {
	if c.cursor != nil {
		return c.cursor.CursorCaptured()
	}
	return c.captured
}

func (c *FlyCamera) setCaptured(captured bool) {
	if c.cursor != nil {
		c.cursor.SetCursorCaptured(captured)
	}
	c.captured = captured
}

func (c *FlyCamera) Update(delta float32) {
	if c.input != nil {
		speed := flySpeed * delta
		fw := c.forward.Mul(speed)
		right := c.forward.Cross(c.up).Normalize().Mul(speed)
		up := c.up.Mul(speed)

		if c.input.IsKeyDown(core.KEY_W) {
			c.Move(fw)
		}
		if c.input.IsKeyDown(core.KEY_S) {
			c.Move(fw.Mul(-1))
		}
		if c.input.IsKeyDown(core.KEY_A) {
			c.Move(right.Mul(-1))
		}
		if c.input.IsKeyDown(core.KEY_D) {
			c.Move(right)
		}
		if c.input.IsKeyDown(core.KEY_SPACE) {
			c.Move(up)
		}
		if c.input.IsKeyDown(core.KEY_LSHIFT) {
			c.Move(up.Mul(-1))
		}
		if c.input.IsKeyPressed(core.KEY_LCONTROL) {
			c.setCaptured(!c.Captured())
		}

	}

	if c.Captured() {
		if c.input != nil {
			dx, dy := c.input.MouseDelta()
			c.yaw += float32(dx) * flySensitivity
			c.pitch -= float32(dy) * flySensitivity
			c.pitch = emath.Clamp(c.pitch, -flyPitchLimit, flyPitchLimit)
		}
		yaw, pitch := float64(mgl32.DegToRad(c.yaw)), float64(mgl32.DegToRad(c.pitch))
		dir := mgl32.Vec3{
			float32(math.Cos(yaw) * math.Cos(pitch)),
			float32(math.Sin(pitch)),
			float32(math.Sin(yaw) * math.Cos(pitch)),
		}
		c.forward = dir.Normalize()
		c.isDirty = true
	}
}

func (c *FlyCamera) YawPitch() (float32, float32) {
	return c.yaw, c.pitch
}

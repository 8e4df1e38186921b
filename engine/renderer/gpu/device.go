package gpu

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Size is a pixel extent.
type Size struct {
	Width  int
	Height int
}

func (s Size) AspectRatio() float32 {
	if s.Height == 0 {
		return 1
	}
	return float32(s.Width) / float32(s.Height)
}

func (s Size) Vec2() mgl32.Vec2 {
	return mgl32.Vec2{float32(s.Width), float32(s.Height)}
}

type Color struct {
	R, G, B, A float32
}

var (
	Transparent = Color{}
	Black       = Color{A: 1}
	White       = Color{R: 1, G: 1, B: 1, A: 1}
)

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

type ClearFlags uint8

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

// Texture is anything that can be bound to a sampler unit.
type Texture interface {
	Size() Size
}

// Surface is the storage behind one attachment. Resizing reallocates the
// storage and keeps the Surface value.
type Surface interface {
	Texture
	Spec() AttachmentSpec
}

type Framebuffer interface {
	Size() Size
	Surfaces() []Surface
}

type Mesh interface {
	VertexCount() int
}

type UniformType uint8

const (
	UniformInt UniformType = iota
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat4
)

type UniformDecl struct {
	Name string
	Type UniformType
}

// ProgramSource carries what a backend needs to build a program. Stages hold
// SPIR-V for the Vulkan backend and are ignored by the headless one.
type ProgramSource struct {
	Name     string
	Vertex   []byte
	Fragment []byte
	Uniforms []UniformDecl
	// Layout of the meshes drawn with this program.
	Layout []VertexAttribute
}

// Program is a linked shader program. Setting a uniform that the program does
// not declare is a no-op.
type Program interface {
	Name() string
	Bind()
	Unbind()
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec2(name string, v mgl32.Vec2)
	SetVec3(name string, v mgl32.Vec3)
	SetVec4(name string, v mgl32.Vec4)
	SetMat4(name string, v mgl32.Mat4)
}

// Unwrap returns the backend program behind handles that wrap one.
func Unwrap(p Program) Program {
	for {
		h, ok := p.(interface{ Program() Program })
		if !ok {
			return p
		}
		p = h.Program()
	}
}

// Device is the graphics backend used by the renderer. All calls happen on the
// render thread.
type Device interface {
	CreateSurface(spec AttachmentSpec, size Size) (Surface, error)
	ResizeSurface(s Surface, size Size) error
	DestroySurface(s Surface)

	// CreateFramebuffer validates completeness and returns a BackendError
	// wrapping ErrIncompleteTarget or ErrUnsupportedFormat on failure.
	CreateFramebuffer(surfaces []Surface) (Framebuffer, error)
	// RebuildFramebuffer revalidates a framebuffer after its surfaces were resized.
	RebuildFramebuffer(fb Framebuffer) error
	DestroyFramebuffer(fb Framebuffer)
	// BindFramebuffer sets the draw destination; nil selects the window.
	BindFramebuffer(fb Framebuffer)

	SetClearColor(c Color)
	ClearColor() Color
	Clear(flags ClearFlags)
	SetDepthTest(enabled bool)
	SetBlend(enabled bool)

	BindTexture(unit int, t Texture) error
	UnbindTexture(unit int)
	MaxTextureUnits() int

	CreateTexture(img image.Image) (Texture, error)
	DestroyTexture(t Texture)

	CreateMesh(data *MeshData) (Mesh, error)
	UpdateMesh(m Mesh, data *MeshData) error
	DestroyMesh(m Mesh)

	CreateProgram(src ProgramSource) (Program, error)
	DestroyProgram(p Program)
	Draw(p Program, m Mesh)

	BeginFrame() error
	EndFrame() error
	// Resize reacts to a window size change.
	Resize(size Size)
	Destroy()
}

// Prepare applies the per-target state used at the start of drawing into the
// bound framebuffer. Depth targets test depth without blending and clear every
// buffer; other targets blend and keep the depth buffer.
func Prepare(dev Device, clearDepth bool) {
	if clearDepth {
		dev.SetDepthTest(true)
		dev.SetBlend(false)
		dev.Clear(ClearColor | ClearDepth | ClearStencil)
		return
	}
	dev.SetBlend(true)
	dev.SetDepthTest(false)
	dev.Clear(ClearColor | ClearStencil)
}

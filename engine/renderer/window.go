package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Window is the presentation surface the pipeline draws its final frame to.
type Window interface {
	Size() gpu.Size
	// OnResize registers fn to be called synchronously with the new size
	// whenever the framebuffer is resized.
	OnResize(fn func(size gpu.Size))
	// BeginFrame prepares the window target for drawing.
	BeginFrame(clearDepth bool)
	// EndFrame presents the frame and polls input.
	EndFrame()
	ShouldClose() bool
	Destroy()
}

// EventPoller is implemented by windows that can pump OS events without
// presenting, for frames the device could not start.
type EventPoller interface {
	PollEvents()
}

// ShaderRegistry hands out programs by name and broadcasts global uniforms
// to every program it knows.
type ShaderRegistry interface {
	Get(name string) gpu.Program
	SetInt(name string, v int32)
	SetFloat(name string, v float32)
	SetVec2(name string, v mgl32.Vec2)
	SetVec3(name string, v mgl32.Vec3)
	SetVec4(name string, v mgl32.Vec4)
	SetMat4(name string, v mgl32.Mat4)
	DestroyAll()
}

package headless

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

type Surface struct {
	ID   uuid.UUID
	spec gpu.AttachmentSpec
	size gpu.Size
	// Generation counts reallocations of the backing storage.
	Generation int
	Destroyed  bool
}

func (s *Surface) Spec() gpu.AttachmentSpec { return s.spec }
func (s *Surface) Size() gpu.Size           { return s.size }

type Framebuffer struct {
	ID       uuid.UUID
	surfaces []gpu.Surface
	size     gpu.Size
	// generations holds the storage generation of each surface at the last build.
	generations []int
	Rebuilds    int
	Destroyed   bool
}

func (f *Framebuffer) Size() gpu.Size          { return f.size }
func (f *Framebuffer) Surfaces() []gpu.Surface { return f.surfaces }

func (f *Framebuffer) attach() {
	f.size = f.surfaces[0].Size()
	f.generations = f.generations[:0]
	for _, s := range f.surfaces {
		g := 0
		if hs, ok := s.(*Surface); ok {
			g = hs.Generation
		}
		f.generations = append(f.generations, g)
	}
}

// Stale reports whether a surface was reallocated after the framebuffer was
// last built, leaving it pointing at freed storage.
func (f *Framebuffer) Stale() bool {
	for i, s := range f.surfaces {
		if hs, ok := s.(*Surface); ok && hs.Generation != f.generations[i] {
			return true
		}
	}
	return false
}

type Texture struct {
	ID        uuid.UUID
	Image     image.Image
	size      gpu.Size
	Destroyed bool
}

func (t *Texture) Size() gpu.Size { return t.size }

type Mesh struct {
	ID        uuid.UUID
	Data      *gpu.MeshData
	Destroyed bool
}

func (m *Mesh) VertexCount() int { return m.Data.DrawCount() }

// Program records the last value written to each uniform. When the source
// declares uniforms, writes to undeclared names are dropped.
type Program struct {
	ID        uuid.UUID
	name      string
	declared  map[string]gpu.UniformType
	Uniforms  map[string]interface{}
	Bound     bool
	Destroyed bool
	Source    gpu.ProgramSource
}

func newProgram(src gpu.ProgramSource) *Program {
	p := &Program{
		ID:       uuid.New(),
		name:     src.Name,
		Uniforms: make(map[string]interface{}),
		Source:   src,
	}
	if len(src.Uniforms) > 0 {
		p.declared = make(map[string]gpu.UniformType, len(src.Uniforms))
		for _, u := range src.Uniforms {
			p.declared[u.Name] = u.Type
		}
	}
	return p
}

func (p *Program) Name() string { return p.name }
func (p *Program) Bind()        { p.Bound = true }
func (p *Program) Unbind()      { p.Bound = false }

func (p *Program) set(name string, t gpu.UniformType, v interface{}) {
	if p.declared != nil {
		if dt, ok := p.declared[name]; !ok || dt != t {
			return
		}
	}
	p.Uniforms[name] = v
}

func (p *Program) SetInt(name string, v int32)       { p.set(name, gpu.UniformInt, v) }
func (p *Program) SetFloat(name string, v float32)   { p.set(name, gpu.UniformFloat, v) }
func (p *Program) SetVec2(name string, v mgl32.Vec2) { p.set(name, gpu.UniformVec2, v) }
func (p *Program) SetVec3(name string, v mgl32.Vec3) { p.set(name, gpu.UniformVec3, v) }
func (p *Program) SetVec4(name string, v mgl32.Vec4) { p.set(name, gpu.UniformVec4, v) }
func (p *Program) SetMat4(name string, v mgl32.Mat4) { p.set(name, gpu.UniformMat4, v) }

// Int returns a recorded int uniform.
func (p *Program) Int(name string) (int32, bool) {
	v, ok := p.Uniforms[name].(int32)
	return v, ok
}

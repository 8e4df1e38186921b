package vulkan

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/google/uuid"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

type uniformSlot struct {
	offset int
	typ    gpu.UniformType
}

// std140Layout places the uniforms of a program in one uniform block in
// declaration order and returns the slots and the block size.
func std140Layout(decls []gpu.UniformDecl) (map[string]uniformSlot, int) {
	slots := make(map[string]uniformSlot, len(decls))
	offset := 0
	for _, d := range decls {
		if _, dup := slots[d.Name]; dup {
			continue
		}
		size, align := std140Size(d.Type)
		offset = alignUp(offset, align)
		slots[d.Name] = uniformSlot{offset: offset, typ: d.Type}
		offset += size
	}
	return slots, alignUp(offset, 16)
}

func std140Size(t gpu.UniformType) (size, align int) {
	switch t {
	case gpu.UniformVec2:
		return 8, 8
	case gpu.UniformVec3:
		return 12, 16
	case gpu.UniformVec4:
		return 16, 16
	case gpu.UniformMat4:
		return 64, 16
	}
	return 4, 4
}

func alignUp(v, align int) int {
	if align <= 1 {
		return v
	}
	return (v + align - 1) / align * align
}

// bytesToBytecode packs little endian SPIR-V bytes into words.
func bytesToBytecode(b []byte) []uint32 {
	words := make([]uint32, (len(b)+3)/4)
	for i := range words {
		var w [4]byte
		copy(w[:], b[i*4:])
		words[i] = binary.LittleEndian.Uint32(w[:])
	}
	return words
}

func createShaderModule(ctx *Context, code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return vk.NullShaderModule, core.NewBackendError("create shader module", fmt.Errorf("%d bytes is not SPIR-V", len(code)))
	}
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    bytesToBytecode(code),
	}
	var module vk.ShaderModule
	if err := check("create shader module", vk.CreateShaderModule(ctx.Device.LogicalDevice, &info, ctx.Allocator, &module)); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}

// Program is a vertex/fragment module pair with a CPU copy of its uniform
// block. Pipelines are created lazily per render pass and state.
type Program struct {
	ID       uuid.UUID
	name     string
	vertex   vk.ShaderModule
	fragment vk.ShaderModule
	layout   []gpu.VertexAttribute

	slots map[string]uniformSlot
	block []byte

	pipelines map[pipelineKey]*Pipeline
	bound     bool
	destroyed bool
}

// newProgramState builds everything but the shader modules.
func newProgramState(src gpu.ProgramSource) *Program {
	slots, size := std140Layout(src.Uniforms)
	if size < MIN_UNIFORM_BLOCK {
		size = MIN_UNIFORM_BLOCK
	}
	return &Program{
		ID:        uuid.New(),
		name:      src.Name,
		layout:    append([]gpu.VertexAttribute(nil), src.Layout...),
		slots:     slots,
		block:     make([]byte, size),
		pipelines: make(map[pipelineKey]*Pipeline),
	}
}

func (p *Program) Name() string { return p.name }
func (p *Program) Bind()        { p.bound = true }
func (p *Program) Unbind()      { p.bound = false }

func (p *Program) slot(name string, t gpu.UniformType) (int, bool) {
	s, ok := p.slots[name]
	if !ok || s.typ != t {
		return 0, false
	}
	return s.offset, true
}

func (p *Program) putFloats(offset int, v ...float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(p.block[offset+i*4:], math.Float32bits(f))
	}
}

func (p *Program) SetInt(name string, v int32) {
	if off, ok := p.slot(name, gpu.UniformInt); ok {
		binary.LittleEndian.PutUint32(p.block[off:], uint32(v))
	}
}

func (p *Program) SetFloat(name string, v float32) {
	if off, ok := p.slot(name, gpu.UniformFloat); ok {
		p.putFloats(off, v)
	}
}

func (p *Program) SetVec2(name string, v mgl32.Vec2) {
	if off, ok := p.slot(name, gpu.UniformVec2); ok {
		p.putFloats(off, v[:]...)
	}
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	if off, ok := p.slot(name, gpu.UniformVec3); ok {
		p.putFloats(off, v[:]...)
	}
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	if off, ok := p.slot(name, gpu.UniformVec4); ok {
		p.putFloats(off, v[:]...)
	}
}

// SetMat4 stores the matrix column major, which is the std140 mat4 layout.
func (p *Program) SetMat4(name string, v mgl32.Mat4) {
	if off, ok := p.slot(name, gpu.UniformMat4); ok {
		p.putFloats(off, v[:]...)
	}
}

func (p *Program) destroy(ctx *Context) {
	for key, pipeline := range p.pipelines {
		pipeline.Destroy(ctx)
		delete(p.pipelines, key)
	}
	if p.vertex != vk.NullShaderModule {
		vk.DestroyShaderModule(ctx.Device.LogicalDevice, p.vertex, ctx.Allocator)
		p.vertex = vk.NullShaderModule
	}
	if p.fragment != vk.NullShaderModule {
		vk.DestroyShaderModule(ctx.Device.LogicalDevice, p.fragment, ctx.Allocator)
		p.fragment = vk.NullShaderModule
	}
	p.destroyed = true
}

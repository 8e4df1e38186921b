package graphics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Model is a set of meshes drawn with the textures bound to uTex0..uTexN.
// It owns its meshes; textures and materials are shared.
type Model struct {
	device    gpu.Device
	meshes    []gpu.Mesh
	materials []Material
	textures  []gpu.Texture
	position  mgl32.Vec3
	model     mgl32.Mat4
}

func NewModel(device gpu.Device, meshes []gpu.Mesh, textures []gpu.Texture) (*Model, error) {
	if device == nil {
		return nil, core.NewConfigurationError("model", core.ErrNilArgument, "device is required")
	}
	if len(meshes) == 0 {
		return nil, core.NewConfigurationError("model", core.ErrNilArgument, "a model needs at least one mesh")
	}
	return &Model{
		device:    device,
		meshes:    meshes,
		materials: make([]Material, len(meshes)),
		textures:  textures,
		model:     mgl32.Ident4(),
	}, nil
}

// NewModelFromData uploads the mesh data and builds a model from it.
func NewModelFromData(device gpu.Device, data []*gpu.MeshData, textures []gpu.Texture) (*Model, error) {
	meshes := make([]gpu.Mesh, 0, len(data))
	for _, d := range data {
		m, err := device.CreateMesh(d)
		if err != nil {
			for _, created := range meshes {
				device.DestroyMesh(created)
			}
			return nil, err
		}
		meshes = append(meshes, m)
	}
	return NewModel(device, meshes, textures)
}

func (m *Model) SetPosition(position mgl32.Vec3) {
	m.position = position
	m.model = mgl32.Translate3D(position.X(), position.Y(), position.Z())
}

func (m *Model) Position() mgl32.Vec3 {
	return m.position
}

func (m *Model) Meshes() []gpu.Mesh {
	return m.meshes
}

// SetMaterial sets the material of the i-th mesh; nil clears it.
func (m *Model) SetMaterial(i int, material Material) error {
	if i < 0 || i >= len(m.meshes) {
		return core.NewConfigurationError("model material", core.ErrNotFound, "mesh %d of %d", i, len(m.meshes))
	}
	m.materials[i] = material
	return nil
}

func (m *Model) Material(i int) Material {
	if i < 0 || i >= len(m.materials) {
		return nil
	}
	return m.materials[i]
}

// Draw draws every mesh with program. parent is the world matrix of the owner.
// The texture units are released again once the meshes are drawn.
func (m *Model) Draw(program gpu.Program, parent mgl32.Mat4) {
	bound := 0
	for i, tex := range m.textures {
		if err := m.device.BindTexture(i, tex); err != nil {
			core.LogError("failed to bind model texture %d: %s", i, err)
			break
		}
		program.SetInt(fmt.Sprintf("uTex%d", i), int32(i))
		bound++
	}
	program.SetMat4("uModel", parent.Mul4(m.model))
	for i, mesh := range m.meshes {
		ApplyMaterial(program, m.materials[i])
		m.device.Draw(program, mesh)
	}
	for i := 0; i < bound; i++ {
		m.device.UnbindTexture(i)
	}
}

func (m *Model) Destroy() {
	for _, mesh := range m.meshes {
		m.device.DestroyMesh(mesh)
	}
	m.meshes = nil
}

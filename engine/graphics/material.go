package graphics

import (
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Material kinds understood by the main shader. activeMaterial selects one.
const (
	MATERIAL_NONE  int32 = 0
	MATERIAL_COLOR int32 = 1

	UNIFORM_ACTIVE_MATERIAL = "activeMaterial"
	UNIFORM_MATERIAL_COLOR  = "uMaterialColor"
)

// Material writes the surface parameters of a mesh before it is drawn.
type Material interface {
	Apply(program gpu.Program)
}

// ColorMaterial shades a mesh with a flat diffuse color.
type ColorMaterial struct {
	Color gpu.Color
}

func NewColorMaterial(c gpu.Color) *ColorMaterial {
	return &ColorMaterial{Color: c}
}

func (m *ColorMaterial) Apply(program gpu.Program) {
	program.SetVec4(UNIFORM_MATERIAL_COLOR, m.Color.Vec4())
	program.SetInt(UNIFORM_ACTIVE_MATERIAL, MATERIAL_COLOR)
}

func (m *ColorMaterial) String() string {
	return "ColorMaterial"
}

// ApplyMaterial applies m. A nil material selects MATERIAL_NONE.
func ApplyMaterial(program gpu.Program, m Material) {
	if m == nil {
		program.SetInt(UNIFORM_ACTIVE_MATERIAL, MATERIAL_NONE)
		return
	}
	m.Apply(program)
}

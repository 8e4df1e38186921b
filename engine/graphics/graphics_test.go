package graphics

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/renderer/headless"
)

func writeImage(t *testing.T, name string, encode func(f *os.File, img image.Image) error) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestLoadTextureDecodesPNGAndBMP(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})

	pngPath := writeImage(t, "a.png", func(f *os.File, img image.Image) error { return png.Encode(f, img) })
	bmpPath := writeImage(t, "a.bmp", func(f *os.File, img image.Image) error { return bmp.Encode(f, img) })

	for _, p := range []string{pngPath, bmpPath} {
		tex, err := LoadTexture(d, p)
		require.NoError(t, err, p)
		assert.Equal(t, gpu.Size{Width: 4, Height: 2}, tex.Size())
		r, _, _, a := tex.(*headless.Texture).Image.At(1, 1).RGBA()
		assert.Equal(t, uint32(0xffff), r)
		assert.Equal(t, uint32(0xffff), a)
	}

	_, err := LoadTexture(d, filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestModelDrawBindsTexturesAndModelMatrix(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	tex, err := d.CreateTexture(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	m, err := NewModelFromData(d, []*gpu.MeshData{gpu.QuadData(1, 1), gpu.QuadData(2, 2)}, []gpu.Texture{tex, tex})
	require.NoError(t, err)
	m.SetPosition(mgl32.Vec3{1, 2, 3})

	prog, _ := d.CreateProgram(gpu.ProgramSource{Name: "mainShader"})
	m.Draw(prog, mgl32.Ident4())

	hp := prog.(*headless.Program)
	assert.Equal(t, int32(0), hp.Uniforms["uTex0"])
	assert.Equal(t, int32(1), hp.Uniforms["uTex1"])
	assert.Equal(t, mgl32.Translate3D(1, 2, 3), hp.Uniforms["uModel"])
	assert.Len(t, d.Draws(), 2)
	assert.Empty(t, d.Units(), "model textures are released after drawing")

	m.Destroy()
	_, _, _, meshes, _ := d.Live()
	assert.Zero(t, meshes)
}

func TestModelAppliesMaterialPerMesh(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	m, err := NewModelFromData(d, []*gpu.MeshData{gpu.QuadData(1, 1), gpu.QuadData(2, 2)}, nil)
	require.NoError(t, err)
	red := gpu.Color{R: 1, A: 1}
	require.NoError(t, m.SetMaterial(0, NewColorMaterial(red)))
	assert.Error(t, m.SetMaterial(2, NewColorMaterial(red)))
	assert.Nil(t, m.Material(1))

	prog, _ := d.CreateProgram(gpu.ProgramSource{Name: "mainShader"})
	m.Draw(prog, mgl32.Ident4())

	draws := d.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, MATERIAL_COLOR, draws[0].Uniforms[UNIFORM_ACTIVE_MATERIAL])
	assert.Equal(t, red.Vec4(), draws[0].Uniforms[UNIFORM_MATERIAL_COLOR])
	assert.Equal(t, MATERIAL_NONE, draws[1].Uniforms[UNIFORM_ACTIVE_MATERIAL])
}

func TestModelTextureBindFailureReleasesUnits(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	d.SetMaxTextureUnits(1)
	tex, err := d.CreateTexture(image.NewRGBA(image.Rect(0, 0, 2, 2)))
	require.NoError(t, err)
	m, err := NewModelFromData(d, []*gpu.MeshData{gpu.QuadData(1, 1)}, []gpu.Texture{tex, tex})
	require.NoError(t, err)

	prog, _ := d.CreateProgram(gpu.ProgramSource{Name: "mainShader"})
	m.Draw(prog, mgl32.Ident4())

	_, ok := prog.(*headless.Program).Uniforms["uTex1"]
	assert.False(t, ok)
	assert.Empty(t, d.Units())
	assert.Len(t, d.Draws(), 1)
}

func TestSpriteDraw(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	tex, _ := d.CreateTexture(image.NewRGBA(image.Rect(0, 0, 16, 8)))
	prog, _ := d.CreateProgram(gpu.ProgramSource{Name: "sprite"})

	s, err := NewSprite(d, tex, mgl32.Vec2{3, 4}, prog)
	require.NoError(t, err)
	s.Draw()

	draws := d.Draws()
	require.Len(t, draws, 1)
	assert.Equal(t, "sprite", draws[0].Program)
	assert.Equal(t, float32(8), draws[0].Mesh.Data.Vertices[8])
	assert.Equal(t, mgl32.Vec2{3, 4}, prog.(*headless.Program).Uniforms["uPosition"])

	_, err = NewSprite(d, nil, mgl32.Vec2{}, prog)
	assert.Error(t, err)
}

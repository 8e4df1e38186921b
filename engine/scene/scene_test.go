package scene

import (
	"bytes"
	"image"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/graphics"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/renderer/headless"
	"github.com/spaghettifunk/tessera/engine/ui"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev := core.Logger()
	core.SetLogger(core.NewLogger(core.LogConfig{Level: "debug", Output: buf}))
	t.Cleanup(func() { core.SetLogger(prev) })
	return buf
}

func names(root *Node) []string {
	var out []string
	Walk(root, func(n *Node) bool {
		out = append(out, n.Name())
		return n.Active()
	})
	return out
}

func TestWalkIsBreadthFirst(t *testing.T) {
	s := New("walk")
	a, b := NewNode("A"), NewNode("B")
	require.NoError(t, s.AddNode("", a))
	require.NoError(t, s.AddNode("", b))
	require.NoError(t, s.AddNode("A", NewNode("A1")))
	require.NoError(t, s.AddNode("B", NewNode("B1")))
	require.NoError(t, s.AddNode("A/A1", NewNode("A2")))

	assert.Equal(t, []string{"root", "A", "B", "A1", "B1", "A2"}, names(s.Root()))
}

func TestInactiveNodePrunesDescendants(t *testing.T) {
	s := New("prune")
	a := NewNode("A")
	require.NoError(t, s.AddNode("", a))
	require.NoError(t, s.AddNode("A", NewNode("B")))
	require.NoError(t, s.AddNode("A/B", NewNode("C")))
	a.SetActive(false)

	assert.Equal(t, []string{"root", "A"}, names(s.Root()))

	// structural lookup still reaches the pruned subtree
	assert.NotNil(t, s.Node("A/B/C"))
}

func TestInactiveNodeStillRendersItself(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	prog, _ := d.CreateProgram(gpu.ProgramSource{Name: "mainShader"})
	s := New("render")

	meshOf := func(n *Node) gpu.Mesh {
		m, err := d.CreateMesh(gpu.QuadData(1, 1))
		require.NoError(t, err)
		c, err := NewMeshRender(d, m, nil)
		require.NoError(t, err)
		n.AddComponent(c)
		return m
	}
	parent, child := NewNode("parent"), NewNode("child")
	parentMesh := meshOf(parent)
	meshOf(child)
	require.NoError(t, parent.AddChild(child))
	require.NoError(t, s.AddNode("", parent))
	parent.SetActive(false)

	s.Render(RenderContext{Device: d, Program: prog})

	draws := d.Draws()
	require.Len(t, draws, 1)
	assert.Same(t, parentMesh, gpu.Mesh(draws[0].Mesh))
}

func TestNodePaths(t *testing.T) {
	s := New("paths")
	assert.Nil(t, s.Node("Z"))
	assert.Same(t, s.Root(), s.Node(""))

	require.NoError(t, s.AddNode("", NewNode("A")))
	b := NewNode("B")
	require.NoError(t, s.AddNode("A", b))

	assert.Same(t, b, s.Node("A/B"))
	assert.Same(t, b, s.Node("/A//B/"))
	assert.Nil(t, s.Node("A/Z"))
	assert.Nil(t, s.Node("Z/B"))

	// first match wins
	require.NoError(t, s.AddNode("A", NewNode("B")))
	assert.Same(t, b, s.Node("A/B"))
}

func TestAddNodeToMissingPathIsNoop(t *testing.T) {
	logs := captureLogs(t)
	s := New("missing")

	err := s.AddNode("nowhere", NewNode("X"))
	assert.ErrorIs(t, err, core.ErrNotFound)
	var cfgErr *core.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, s.Root().Children())
	assert.Contains(t, logs.String(), "nowhere")
}

func TestAddChildRejectsCycles(t *testing.T) {
	a, b, c := NewNode("A"), NewNode("B"), NewNode("C")
	require.NoError(t, a.AddChild(b))
	require.NoError(t, b.AddChild(c))

	assert.ErrorIs(t, c.AddChild(a), core.ErrCycle)
	assert.ErrorIs(t, a.AddChild(a), core.ErrCycle)
	assert.ErrorIs(t, a.AddChild(nil), core.ErrNilArgument)
	assert.Len(t, c.Children(), 0)
}

func TestAddChildReparents(t *testing.T) {
	a, b, c := NewNode("A"), NewNode("B"), NewNode("C")
	require.NoError(t, a.AddChild(c))
	require.NoError(t, b.AddChild(c))

	assert.Empty(t, a.Children())
	assert.Same(t, b, c.Parent())
	assert.Same(t, b.Transform, c.Transform.Parent)

	assert.True(t, b.RemoveChild(c))
	assert.Nil(t, c.Parent())
	assert.False(t, b.RemoveChild(c))
}

func TestWorldComposesParents(t *testing.T) {
	a, b := NewNode("A"), NewNode("B")
	require.NoError(t, a.AddChild(b))
	a.Transform.SetPosition(mgl32.Vec3{1, 0, 0})
	b.Transform.SetPosition(mgl32.Vec3{0, 2, 0})

	assert.Equal(t, mgl32.Vec3{1, 2, 0}, b.World().Col(3).Vec3())
}

func TestMeshRenderSetsModelMatrix(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	pass, _ := d.CreateProgram(gpu.ProgramSource{Name: "mainShader"})
	own, _ := d.CreateProgram(gpu.ProgramSource{Name: "custom"})
	m1, _ := d.CreateMesh(gpu.QuadData(1, 1))
	m2, _ := d.CreateMesh(gpu.QuadData(1, 1))

	s := New("mesh")
	n := NewNode("n")
	n.Transform.SetPosition(mgl32.Vec3{0, 0, -3})
	c1, err := NewMeshRender(d, m1, nil)
	require.NoError(t, err)
	c2, err := NewMeshRender(d, m2, own)
	require.NoError(t, err)
	n.AddComponent(c1).AddComponent(c2).AddComponent(nil)
	require.NoError(t, s.AddNode("", n))
	assert.Same(t, n, c1.Node())

	s.Render(RenderContext{Device: d, Program: pass})

	draws := d.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, "mainShader", draws[0].Program)
	assert.Equal(t, "custom", draws[1].Program)
	assert.Equal(t, mgl32.Translate3D(0, 0, -3), pass.(*headless.Program).Uniforms["uModel"])

	_, err = NewMeshRender(d, nil, nil)
	assert.ErrorIs(t, err, core.ErrNilArgument)
}

func TestMeshRenderMaterialDoesNotLeak(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	pass, _ := d.CreateProgram(gpu.ProgramSource{Name: "mainShader"})
	m1, _ := d.CreateMesh(gpu.QuadData(1, 1))
	m2, _ := d.CreateMesh(gpu.QuadData(1, 1))
	blue := gpu.Color{B: 1, A: 1}

	colored, err := NewMeshRender(d, m1, nil)
	require.NoError(t, err)
	colored.SetMaterial(graphics.NewColorMaterial(blue))
	plain, err := NewMeshRender(d, m2, nil)
	require.NoError(t, err)

	s := New("materials")
	require.NoError(t, s.AddNode("", NewNode("colored").AddComponent(colored)))
	require.NoError(t, s.AddNode("", NewNode("plain").AddComponent(plain)))
	s.Render(RenderContext{Device: d, Program: pass})

	draws := d.Draws()
	require.Len(t, draws, 2)
	assert.Equal(t, graphics.MATERIAL_COLOR, draws[0].Uniforms[graphics.UNIFORM_ACTIVE_MATERIAL])
	assert.Equal(t, blue.Vec4(), draws[0].Uniforms[graphics.UNIFORM_MATERIAL_COLOR])
	assert.Equal(t, graphics.MATERIAL_NONE, draws[1].Uniforms[graphics.UNIFORM_ACTIVE_MATERIAL])
}

func TestPhasesDispatchToVariants(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 800, Height: 600})
	tex, err := d.CreateTexture(image.NewRGBA(image.Rect(0, 0, 16, 16)))
	require.NoError(t, err)
	spriteProg, _ := d.CreateProgram(gpu.ProgramSource{Name: "sprite"})
	uiProg, _ := d.CreateProgram(gpu.ProgramSource{Name: "screenUI"})
	textProg, _ := d.CreateProgram(gpu.ProgramSource{Name: "text"})
	pass, _ := d.CreateProgram(gpu.ProgramSource{Name: "mainShader"})

	sprite, err := graphics.NewSprite(d, tex, mgl32.Vec2{2, 3}, spriteProg)
	require.NoError(t, err)
	img, err := ui.NewImage(d, tex, mgl32.Vec2{}, uiProg)
	require.NoError(t, err)
	font, err := ui.NewBitmapFont("grid", tex, mgl32.Vec2{8, 8}, "ab")
	require.NoError(t, err)
	text, err := ui.NewText(d, font, "ab", mgl32.Vec2{})
	require.NoError(t, err)

	in := core.NewInput(nil)
	btn, err := ui.NewImageButton(d, tex, mgl32.Vec2{}, uiProg, in, d)
	require.NoError(t, err)
	clicks := 0
	btn.OnClick(func() { clicks++ })

	sc, _ := NewSpriteRender(sprite)
	ic, _ := NewImageRender(img)
	tc, _ := NewTextRender(text, textProg)
	bc, _ := NewButtonRender(btn)

	s := New("variants")
	n := NewNode("hud")
	n.AddComponent(sc).AddComponent(ic).AddComponent(tc).AddComponent(bc)
	require.NoError(t, s.AddNode("", n))

	s.Render(RenderContext{Device: d, Program: pass})
	require.Len(t, d.Draws(), 1)
	assert.Equal(t, "sprite", d.Draws()[0].Program)
	assert.Equal(t, mgl32.Translate3D(2, 3, 0), spriteProg.(*headless.Program).Uniforms["uModel"])
	assert.Equal(t, float32(1), spriteProg.(*headless.Program).Uniforms["uAlpha"])

	in.ProcessMouseMove(400, 300)
	in.ProcessButton(core.BUTTON_LEFT, true)
	s.Update(0.016)
	assert.Equal(t, 1, clicks)
	assert.True(t, btn.Clicked())

	d.ResetCommands()
	s.RenderUI()
	var programs []string
	for _, c := range d.Draws() {
		programs = append(programs, c.Program)
	}
	assert.Equal(t, []string{"screenUI", "text", "screenUI"}, programs)
}

func TestNilComponentArguments(t *testing.T) {
	_, err := NewModelRender(nil)
	assert.ErrorIs(t, err, core.ErrNilArgument)
	_, err = NewSpriteRender(nil)
	assert.ErrorIs(t, err, core.ErrNilArgument)
	_, err = NewTextRender(nil, nil)
	assert.ErrorIs(t, err, core.ErrNilArgument)
	_, err = NewImageRender(nil)
	assert.ErrorIs(t, err, core.ErrNilArgument)
	_, err = NewButtonRender(nil)
	assert.ErrorIs(t, err, core.ErrNilArgument)
}

func TestDeleteChildrenBeforeComponents(t *testing.T) {
	d := headless.NewDevice(gpu.Size{Width: 8, Height: 8})
	parentMesh, _ := d.CreateMesh(gpu.QuadData(1, 1))
	childMesh, _ := d.CreateMesh(gpu.QuadData(1, 1))

	parent, child := NewNode("parent"), NewNode("child")
	pc, _ := NewMeshRender(d, parentMesh, nil)
	cc, _ := NewMeshRender(d, childMesh, nil)
	parent.AddComponent(pc)
	child.AddComponent(cc)
	require.NoError(t, parent.AddChild(child))

	d.ResetCommands()
	parent.Delete()

	assert.True(t, parent.Destroyed())
	assert.True(t, child.Destroyed())
	assert.True(t, childMesh.(*headless.Mesh).Destroyed)
	assert.True(t, parentMesh.(*headless.Mesh).Destroyed)
	assert.Empty(t, parent.Children())
	assert.Empty(t, parent.Components())

	_, _, _, meshes, _ := d.Live()
	assert.Equal(t, 0, meshes)
}

func TestSceneDeleteKeepsRoot(t *testing.T) {
	s := New("delete")
	a := NewNode("A")
	require.NoError(t, s.AddNode("", a))
	s.Delete()

	assert.True(t, a.Destroyed())
	assert.False(t, s.Root().Destroyed())
	assert.Empty(t, s.Root().Children())
	assert.Equal(t, "Scene [delete]:\nroot\n", s.String())
}

func TestNodeString(t *testing.T) {
	a := NewNode("A")
	require.NoError(t, a.AddChild(NewNode("B")))
	assert.Equal(t, "A:\n  B\n", a.String())
}

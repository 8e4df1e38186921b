package testbed

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/spaghettifunk/tessera/engine"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/graphics"
	"github.com/spaghettifunk/tessera/engine/renderer"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/scene"
	"github.com/spaghettifunk/tessera/engine/ui"
)

const (
	FONT_SIZE      = 18
	ROTATION_SPEED = 0.5
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	engine *engine.Engine
	scene  *scene.Scene

	cube  *scene.Node
	stats *ui.Text
	font  *ui.Font

	statsTimer float64
}

func NewTestGame(cfg *core.Config) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config: cfg,
			State:  &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

// Initialize builds the demo scene: a spinning cube with a child cube, a
// floor, a stats line and a quit button.
func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.state()
	state.engine = e
	state.scene = scene.New("testbed")

	if err := g.buildWorld(e, state); err != nil {
		return err
	}
	if err := g.buildUI(e, state); err != nil {
		// the world still renders without the overlay
		core.LogWarn("testbed UI disabled: %s", err)
	}

	if cam, ok := e.Pipeline().Camera().(*renderer.FlyCamera); ok {
		cam.SetPosition(mgl32.Vec3{0, 3, 12})
	}
	e.Pipeline().SetScene(state.scene)
	e.Bus().Register(core.EVENT_CODE_KEY_PRESSED, g, g.onKey)

	core.LogInfo("testbed scene:\n%s", state.scene)
	return nil
}

func (g *TestGame) buildWorld(e *engine.Engine, state *gameState) error {
	dev := e.Device()
	world := scene.NewNode("world")
	if err := state.scene.AddNode("", world); err != nil {
		return err
	}

	cubeMesh, err := dev.CreateMesh(gpu.CubeData(2, 2, 2))
	if err != nil {
		return err
	}
	cubeRender, err := scene.NewMeshRender(dev, cubeMesh, nil)
	if err != nil {
		dev.DestroyMesh(cubeMesh)
		return err
	}
	state.cube = scene.NewNode("cube").AddComponent(cubeRender)
	if err := state.scene.AddNode("world", state.cube); err != nil {
		return err
	}

	moonMesh, err := dev.CreateMesh(gpu.CubeData(0.5, 0.5, 0.5))
	if err != nil {
		return err
	}
	moonRender, err := scene.NewMeshRender(dev, moonMesh, nil)
	if err != nil {
		dev.DestroyMesh(moonMesh)
		return err
	}
	moonRender.SetMaterial(graphics.NewColorMaterial(gpu.Color{R: 0.8, G: 0.8, B: 0.9, A: 1}))
	moon := scene.NewNode("moon").AddComponent(moonRender)
	moon.Transform.SetPosition(mgl32.Vec3{3, 0, 0})
	if err := state.scene.AddNode("world/cube", moon); err != nil {
		return err
	}

	floorMesh, err := dev.CreateMesh(gpu.QuadData(20, 20))
	if err != nil {
		return err
	}
	floorRender, err := scene.NewMeshRender(dev, floorMesh, nil)
	if err != nil {
		dev.DestroyMesh(floorMesh)
		return err
	}
	floor := scene.NewNode("floor").AddComponent(floorRender)
	floor.Transform.SetPosition(mgl32.Vec3{0, -2, 0})
	floor.Transform.SetRotation(mgl32.QuatRotate(mgl32.DegToRad(-90), mgl32.Vec3{1, 0, 0}))
	return state.scene.AddNode("world", floor)
}

func (g *TestGame) buildUI(e *engine.Engine, state *gameState) error {
	dev := e.Device()
	textProgram := e.Shaders().Get(renderer.PROGRAM_TEXT)
	uiProgram := e.Shaders().Get(renderer.PROGRAM_SCREEN_UI)
	if textProgram == nil || uiProgram == nil {
		return fmt.Errorf("text and screenUI programs are required")
	}

	font, err := ui.ParseTrueType(dev, "gomono", gomono.TTF, FONT_SIZE, ui.DefaultCharset)
	if err != nil {
		return err
	}
	state.font = font

	overlay := scene.NewNode("ui")
	if err := state.scene.AddNode("", overlay); err != nil {
		return err
	}

	stats, err := ui.NewText(dev, font, "", mgl32.Vec2{-0.95, 0.9})
	if err != nil {
		return err
	}
	stats.SetCentered(false)
	statsRender, err := scene.NewTextRender(stats, textProgram)
	if err != nil {
		stats.Destroy()
		return err
	}
	state.stats = stats
	if err := state.scene.AddNode("ui", scene.NewNode("stats").AddComponent(statsRender)); err != nil {
		return err
	}

	quit, err := ui.NewTextButton(dev, font, "Quit", mgl32.Vec2{0.85, -0.9}, textProgram, uiProgram, e.Input(), e.Window())
	if err != nil {
		return err
	}
	quit.OnClick(e.Quit)
	quitRender, err := scene.NewButtonRender(quit)
	if err != nil {
		quit.Destroy()
		return err
	}
	return state.scene.AddNode("ui", scene.NewNode("quit").AddComponent(quitRender))
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.state()
	if state.cube != nil {
		rotation := mgl32.QuatRotate(float32(ROTATION_SPEED*deltaTime), mgl32.Vec3{0, 1, 0})
		state.cube.Transform.Rotate(rotation)
	}

	state.statsTimer += deltaTime
	if state.stats != nil && state.statsTimer >= 1 {
		state.statsTimer = 0
		fps, ms := state.engine.Metrics().Frame()
		pos := state.engine.Pipeline().Camera().Position()
		state.stats.SetContent(fmt.Sprintf("%.0f fps %.2f ms\ncamera [%.1f, %.1f, %.1f]", fps, ms, pos.X(), pos.Y(), pos.Z()))
	}
	return nil
}

func (g *TestGame) OnResize(size gpu.Size) {
	core.LogDebug("testbed resized to %dx%d", size.Width, size.Height)
}

// onKey toggles the world subtree with F1.
func (g *TestGame) onKey(ctx core.EventContext) bool {
	ke, ok := ctx.Data.(*core.KeyEvent)
	if !ok || ke.KeyCode != core.KEY_F1 {
		return false
	}
	if world := g.state().scene.Node("world"); world != nil {
		world.SetActive(!world.Active())
		core.LogInfo("world active: %t", world.Active())
	}
	return true
}

// Shutdown runs before the engine deletes the scene; the font atlas is not
// owned by any node.
func (g *TestGame) Shutdown() error {
	state := g.state()
	if state.font != nil {
		state.font.Destroy()
		state.font = nil
	}
	return nil
}

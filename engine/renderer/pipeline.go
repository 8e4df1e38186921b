package renderer

import (
	"fmt"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
	"github.com/spaghettifunk/tessera/engine/scene"
)

const (
	PROGRAM_DEPTH     = "depth"
	PROGRAM_MAIN      = "mainShader"
	PROGRAM_SCREEN    = "screen"
	PROGRAM_TEXT      = "text"
	PROGRAM_SCREEN_UI = "screenUI"
	PROGRAM_SPRITE    = "sprite"

	PASS_DEPTH = "depth"
	PASS_MAIN  = "main"

	UNIFORM_SCREEN_SIZE   = "uScreenSize"
	UNIFORM_VIEW          = "uView"
	UNIFORM_PROJECTION    = "uProj"
	UNIFORM_FINAL_TEXTURE = "finalTexture"
)

// FrameTime is the timing state sampled at the start of each frame.
type FrameTime struct {
	Elapsed float64
	Delta   float64
}

type PipelineConfig struct {
	Device  gpu.Device
	Window  Window
	Shaders ShaderRegistry
	// Clock defaults to a clock started when the pipeline is created.
	Clock core.TimeSource
	// Post declares post-process passes run after the world passes, in order.
	Post []core.PassConfig
}

// Pipeline renders a scene through an ordered list of world passes, then
// post-process passes, and composites the last published texture to the
// window before drawing the UI.
type Pipeline struct {
	device  gpu.Device
	window  Window
	shaders ShaderRegistry
	clock   core.TimeSource
	post    []core.PassConfig

	camera      Camera
	quad        gpu.Mesh
	worldPasses []*RenderPass
	postPasses  []*RenderPass
	scene       *scene.Scene

	time          FrameTime
	lastFrameTime float64
	boundTextures int
	frameActive   bool
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	clock := cfg.Clock
	if clock == nil {
		c := core.NewClock()
		c.Start()
		clock = c.Now
	}
	return &Pipeline{
		device:  cfg.Device,
		window:  cfg.Window,
		shaders: cfg.Shaders,
		clock:   clock,
		post:    cfg.Post,
		scene:   scene.New("default"),
	}
}

// Setup creates the camera, the shared quad and the default passes. Any error
// is fatal for the pipeline.
func (p *Pipeline) Setup() error {
	if p.device == nil || p.window == nil || p.shaders == nil {
		return core.NewConfigurationError("pipeline setup", core.ErrNilArgument, "device, window and shaders are required")
	}
	size := p.window.Size()
	p.camera = NewCamera2D(size)
	p.window.OnResize(p.onResize)
	p.shaders.SetVec2(UNIFORM_SCREEN_SIZE, size.Vec2())

	quad, err := p.device.CreateMesh(gpu.QuadData(2, 2))
	if err != nil {
		return asBackendError("create screen quad", err)
	}
	p.quad = quad

	if err := p.setupDefaultShaders(); err != nil {
		return err
	}
	if err := p.setupRenderPasses(size); err != nil {
		return err
	}

	p.updateCamera()
	core.LogInfo("pipeline ready [%dx%d, %d world passes, %d post passes]", size.Width, size.Height, len(p.worldPasses), len(p.postPasses))
	return nil
}

func (p *Pipeline) setupDefaultShaders() error {
	for _, name := range []string{PROGRAM_DEPTH, PROGRAM_MAIN, PROGRAM_SCREEN} {
		if p.shaders.Get(name) == nil {
			return core.NewConfigurationError("pipeline setup", core.ErrNotFound, "program %q is not registered", name)
		}
	}
	for _, name := range []string{PROGRAM_TEXT, PROGRAM_SCREEN_UI, PROGRAM_SPRITE} {
		if p.shaders.Get(name) == nil {
			core.LogWarn("program %q is not registered, components using it will not draw", name)
		}
	}
	p.shaders.Get(PROGRAM_SCREEN).SetInt("screenTexture", 0)
	return nil
}

func (p *Pipeline) setupRenderPasses(size gpu.Size) error {
	depth, err := NewDepthPass(p.device, p.shaders.Get(PROGRAM_DEPTH), size)
	if err != nil {
		return err
	}
	p.worldPasses = append(p.worldPasses, depth)

	mainPass, err := NewRenderPass(p.device, RenderPassConfig{
		Name:    PASS_MAIN,
		Program: p.shaders.Get(PROGRAM_MAIN),
		Attachments: []gpu.AttachmentSpec{
			gpu.PositionTexture,
			gpu.NormalTexture,
			gpu.ColorFloatTexture,
			gpu.DepthStencilOpaque,
		},
		ClearsDepth: true,
	}, size)
	if err != nil {
		return err
	}
	p.worldPasses = append(p.worldPasses, mainPass)

	for _, pc := range p.post {
		pass, err := p.newPostPass(pc, size)
		if err != nil {
			return err
		}
		p.postPasses = append(p.postPasses, pass)
	}
	return nil
}

func (p *Pipeline) newPostPass(pc core.PassConfig, size gpu.Size) (*RenderPass, error) {
	if err := core.CheckPassName(pc.Name, p.passNames()); err != nil {
		return nil, err
	}
	program := p.shaders.Get(pc.Program)
	if program == nil {
		return nil, core.NewConfigurationError("post pass", core.ErrNotFound, "pass %q: program %q is not registered", pc.Name, pc.Program)
	}
	precision, err := gpu.ParsePrecision(pc.Precision)
	if err != nil {
		return nil, core.NewConfigurationError("post pass", err, "pass %q", pc.Name)
	}
	outputs := pc.Outputs
	if len(outputs) == 0 {
		outputs = []string{"color"}
	}
	specs := make([]gpu.AttachmentSpec, 0, len(outputs))
	for _, o := range outputs {
		role, err := gpu.ParseRole(o)
		if err != nil {
			return nil, core.NewConfigurationError("post pass", err, "pass %q", pc.Name)
		}
		specs = append(specs, gpu.AttachmentSpec{Role: role, Storage: gpu.StorageTexture, Precision: precision})
	}
	return NewRenderPass(p.device, RenderPassConfig{
		Name:        pc.Name,
		Program:     program,
		Attachments: specs,
	}, size)
}

// onResize may run before Setup has created any pass.
func (p *Pipeline) onResize(size gpu.Size) {
	for _, rp := range p.passes() {
		if err := rp.Resize(size); err != nil {
			core.LogError("pass %s keeps %dx%d: %s", rp.Name(), rp.Size().Width, rp.Size().Height, err)
		}
	}
	if p.camera != nil {
		p.updateCamera()
	}
	p.shaders.SetVec2(UNIFORM_SCREEN_SIZE, size.Vec2())
}

func (p *Pipeline) passNames() []string {
	var names []string
	for _, rp := range p.passes() {
		names = append(names, rp.Name())
	}
	return names
}

func (p *Pipeline) passes() []*RenderPass {
	all := make([]*RenderPass, 0, len(p.worldPasses)+len(p.postPasses))
	all = append(all, p.worldPasses...)
	return append(all, p.postPasses...)
}

func (p *Pipeline) updateCamera() {
	p.camera.Resize(p.window.Size())
	p.shaders.SetMat4(UNIFORM_VIEW, p.camera.View())
	p.shaders.SetMat4(UNIFORM_PROJECTION, p.camera.Projection())
}

func (p *Pipeline) IsRunning() bool {
	return !p.window.ShouldClose()
}

// BeginFrame samples the clock and starts a device frame. When the device
// cannot start one (e.g. the swapchain is being recreated) Render and
// EndFrame skip the frame.
func (p *Pipeline) BeginFrame() error {
	now := p.clock()
	p.time.Delta = now - p.lastFrameTime
	p.time.Elapsed = now
	p.lastFrameTime = now
	p.boundTextures = 0

	if err := p.device.BeginFrame(); err != nil {
		p.frameActive = false
		return err
	}
	p.frameActive = true
	return nil
}

func (p *Pipeline) Update(delta float64) {
	p.scene.Update(delta)
}

// Render draws the world passes, publishes their outputs, runs the
// post-process passes and composites the result with the UI on top.
func (p *Pipeline) Render() {
	if !p.frameActive {
		return
	}
	p.renderWorld()
	p.renderToScreen()
	p.UnbindAll()
}

func (p *Pipeline) renderWorld() {
	for _, rp := range p.worldPasses {
		err := rp.Run(func(program gpu.Program) {
			p.scene.Render(scene.RenderContext{Device: p.device, Program: program})
		})
		if err != nil {
			core.LogError("pass %s skipped: %s", rp.Name(), err)
		}
	}

	p.boundTextures = 0
	for _, rp := range p.worldPasses {
		for _, out := range rp.Target().SampledOutputs() {
			p.bindOutput(fmt.Sprintf("%s_%sTexture", rp.Name(), out.Name), out.Texture)
		}
	}
	p.shaders.SetInt(UNIFORM_FINAL_TEXTURE, int32(p.boundTextures-1))
}

func (p *Pipeline) renderToScreen() {
	for _, rp := range p.postPasses {
		err := rp.Run(func(program gpu.Program) {
			p.device.Draw(program, p.quad)
		})
		if err != nil {
			core.LogError("pass %s skipped: %s", rp.Name(), err)
			continue
		}
		for i, out := range rp.Target().SampledOutputs() {
			unit := p.bindOutput(fmt.Sprintf("%s_%sTexture", rp.Name(), out.Name), out.Texture)
			if i == 0 && unit >= 0 {
				p.shaders.SetInt(rp.Name()+"Texture", int32(unit))
			}
		}
	}
	p.shaders.SetInt(UNIFORM_FINAL_TEXTURE, int32(p.boundTextures-1))

	p.device.BindFramebuffer(nil)
	p.window.BeginFrame(false)
	if screen := p.shaders.Get(PROGRAM_SCREEN); screen != nil {
		screen.Bind()
		p.device.Draw(screen, p.quad)
		screen.Unbind()
	}

	p.scene.RenderUI()
}

// bindOutput binds tex to the next free unit and publishes the unit as name.
// It returns the unit, or -1 when the bind failed and no unit was used.
func (p *Pipeline) bindOutput(name string, tex gpu.Texture) int {
	unit := p.boundTextures
	if err := p.device.BindTexture(unit, tex); err != nil {
		core.LogError("failed to bind %s: %s", name, err)
		return -1
	}
	p.shaders.SetInt(name, int32(unit))
	p.boundTextures++
	return unit
}

// UnbindAll releases every texture unit bound this frame.
func (p *Pipeline) UnbindAll() {
	for unit := 0; unit < p.boundTextures; unit++ {
		p.device.UnbindTexture(unit)
	}
	p.boundTextures = 0
}

// EndFrame advances the camera, publishes its matrices and presents.
func (p *Pipeline) EndFrame() {
	if !p.frameActive {
		return
	}
	p.camera.Update(float32(p.time.Delta))
	p.updateCamera()
	p.window.EndFrame()
	p.frameActive = false
}

// SetCamera replaces the camera and sizes it to the window right away.
func (p *Pipeline) SetCamera(c Camera) error {
	if c == nil {
		return core.NewConfigurationError("set camera", core.ErrNilArgument, "camera is required")
	}
	p.camera = c
	p.updateCamera()
	return nil
}

func (p *Pipeline) Camera() Camera {
	return p.camera
}

// Scene returns the active scene. Replacing it with SetScene does not delete
// the previous one.
func (p *Pipeline) Scene() *scene.Scene {
	return p.scene
}

func (p *Pipeline) SetScene(s *scene.Scene) {
	if s == nil {
		core.LogWarn("ignoring nil scene")
		return
	}
	p.scene = s
}

func (p *Pipeline) Time() FrameTime {
	return p.time
}

func (p *Pipeline) BoundTextures() int {
	return p.boundTextures
}

func (p *Pipeline) WorldPasses() []*RenderPass {
	return p.worldPasses
}

func (p *Pipeline) PostPasses() []*RenderPass {
	return p.postPasses
}

// AddWorldPass appends a world pass; it runs after the existing ones. The
// pipeline owns the pass once it is added.
func (p *Pipeline) AddWorldPass(rp *RenderPass) error {
	if err := p.checkPass(rp); err != nil {
		return err
	}
	p.worldPasses = append(p.worldPasses, rp)
	return nil
}

// AddPostPass appends a post-process pass; it runs after the existing ones.
func (p *Pipeline) AddPostPass(rp *RenderPass) error {
	if err := p.checkPass(rp); err != nil {
		return err
	}
	p.postPasses = append(p.postPasses, rp)
	return nil
}

func (p *Pipeline) checkPass(rp *RenderPass) error {
	if rp == nil {
		return core.NewConfigurationError("add pass", core.ErrNilArgument, "pass is required")
	}
	return core.CheckPassName(rp.Name(), p.passNames())
}

func (p *Pipeline) Device() gpu.Device {
	return p.device
}

// Delete destroys the passes and the quad before the programs, the device and
// finally the window.
func (p *Pipeline) Delete() {
	for _, rp := range p.passes() {
		rp.Destroy()
	}
	p.worldPasses = nil
	p.postPasses = nil
	if p.quad != nil {
		p.device.DestroyMesh(p.quad)
		p.quad = nil
	}
	p.shaders.DestroyAll()
	p.device.Destroy()
	p.window.Destroy()
}

package headless

import (
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

const (
	defaultMaxTextureUnits = 16
	maxColorAttachments    = 8
)

type CommandKind uint8

const (
	CmdBindFramebuffer CommandKind = iota
	CmdClear
	CmdDepthTest
	CmdBlend
	CmdBindTexture
	CmdUnbindTexture
	CmdDraw
	CmdBeginFrame
	CmdEndFrame
)

// Command is one recorded device call.
type Command struct {
	Kind        CommandKind
	Framebuffer *Framebuffer
	Program     string
	Mesh        *Mesh
	Texture     gpu.Texture
	Unit        int
	Flags       gpu.ClearFlags
	ClearColor  gpu.Color
	Enabled     bool
	// Uniforms is a copy of the program uniforms at draw time.
	Uniforms map[string]interface{}
}

// Device is an in-memory gpu.Device that records the calls it receives and
// validates framebuffers the way a driver would.
type Device struct {
	Commands []Command

	// Validate replaces the built-in framebuffer completeness check when set.
	Validate func(surfaces []gpu.Surface) error
	// FailResize makes every surface reallocation fail while set.
	FailResize error
	// ResizeCheck, when set, can reject a single surface reallocation.
	ResizeCheck func(s gpu.Surface, size gpu.Size) error

	size       gpu.Size
	bound      *Framebuffer
	units      map[int]gpu.Texture
	maxUnits   int
	clearColor gpu.Color
	depthTest  bool
	blend      bool
	frames     int
	inFrame    bool

	surfaces     map[*Surface]struct{}
	framebuffers map[*Framebuffer]struct{}
	textures     map[*Texture]struct{}
	meshes       map[*Mesh]struct{}
	programs     map[*Program]struct{}
}

func NewDevice(size gpu.Size) *Device {
	return &Device{
		size:         size,
		units:        make(map[int]gpu.Texture),
		maxUnits:     defaultMaxTextureUnits,
		clearColor:   gpu.Black,
		surfaces:     make(map[*Surface]struct{}),
		framebuffers: make(map[*Framebuffer]struct{}),
		textures:     make(map[*Texture]struct{}),
		meshes:       make(map[*Mesh]struct{}),
		programs:     make(map[*Program]struct{}),
	}
}

func (d *Device) SetMaxTextureUnits(n int) { d.maxUnits = n }
func (d *Device) MaxTextureUnits() int     { return d.maxUnits }

func (d *Device) record(c Command) {
	d.Commands = append(d.Commands, c)
}

// ResetCommands clears the command log.
func (d *Device) ResetCommands() {
	d.Commands = d.Commands[:0]
}

func (d *Device) CreateSurface(spec gpu.AttachmentSpec, size gpu.Size) (gpu.Surface, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, core.NewBackendError("create surface", fmt.Errorf("invalid size %dx%d", size.Width, size.Height))
	}
	if spec.Role > gpu.RoleDepthStencil {
		return nil, core.NewBackendError("create surface", core.ErrUnsupportedFormat)
	}
	s := &Surface{ID: uuid.New(), spec: spec, size: size, Generation: 1}
	d.surfaces[s] = struct{}{}
	return s, nil
}

func (d *Device) ResizeSurface(gs gpu.Surface, size gpu.Size) error {
	s := gs.(*Surface)
	if s.Destroyed {
		return core.NewBackendError("resize surface", fmt.Errorf("surface %s destroyed", s.ID))
	}
	if d.FailResize != nil {
		return core.NewBackendError("resize surface", d.FailResize)
	}
	if d.ResizeCheck != nil {
		if err := d.ResizeCheck(s, size); err != nil {
			return core.NewBackendError("resize surface", err)
		}
	}
	if size.Width <= 0 || size.Height <= 0 {
		return core.NewBackendError("resize surface", fmt.Errorf("invalid size %dx%d", size.Width, size.Height))
	}
	s.size = size
	s.Generation++
	return nil
}

func (d *Device) DestroySurface(gs gpu.Surface) {
	s := gs.(*Surface)
	s.Destroyed = true
	delete(d.surfaces, s)
}

func (d *Device) validate(surfaces []gpu.Surface) error {
	if d.Validate != nil {
		return d.Validate(surfaces)
	}
	if len(surfaces) == 0 {
		return core.NewBackendError("validate framebuffer", fmt.Errorf("missing attachment: %w", core.ErrIncompleteTarget))
	}
	colors, depths := 0, 0
	size := surfaces[0].Size()
	for _, s := range surfaces {
		if hs, ok := s.(*Surface); ok && hs.Destroyed {
			return core.NewBackendError("validate framebuffer", fmt.Errorf("destroyed attachment: %w", core.ErrIncompleteTarget))
		}
		if s.Size() != size {
			return core.NewBackendError("validate framebuffer", fmt.Errorf("attachment size mismatch: %w", core.ErrIncompleteTarget))
		}
		if s.Spec().Role.IsColor() {
			colors++
		} else {
			depths++
		}
	}
	if colors > maxColorAttachments {
		return core.NewBackendError("validate framebuffer", fmt.Errorf("%d color attachments: %w", colors, core.ErrUnsupportedFormat))
	}
	if depths > 1 {
		return core.NewBackendError("validate framebuffer", fmt.Errorf("%d depth/stencil attachments: %w", depths, core.ErrIncompleteTarget))
	}
	return nil
}

func (d *Device) CreateFramebuffer(surfaces []gpu.Surface) (gpu.Framebuffer, error) {
	if err := d.validate(surfaces); err != nil {
		return nil, err
	}
	fb := &Framebuffer{
		ID:       uuid.New(),
		surfaces: append([]gpu.Surface(nil), surfaces...),
	}
	fb.attach()
	d.framebuffers[fb] = struct{}{}
	return fb, nil
}

func (d *Device) RebuildFramebuffer(gfb gpu.Framebuffer) error {
	fb := gfb.(*Framebuffer)
	if err := d.validate(fb.surfaces); err != nil {
		return err
	}
	fb.attach()
	fb.Rebuilds++
	return nil
}

func (d *Device) DestroyFramebuffer(gfb gpu.Framebuffer) {
	fb := gfb.(*Framebuffer)
	if d.bound == fb {
		d.bound = nil
	}
	fb.Destroyed = true
	delete(d.framebuffers, fb)
}

func (d *Device) BindFramebuffer(gfb gpu.Framebuffer) {
	var fb *Framebuffer
	if gfb != nil {
		fb = gfb.(*Framebuffer)
	}
	d.bound = fb
	d.record(Command{Kind: CmdBindFramebuffer, Framebuffer: fb})
}

// Bound returns the bound framebuffer, nil for the window.
func (d *Device) Bound() *Framebuffer {
	return d.bound
}

func (d *Device) SetClearColor(c gpu.Color) { d.clearColor = c }
func (d *Device) ClearColor() gpu.Color     { return d.clearColor }

func (d *Device) Clear(flags gpu.ClearFlags) {
	d.record(Command{Kind: CmdClear, Framebuffer: d.bound, Flags: flags, ClearColor: d.clearColor})
}

func (d *Device) SetDepthTest(enabled bool) {
	d.depthTest = enabled
	d.record(Command{Kind: CmdDepthTest, Enabled: enabled})
}

func (d *Device) SetBlend(enabled bool) {
	d.blend = enabled
	d.record(Command{Kind: CmdBlend, Enabled: enabled})
}

func (d *Device) DepthTest() bool { return d.depthTest }
func (d *Device) Blend() bool     { return d.blend }

func (d *Device) BindTexture(unit int, t gpu.Texture) error {
	if unit < 0 || unit >= d.maxUnits {
		return core.NewBackendError("bind texture", fmt.Errorf("texture unit %d out of range [0,%d)", unit, d.maxUnits))
	}
	if s, ok := t.(gpu.Surface); ok && !s.Spec().Sampled() {
		return core.NewBackendError("bind texture", fmt.Errorf("attachment %s is not sampled", s.Spec()))
	}
	d.units[unit] = t
	d.record(Command{Kind: CmdBindTexture, Unit: unit, Texture: t})
	return nil
}

func (d *Device) UnbindTexture(unit int) {
	delete(d.units, unit)
	d.record(Command{Kind: CmdUnbindTexture, Unit: unit})
}

// Units returns a copy of the current texture unit bindings.
func (d *Device) Units() map[int]gpu.Texture {
	out := make(map[int]gpu.Texture, len(d.units))
	for k, v := range d.units {
		out[k] = v
	}
	return out
}

func (d *Device) CreateTexture(img image.Image) (gpu.Texture, error) {
	if img == nil {
		return nil, core.NewBackendError("create texture", core.ErrNilArgument)
	}
	b := img.Bounds()
	t := &Texture{ID: uuid.New(), Image: img, size: gpu.Size{Width: b.Dx(), Height: b.Dy()}}
	d.textures[t] = struct{}{}
	return t, nil
}

func (d *Device) DestroyTexture(gt gpu.Texture) {
	t := gt.(*Texture)
	t.Destroyed = true
	delete(d.textures, t)
}

func (d *Device) CreateMesh(data *gpu.MeshData) (gpu.Mesh, error) {
	if data == nil || data.Stride() == 0 {
		return nil, core.NewBackendError("create mesh", fmt.Errorf("empty vertex layout"))
	}
	m := &Mesh{ID: uuid.New(), Data: data}
	d.meshes[m] = struct{}{}
	return m, nil
}

func (d *Device) UpdateMesh(gm gpu.Mesh, data *gpu.MeshData) error {
	m := gm.(*Mesh)
	if m.Destroyed {
		return core.NewBackendError("update mesh", fmt.Errorf("mesh %s destroyed", m.ID))
	}
	m.Data = data
	return nil
}

func (d *Device) DestroyMesh(gm gpu.Mesh) {
	m := gm.(*Mesh)
	m.Destroyed = true
	delete(d.meshes, m)
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.Name == "" {
		return nil, core.NewBackendError("create program", core.ErrNilArgument)
	}
	p := newProgram(src)
	d.programs[p] = struct{}{}
	return p, nil
}

func (d *Device) DestroyProgram(gp gpu.Program) {
	p := gpu.Unwrap(gp).(*Program)
	p.Destroyed = true
	delete(d.programs, p)
}

func (d *Device) Draw(p gpu.Program, gm gpu.Mesh) {
	if p == nil || gm == nil {
		core.LogWarn("draw skipped: missing program or mesh")
		return
	}
	c := Command{Kind: CmdDraw, Framebuffer: d.bound, Program: p.Name(), Mesh: gm.(*Mesh)}
	if hp, ok := gpu.Unwrap(p).(*Program); ok {
		c.Uniforms = make(map[string]interface{}, len(hp.Uniforms))
		for k, v := range hp.Uniforms {
			c.Uniforms[k] = v
		}
	}
	d.record(c)
}

func (d *Device) BeginFrame() error {
	d.inFrame = true
	d.record(Command{Kind: CmdBeginFrame})
	return nil
}

func (d *Device) EndFrame() error {
	if !d.inFrame {
		return nil
	}
	d.inFrame = false
	d.frames++
	d.record(Command{Kind: CmdEndFrame})
	return nil
}

func (d *Device) Frames() int { return d.frames }

func (d *Device) Resize(size gpu.Size) { d.size = size }
func (d *Device) Size() gpu.Size       { return d.size }

func (d *Device) Destroy() {
	for s := range d.surfaces {
		s.Destroyed = true
	}
	for fb := range d.framebuffers {
		fb.Destroyed = true
	}
	for t := range d.textures {
		t.Destroyed = true
	}
	for m := range d.meshes {
		m.Destroyed = true
	}
	for p := range d.programs {
		p.Destroyed = true
	}
	d.surfaces = make(map[*Surface]struct{})
	d.framebuffers = make(map[*Framebuffer]struct{})
	d.textures = make(map[*Texture]struct{})
	d.meshes = make(map[*Mesh]struct{})
	d.programs = make(map[*Program]struct{})
}

// Live reports the number of live surfaces, framebuffers, textures, meshes and programs.
func (d *Device) Live() (surfaces, framebuffers, textures, meshes, programs int) {
	return len(d.surfaces), len(d.framebuffers), len(d.textures), len(d.meshes), len(d.programs)
}

// Draws returns the recorded draw commands.
func (d *Device) Draws() []Command {
	var out []Command
	for _, c := range d.Commands {
		if c.Kind == CmdDraw {
			out = append(out, c)
		}
	}
	return out
}

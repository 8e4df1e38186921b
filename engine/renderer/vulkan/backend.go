package vulkan

import (
	"errors"
	"fmt"
	"image"
	"math"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

type Config struct {
	AppName         string
	Size            gpu.Size
	VSync           bool
	Debug           bool
	MaxTextureUnits int
	ClearColor      gpu.Color
}

// Device is the Vulkan implementation of gpu.Device. Commands are recorded
// into the command buffer of the current frame; render passes begin lazily on
// the first clear or draw after a framebuffer is bound.
type Device struct {
	ctx    *Context
	config Config

	swapchain      *Swapchain
	frames         []*frame
	current        int
	imageIndex     uint32
	imagesInFlight []*Fence

	size          gpu.Size
	resizePending bool
	inFrame       bool

	layout       *DescriptorLayout
	sampler      vk.Sampler
	placeholder  *Texture
	uniformAlign int
	maxColor     int

	bound         *Framebuffer
	active        *RenderPass
	screenStarted bool
	clearColor    gpu.Color
	depthTest     bool
	blend         bool
	units         []sampled

	surfaces     map[*Surface]struct{}
	framebuffers map[*Framebuffer]struct{}
	textures     map[*Texture]struct{}
	meshes       map[*Mesh]struct{}
	programs     map[*Program]struct{}
}

var _ gpu.Device = (*Device)(nil)

func New(window WindowSurface, cfg Config) (*Device, error) {
	ctx, err := NewContext(cfg.AppName, window, cfg.Debug)
	if err != nil {
		return nil, err
	}
	d := &Device{
		ctx:          ctx,
		config:       cfg,
		size:         cfg.Size,
		clearColor:   cfg.ClearColor,
		surfaces:     make(map[*Surface]struct{}),
		framebuffers: make(map[*Framebuffer]struct{}),
		textures:     make(map[*Texture]struct{}),
		meshes:       make(map[*Mesh]struct{}),
		programs:     make(map[*Program]struct{}),
	}
	if err := d.init(); err != nil {
		d.Destroy()
		return nil, err
	}
	core.LogInfo("Vulkan device initialized.")
	return d, nil
}

func (d *Device) init() error {
	limits := d.ctx.Device.Limits
	units := d.config.MaxTextureUnits
	if units <= 0 {
		units = 16
	}
	units = min(units, int(limits.MaxPerStageDescriptorSamplers))
	d.units = make([]sampled, units)
	d.maxColor = int(limits.MaxColorAttachments)
	d.uniformAlign = max(int(limits.MinUniformBufferOffsetAlignment), 16)

	var err error
	if d.layout, err = NewDescriptorLayout(d.ctx, units); err != nil {
		return err
	}
	if d.sampler, err = NewSampler(d.ctx); err != nil {
		return err
	}
	for i := 0; i < MAX_FRAMES_IN_FLIGHT; i++ {
		f, err := newFrame(d.ctx, units)
		if err != nil {
			return err
		}
		d.frames = append(d.frames, f)
	}

	white := image.NewRGBA(image.Rect(0, 0, 1, 1))
	white.Pix = []byte{255, 255, 255, 255}
	if d.placeholder, err = d.uploadTexture(white); err != nil {
		return err
	}

	if err := d.recreateSwapchain(); err != nil && !errors.Is(err, core.ErrSwapchainBooting) {
		return err
	}
	return nil
}

func (d *Device) recreateSwapchain() error {
	d.ctx.WaitIdle()
	if d.swapchain != nil {
		d.swapchain.Destroy(d.ctx)
		d.swapchain = nil
	}
	if d.size.Width <= 0 || d.size.Height <= 0 {
		return core.ErrSwapchainBooting
	}
	if err := d.ctx.Device.RefreshSwapchainSupport(d.ctx.Surface); err != nil {
		return err
	}
	sc, err := NewSwapchain(d.ctx, d.size, d.config.VSync)
	if err != nil {
		return err
	}
	d.swapchain = sc
	d.imagesInFlight = make([]*Fence, len(sc.Images))
	d.resizePending = false
	return nil
}

func (d *Device) frame() *frame { return d.frames[d.current] }

// ensurePass begins the render pass of the bound target if none is active.
// It reports false outside a frame.
func (d *Device) ensurePass() bool {
	if !d.inFrame {
		return false
	}
	if d.active != nil {
		return true
	}
	cb := d.frame().cmd
	if d.bound != nil {
		d.active = d.bound.renderPass
		d.active.Begin(cb, d.bound.Handle, uint32(d.bound.size.Width), uint32(d.bound.size.Height))
		return true
	}
	d.active = d.swapchain.loadPass
	if !d.screenStarted {
		d.active = d.swapchain.firstPass
		d.screenStarted = true
	}
	d.active.Begin(cb, d.swapchain.Framebuffers[d.imageIndex], d.swapchain.Extent.Width, d.swapchain.Extent.Height)
	return true
}

func (d *Device) endPass() {
	if d.active != nil {
		d.active.End(d.frame().cmd)
		d.active = nil
	}
}

func (d *Device) targetExtent() (uint32, uint32) {
	if d.bound != nil {
		return uint32(d.bound.size.Width), uint32(d.bound.size.Height)
	}
	return d.swapchain.Extent.Width, d.swapchain.Extent.Height
}

func (d *Device) CreateSurface(spec gpu.AttachmentSpec, size gpu.Size) (gpu.Surface, error) {
	img, err := d.attachmentImage(spec, size)
	if err != nil {
		return nil, err
	}
	s := &Surface{ID: uuid.New(), spec: spec, size: size, image: img}
	d.surfaces[s] = struct{}{}
	return s, nil
}

// attachmentImage allocates the image behind an attachment in its resting layout.
func (d *Device) attachmentImage(spec gpu.AttachmentSpec, size gpu.Size) (*Image, error) {
	if size.Width <= 0 || size.Height <= 0 {
		return nil, core.NewBackendError("create surface", fmt.Errorf("invalid size %dx%d", size.Width, size.Height))
	}
	format, err := attachmentFormat(spec, d.ctx.Device.DepthStencilFormat)
	if err != nil {
		return nil, err
	}
	img, err := NewImage(d.ctx, uint32(size.Width), uint32(size.Height), format, attachmentUsage(spec))
	if err != nil {
		return nil, err
	}
	if err := RunSingleUse(d.ctx, func(cmd vk.CommandBuffer) { img.Transition(cmd, restingLayout(spec)) }); err != nil {
		img.Destroy(d.ctx)
		return nil, err
	}
	return img, nil
}

// ResizeSurface allocates the new image before releasing the old one, so a
// failure leaves the surface untouched.
func (d *Device) ResizeSurface(gs gpu.Surface, size gpu.Size) error {
	s := gs.(*Surface)
	if s.destroyed {
		return core.NewBackendError("resize surface", fmt.Errorf("surface %s destroyed", s.ID))
	}
	if s.size == size {
		return nil
	}
	d.ctx.WaitIdle()
	img, err := d.attachmentImage(s.spec, size)
	if err != nil {
		return err
	}
	s.image.Destroy(d.ctx)
	s.image = img
	s.size = size
	return nil
}

func (d *Device) DestroySurface(gs gpu.Surface) {
	s := gs.(*Surface)
	if s.destroyed {
		return
	}
	d.ctx.WaitIdle()
	d.dropUnits(s)
	s.image.Destroy(d.ctx)
	s.destroyed = true
	delete(d.surfaces, s)
}

func (d *Device) CreateFramebuffer(surfaces []gpu.Surface) (gpu.Framebuffer, error) {
	if err := validateSurfaces(surfaces, d.maxColor); err != nil {
		return nil, err
	}
	specs := make([]gpu.AttachmentSpec, len(surfaces))
	for i, s := range surfaces {
		specs[i] = s.Spec()
	}
	descs, err := targetAttachments(specs, d.ctx.Device.DepthStencilFormat)
	if err != nil {
		return nil, err
	}
	rp, err := NewRenderPass(d.ctx, descs)
	if err != nil {
		return nil, err
	}
	size := surfaces[0].Size()
	handle, err := createFramebufferHandle(d.ctx, rp, attachmentViews(surfaces), uint32(size.Width), uint32(size.Height))
	if err != nil {
		rp.Destroy(d.ctx)
		return nil, err
	}
	fb := &Framebuffer{
		ID:         uuid.New(),
		Handle:     handle,
		surfaces:   append([]gpu.Surface(nil), surfaces...),
		size:       size,
		renderPass: rp,
	}
	d.framebuffers[fb] = struct{}{}
	return fb, nil
}

func (d *Device) RebuildFramebuffer(gfb gpu.Framebuffer) error {
	fb := gfb.(*Framebuffer)
	if err := validateSurfaces(fb.surfaces, d.maxColor); err != nil {
		return err
	}
	if d.bound == fb {
		d.endPass()
	}
	d.ctx.WaitIdle()
	size := fb.surfaces[0].Size()
	handle, err := createFramebufferHandle(d.ctx, fb.renderPass, attachmentViews(fb.surfaces), uint32(size.Width), uint32(size.Height))
	if err != nil {
		return err
	}
	fb.destroyHandle(d.ctx)
	fb.Handle = handle
	fb.size = size
	return nil
}

func (d *Device) DestroyFramebuffer(gfb gpu.Framebuffer) {
	fb := gfb.(*Framebuffer)
	if d.bound == fb {
		d.endPass()
		d.bound = nil
	}
	d.ctx.WaitIdle()
	fb.destroyHandle(d.ctx)
	if fb.renderPass != nil {
		fb.renderPass.Destroy(d.ctx)
		fb.renderPass = nil
	}
	delete(d.framebuffers, fb)
}

func (d *Device) BindFramebuffer(gfb gpu.Framebuffer) {
	var fb *Framebuffer
	if gfb != nil {
		fb = gfb.(*Framebuffer)
	}
	d.endPass()
	d.bound = fb
}

func (d *Device) SetClearColor(c gpu.Color) { d.clearColor = c }
func (d *Device) ClearColor() gpu.Color     { return d.clearColor }
func (d *Device) SetDepthTest(enabled bool) { d.depthTest = enabled }
func (d *Device) SetBlend(enabled bool)     { d.blend = enabled }

func (d *Device) Clear(flags gpu.ClearFlags) {
	if !d.ensurePass() {
		return
	}
	w, h := d.targetExtent()
	d.active.Clear(d.frame().cmd, flags, d.clearColor, w, h)
}

func (d *Device) BindTexture(unit int, t gpu.Texture) error {
	if unit < 0 || unit >= len(d.units) {
		return core.NewBackendError("bind texture", fmt.Errorf("texture unit %d out of range [0,%d)", unit, len(d.units)))
	}
	st, ok := t.(sampled)
	if !ok {
		return core.NewBackendError("bind texture", fmt.Errorf("%T is not a Vulkan texture", t))
	}
	if s, ok := t.(*Surface); ok && !s.spec.Sampled() {
		return core.NewBackendError("bind texture", fmt.Errorf("attachment %s is not sampled", s.spec))
	}
	d.units[unit] = st
	return nil
}

func (d *Device) UnbindTexture(unit int) {
	if unit >= 0 && unit < len(d.units) {
		d.units[unit] = nil
	}
}

func (d *Device) MaxTextureUnits() int { return len(d.units) }

func (d *Device) dropUnits(t gpu.Texture) {
	for i, u := range d.units {
		if u == t {
			d.units[i] = nil
		}
	}
}

func (d *Device) CreateTexture(img image.Image) (gpu.Texture, error) {
	if img == nil {
		return nil, core.NewBackendError("create texture", core.ErrNilArgument)
	}
	t, err := d.uploadTexture(img)
	if err != nil {
		return nil, err
	}
	d.textures[t] = struct{}{}
	return t, nil
}

// uploadTexture converts img to RGBA8 and copies it through a staging buffer.
func (d *Device) uploadTexture(img image.Image) (*Texture, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, core.NewBackendError("create texture", fmt.Errorf("empty image"))
	}
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	}

	staging, err := NewBuffer(d.ctx, len(rgba.Pix), vk.BufferUsageTransferSrcBit)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy(d.ctx)
	if err := staging.Write(0, rgba.Pix); err != nil {
		return nil, err
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit)
	pixels, err := NewImage(d.ctx, uint32(b.Dx()), uint32(b.Dy()), vk.FormatR8g8b8a8Unorm, usage)
	if err != nil {
		return nil, err
	}
	if err := RunSingleUse(d.ctx, func(cmd vk.CommandBuffer) {
		pixels.Transition(cmd, vk.ImageLayoutTransferDstOptimal)
		pixels.CopyFromBuffer(cmd, staging.Handle)
		pixels.Transition(cmd, vk.ImageLayoutShaderReadOnlyOptimal)
	}); err != nil {
		pixels.Destroy(d.ctx)
		return nil, err
	}
	return &Texture{ID: uuid.New(), image: pixels, size: gpu.Size{Width: b.Dx(), Height: b.Dy()}}, nil
}

func (d *Device) DestroyTexture(gt gpu.Texture) {
	t := gt.(*Texture)
	if _, ok := d.textures[t]; !ok {
		return
	}
	d.ctx.WaitIdle()
	d.dropUnits(t)
	t.image.Destroy(d.ctx)
	delete(d.textures, t)
}

func (d *Device) meshBuffers(data *gpu.MeshData) (*Buffer, *Buffer, error) {
	if data == nil || data.Stride() == 0 {
		return nil, nil, core.NewBackendError("create mesh", fmt.Errorf("empty vertex layout"))
	}
	if len(data.Vertices) == 0 || len(data.Vertices)%data.Stride() != 0 {
		return nil, nil, core.NewBackendError("create mesh", fmt.Errorf("%d floats do not fill vertices of %d", len(data.Vertices), data.Stride()))
	}
	vertices, err := NewBuffer(d.ctx, len(data.Vertices)*4, vk.BufferUsageVertexBufferBit)
	if err != nil {
		return nil, nil, err
	}
	if err := vertices.Write(0, floatBytes(data.Vertices)); err != nil {
		vertices.Destroy(d.ctx)
		return nil, nil, err
	}
	if len(data.Indices) == 0 {
		return vertices, nil, nil
	}
	indices, err := NewBuffer(d.ctx, len(data.Indices)*4, vk.BufferUsageIndexBufferBit)
	if err != nil {
		vertices.Destroy(d.ctx)
		return nil, nil, err
	}
	if err := indices.Write(0, indexBytes(data.Indices)); err != nil {
		vertices.Destroy(d.ctx)
		indices.Destroy(d.ctx)
		return nil, nil, err
	}
	return vertices, indices, nil
}

func (d *Device) CreateMesh(data *gpu.MeshData) (gpu.Mesh, error) {
	vertices, indices, err := d.meshBuffers(data)
	if err != nil {
		return nil, err
	}
	m := &Mesh{ID: uuid.New(), vertices: vertices, indices: indices, count: data.DrawCount(), indexed: indices != nil}
	d.meshes[m] = struct{}{}
	return m, nil
}

func (d *Device) UpdateMesh(gm gpu.Mesh, data *gpu.MeshData) error {
	m := gm.(*Mesh)
	if m.destroyed {
		return core.NewBackendError("update mesh", fmt.Errorf("mesh %s destroyed", m.ID))
	}
	vertices, indices, err := d.meshBuffers(data)
	if err != nil {
		return err
	}
	d.ctx.WaitIdle()
	m.release(d.ctx)
	m.vertices, m.indices = vertices, indices
	m.count, m.indexed = data.DrawCount(), indices != nil
	return nil
}

func (d *Device) DestroyMesh(gm gpu.Mesh) {
	m := gm.(*Mesh)
	if m.destroyed {
		return
	}
	d.ctx.WaitIdle()
	m.release(d.ctx)
	m.destroyed = true
	delete(d.meshes, m)
}

func (d *Device) CreateProgram(src gpu.ProgramSource) (gpu.Program, error) {
	if src.Name == "" {
		return nil, core.NewBackendError("create program", core.ErrNilArgument)
	}
	p := newProgramState(src)
	var err error
	if p.vertex, err = createShaderModule(d.ctx, src.Vertex); err != nil {
		return nil, fmt.Errorf("program %s vertex stage: %w", src.Name, err)
	}
	if p.fragment, err = createShaderModule(d.ctx, src.Fragment); err != nil {
		p.destroy(d.ctx)
		return nil, fmt.Errorf("program %s fragment stage: %w", src.Name, err)
	}
	d.programs[p] = struct{}{}
	return p, nil
}

func (d *Device) DestroyProgram(gp gpu.Program) {
	p, ok := gpu.Unwrap(gp).(*Program)
	if !ok || p.destroyed {
		return
	}
	d.ctx.WaitIdle()
	p.destroy(d.ctx)
	delete(d.programs, p)
}

func (d *Device) pipeline(p *Program, rp *RenderPass) (*Pipeline, error) {
	key := pipelineKey{pass: rp.key, depthTest: d.depthTest, blend: d.blend}
	if pl, ok := p.pipelines[key]; ok {
		return pl, nil
	}
	pl, err := NewGraphicsPipeline(d.ctx, d.layout.PipelineLayout, rp, p, d.depthTest, d.blend)
	if err != nil {
		return nil, err
	}
	p.pipelines[key] = pl
	return pl, nil
}

// unitImages fills every texture unit, using the placeholder for empty ones.
func (d *Device) unitImages() []vk.DescriptorImageInfo {
	images := make([]vk.DescriptorImageInfo, len(d.units))
	for i, u := range d.units {
		if u == nil {
			u = d.placeholder
		}
		images[i] = vk.DescriptorImageInfo{
			Sampler:     d.sampler,
			ImageView:   u.sampleView(),
			ImageLayout: u.sampleLayout(),
		}
	}
	return images
}

func (d *Device) Draw(gp gpu.Program, gm gpu.Mesh) {
	if gp == nil || gm == nil {
		core.LogWarn("draw skipped: missing program or mesh")
		return
	}
	p, ok := gpu.Unwrap(gp).(*Program)
	m, mok := gm.(*Mesh)
	if !ok || !mok || p.destroyed || m.destroyed {
		core.LogWarn("draw skipped: program %s or its mesh is not live", gp.Name())
		return
	}
	if !d.ensurePass() {
		return
	}
	pl, err := d.pipeline(p, d.active)
	if err != nil {
		core.LogError("draw skipped: %s", err)
		return
	}
	f := d.frame()
	offset, ok := f.pushUniforms(p.block, d.uniformAlign)
	if !ok {
		core.LogWarn("draw skipped: uniform ring exhausted")
		return
	}
	set, ok := f.descriptors.Allocate(d.ctx, d.layout)
	if !ok {
		core.LogWarn("draw skipped: more than %d draws in one frame", MAX_DRAWS_PER_FRAME)
		return
	}
	writeDrawSet(d.ctx, set, f.uniforms.Handle, offset, len(p.block), d.unitImages())

	cmd := f.cmd.Handle
	pl.Bind(f.cmd)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, d.layout.PipelineLayout, 0, 1, []vk.DescriptorSet{set}, 0, nil)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{m.vertices.Handle}, []vk.DeviceSize{0})
	if m.indexed {
		vk.CmdBindIndexBuffer(cmd, m.indices.Handle, 0, vk.IndexTypeUint32)
		vk.CmdDrawIndexed(cmd, uint32(m.count), 1, 0, 0, 0)
		return
	}
	vk.CmdDraw(cmd, uint32(m.count), 1, 0, 0)
}

// BeginFrame returns core.ErrSwapchainBooting while the swapchain is being
// rebuilt. Nothing may be drawn until a later BeginFrame succeeds.
func (d *Device) BeginFrame() error {
	if d.inFrame {
		return nil
	}
	if d.swapchain == nil || d.resizePending {
		if err := d.recreateSwapchain(); err != nil {
			return err
		}
		core.LogDebug("Swapchain recreated, booting.")
		return core.ErrSwapchainBooting
	}

	f := d.frame()
	if err := f.fence.Wait(d.ctx, math.MaxUint64); err != nil {
		return err
	}
	index, err := d.swapchain.Acquire(d.ctx, f.imageAvailable)
	if err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			d.resizePending = true
		}
		return err
	}
	if prev := d.imagesInFlight[index]; prev != nil && prev != f.fence {
		if err := prev.Wait(d.ctx, math.MaxUint64); err != nil {
			return err
		}
	}
	d.imagesInFlight[index] = f.fence

	if err := f.descriptors.Reset(d.ctx); err != nil {
		return err
	}
	f.uniformOffset = 0
	if err := f.cmd.Reset(); err != nil {
		return err
	}
	if err := f.cmd.Begin(false); err != nil {
		return err
	}
	d.imageIndex = index
	d.inFrame = true
	d.screenStarted = false
	d.bound = nil
	d.active = nil
	return nil
}

func (d *Device) EndFrame() error {
	if !d.inFrame {
		return nil
	}
	// The window image must reach the present layout even if nothing drew to it.
	if !d.screenStarted {
		d.endPass()
		d.bound = nil
		d.ensurePass()
	}
	d.endPass()
	d.inFrame = false

	f := d.frame()
	if err := f.cmd.End(); err != nil {
		return err
	}
	if err := f.fence.Reset(d.ctx); err != nil {
		return err
	}
	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{f.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{f.cmd.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{f.renderComplete},
	}
	if err := d.ctx.queueLocks.Do(d.ctx.Device.GraphicsQueueIndex, func() error {
		return check("queue submit", vk.QueueSubmit(d.ctx.Device.GraphicsQueue, 1, []vk.SubmitInfo{submit}, f.fence.Handle))
	}); err != nil {
		return err
	}
	f.cmd.State = COMMAND_BUFFER_STATE_SUBMITTED

	outdated, err := d.swapchain.Present(d.ctx, f.renderComplete, d.imageIndex)
	d.current = (d.current + 1) % len(d.frames)
	if outdated {
		d.resizePending = true
	}
	return err
}

func (d *Device) Resize(size gpu.Size) {
	if size == d.size {
		return
	}
	core.LogDebug("Vulkan device resized to %dx%d.", size.Width, size.Height)
	d.size = size
	d.resizePending = true
}

func (d *Device) Destroy() {
	if d.ctx == nil {
		return
	}
	d.ctx.WaitIdle()
	if d.ctx.Device != nil && d.ctx.Device.LogicalDevice != nil {
		for p := range d.programs {
			p.destroy(d.ctx)
		}
		for m := range d.meshes {
			m.release(d.ctx)
			m.destroyed = true
		}
		for t := range d.textures {
			t.image.Destroy(d.ctx)
		}
		for fb := range d.framebuffers {
			fb.destroyHandle(d.ctx)
			fb.renderPass.Destroy(d.ctx)
		}
		for s := range d.surfaces {
			s.image.Destroy(d.ctx)
			s.destroyed = true
		}
		if d.placeholder != nil {
			d.placeholder.image.Destroy(d.ctx)
		}
		if d.swapchain != nil {
			d.swapchain.Destroy(d.ctx)
		}
		for _, f := range d.frames {
			f.destroy(d.ctx)
		}
		if d.sampler != vk.NullSampler {
			vk.DestroySampler(d.ctx.Device.LogicalDevice, d.sampler, d.ctx.Allocator)
		}
		if d.layout != nil {
			d.layout.Destroy(d.ctx)
		}
	}
	clear(d.programs)
	clear(d.meshes)
	clear(d.textures)
	clear(d.framebuffers)
	clear(d.surfaces)
	d.frames = nil
	d.swapchain = nil
	d.ctx.Destroy()
	d.ctx = nil
	core.LogInfo("Vulkan device destroyed.")
}

package renderer

import (
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

type PassState uint8

const (
	PassCreated PassState = iota
	PassBegun
	PassEnded
	PassDestroyed
)

func (s PassState) String() string {
	switch s {
	case PassCreated:
		return "created"
	case PassBegun:
		return "begun"
	case PassEnded:
		return "ended"
	case PassDestroyed:
		return "destroyed"
	}
	return "unknown"
}

type RenderPassConfig struct {
	Name        string
	Program     gpu.Program
	Attachments []gpu.AttachmentSpec
	ClearsDepth bool
	// ClearColor overrides the device clear color between Begin and End.
	ClearColor *gpu.Color
}

// RenderPass draws with one program into one render target.
type RenderPass struct {
	name        string
	program     gpu.Program
	target      *RenderTarget
	device      gpu.Device
	clearsDepth bool
	clearColor  *gpu.Color

	savedColor gpu.Color
	state      PassState
}

func NewRenderPass(device gpu.Device, cfg RenderPassConfig, size gpu.Size) (*RenderPass, error) {
	if cfg.Name == "" {
		return nil, core.NewConfigurationError("render pass", core.ErrNilArgument, "pass name is required")
	}
	if cfg.Program == nil {
		return nil, core.NewConfigurationError("render pass", core.ErrNilArgument, "pass %q has no program", cfg.Name)
	}
	target, err := NewRenderTarget(device, cfg.Attachments, size)
	if err != nil {
		return nil, err
	}
	return &RenderPass{
		name:        cfg.Name,
		program:     cfg.Program,
		target:      target,
		device:      device,
		clearsDepth: cfg.ClearsDepth,
		clearColor:  cfg.ClearColor,
	}, nil
}

// NewDepthPass creates the depth pre-pass. It clears to transparent so that
// uncovered pixels read as no depth.
func NewDepthPass(device gpu.Device, program gpu.Program, size gpu.Size) (*RenderPass, error) {
	transparent := gpu.Transparent
	return NewRenderPass(device, RenderPassConfig{
		Name:    PASS_DEPTH,
		Program: program,
		Attachments: []gpu.AttachmentSpec{
			gpu.ColorTexture,
			gpu.DepthStencilOpaque,
		},
		ClearsDepth: true,
		ClearColor:  &transparent,
	}, size)
}

func (rp *RenderPass) Name() string {
	return rp.name
}

func (rp *RenderPass) Program() gpu.Program {
	return rp.program
}

// SetProgram swaps the program, e.g. after a shader reload.
func (rp *RenderPass) SetProgram(p gpu.Program) {
	if p != nil {
		rp.program = p
	}
}

func (rp *RenderPass) Target() *RenderTarget {
	return rp.target
}

func (rp *RenderPass) ClearsDepth() bool {
	return rp.clearsDepth
}

func (rp *RenderPass) State() PassState {
	return rp.state
}

func (rp *RenderPass) Size() gpu.Size {
	return rp.target.Size()
}

// Begin binds the target, applies the pass clear color and clears it. Every
// successful Begin must be paired with End, typically through defer.
func (rp *RenderPass) Begin() error {
	if rp.state == PassBegun || rp.state == PassDestroyed {
		return core.NewConfigurationError("render pass begin", nil, "pass %q is %s", rp.name, rp.state)
	}
	if rp.clearColor != nil {
		rp.savedColor = rp.device.ClearColor()
		rp.device.SetClearColor(*rp.clearColor)
	}
	rp.target.Bind()
	gpu.Prepare(rp.device, rp.clearsDepth)
	rp.state = PassBegun
	return nil
}

func (rp *RenderPass) End() {
	if rp.state != PassBegun {
		return
	}
	rp.target.Unbind()
	if rp.clearColor != nil {
		rp.device.SetClearColor(rp.savedColor)
	}
	rp.state = PassEnded
}

// Run draws fn between Begin and End with the pass program bound. End runs
// even if fn panics.
func (rp *RenderPass) Run(fn func(program gpu.Program)) error {
	if err := rp.Begin(); err != nil {
		return err
	}
	defer rp.End()
	rp.program.Bind()
	defer rp.program.Unbind()
	fn(rp.program)
	return nil
}

// Resize forwards to the target. On failure the pass keeps rendering at its
// previous size.
func (rp *RenderPass) Resize(size gpu.Size) error {
	if rp.state == PassDestroyed {
		return nil
	}
	return rp.target.Resize(size)
}

func (rp *RenderPass) Destroy() {
	if rp.state == PassDestroyed {
		return
	}
	rp.End()
	rp.target.Destroy()
	rp.state = PassDestroyed
}

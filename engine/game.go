package engine

import (
	"io"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Game is the set of hooks the engine calls. Every hook is optional.
type Game struct {
	Config *core.Config
	// LogOutput overrides where the engine logger writes to.
	LogOutput    io.Writer
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

// Initialize runs once the pipeline is ready, before the first frame. It is
// where the game builds its scene.
type Initialize func(e *Engine) error

// Update runs every frame after the scene update and before rendering.
type Update func(deltaTime float64) error
type OnResize func(size gpu.Size)
type Shutdown func() error

package systems

import (
	"context"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

type SystemManagerConfig struct {
	// ShaderManifest is the TOML manifest listing the programs to create.
	ShaderManifest string
	// HotReload rebuilds programs when their stage files change.
	HotReload bool
}

// SystemManager owns the engine systems that live next to the pipeline.
type SystemManager struct {
	shaderSystem *ShaderSystem
	cancel       context.CancelFunc
}

func NewSystemManager(ctx context.Context, device gpu.Device, bus *core.EventBus, config SystemManagerConfig) (*SystemManager, error) {
	ssys := NewShaderSystem(device, bus)
	if err := ssys.LoadManifest(config.ShaderManifest); err != nil {
		ssys.DestroyAll()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	if config.HotReload {
		if err := ssys.Watch(ctx); err != nil {
			// reloading is a convenience, the engine runs without it
			core.LogWarn("shader hot reload disabled: %s", err)
		}
	}
	return &SystemManager{
		shaderSystem: ssys,
		cancel:       cancel,
	}, nil
}

func (sm *SystemManager) ShaderSystem() *ShaderSystem {
	return sm.shaderSystem
}

/**
 * @brief Applies the work finished in the background since the last call.
 * Should happen once per frame on the render thread.
 */
func (sm *SystemManager) Update() {
	sm.shaderSystem.Poll()
}

// Shutdown stops the background work. Programs are destroyed by the pipeline.
func (sm *SystemManager) Shutdown() error {
	sm.cancel()
	return nil
}

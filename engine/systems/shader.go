package systems

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/tessera/engine/assets"
	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

const MAX_PENDING_RELOADS = 32

/** @brief One program in the shader manifest. Paths are relative to the manifest. */
type ShaderEntry struct {
	Name     string         `toml:"name"`
	Vertex   string         `toml:"vertex"`
	Fragment string         `toml:"fragment"`
	Layout   string         `toml:"layout"`
	Uniforms []UniformEntry `toml:"uniforms"`
}

type UniformEntry struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type ShaderManifest struct {
	Shaders []ShaderEntry `toml:"shader"`
}

// Shader is a stable handle on a program. A reload replaces the program
// behind the handle, so passes and components holding it stay valid.
type Shader struct {
	name    string
	program gpu.Program
	source  gpu.ProgramSource
}

func (s *Shader) Name() string                      { return s.name }
func (s *Shader) Bind()                             { s.program.Bind() }
func (s *Shader) Unbind()                           { s.program.Unbind() }
func (s *Shader) SetInt(name string, v int32)       { s.program.SetInt(name, v) }
func (s *Shader) SetFloat(name string, v float32)   { s.program.SetFloat(name, v) }
func (s *Shader) SetVec2(name string, v mgl32.Vec2) { s.program.SetVec2(name, v) }
func (s *Shader) SetVec3(name string, v mgl32.Vec3) { s.program.SetVec3(name, v) }
func (s *Shader) SetVec4(name string, v mgl32.Vec4) { s.program.SetVec4(name, v) }
func (s *Shader) SetMat4(name string, v mgl32.Mat4) { s.program.SetMat4(name, v) }

// Program returns the backend program currently behind the handle.
func (s *Shader) Program() gpu.Program {
	return s.program
}

func (s *Shader) Source() gpu.ProgramSource {
	return s.source
}

/**
 * @brief The shader registry. It creates programs from a manifest, broadcasts
 * global uniforms to all of them and swaps in programs rebuilt from disk.
 */
type ShaderSystem struct {
	device gpu.Device
	bus    *core.EventBus

	shaders map[string]*Shader

	// globals replays every broadcast uniform, in first-set order, onto
	// programs created later.
	globals     map[string]func(p gpu.Program)
	globalOrder []string

	mu          sync.RWMutex
	manifestDir string
	entries     []ShaderEntry

	pending chan gpu.ProgramSource
}

func NewShaderSystem(device gpu.Device, bus *core.EventBus) *ShaderSystem {
	return &ShaderSystem{
		device:  device,
		bus:     bus,
		shaders: make(map[string]*Shader),
		globals: make(map[string]func(p gpu.Program)),
		pending: make(chan gpu.ProgramSource, MAX_PENDING_RELOADS),
	}
}

// LoadManifest registers every program listed in the TOML manifest at path.
func (s *ShaderSystem) LoadManifest(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.NewConfigurationError("shader manifest", err, "failed to read %s", path)
	}
	var manifest ShaderManifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return core.NewConfigurationError("shader manifest", err, "failed to parse %s", path)
	}

	dir := filepath.Dir(path)
	entries := make([]ShaderEntry, 0, len(manifest.Shaders))
	for _, e := range manifest.Shaders {
		if e.Name == "" {
			return core.NewConfigurationError("shader manifest", core.ErrNilArgument, "%s: shader without a name", path)
		}
		e.Vertex = filepath.Join(dir, e.Vertex)
		e.Fragment = filepath.Join(dir, e.Fragment)
		src, err := loadSource(e)
		if err != nil {
			return err
		}
		if _, err := s.Register(src); err != nil {
			return err
		}
		entries = append(entries, e)
	}

	s.mu.Lock()
	s.manifestDir = dir
	s.entries = entries
	s.mu.Unlock()

	core.LogInfo("loaded %d shaders from %s", len(entries), path)
	return nil
}

func loadSource(e ShaderEntry) (gpu.ProgramSource, error) {
	src := gpu.ProgramSource{Name: e.Name}

	layout, err := parseLayout(e.Layout)
	if err != nil {
		return src, core.NewConfigurationError("shader", err, "program %q", e.Name)
	}
	src.Layout = layout
	for _, u := range e.Uniforms {
		t, err := parseUniformType(u.Type)
		if err != nil {
			return src, core.NewConfigurationError("shader", err, "program %q uniform %q", e.Name, u.Name)
		}
		src.Uniforms = append(src.Uniforms, gpu.UniformDecl{Name: u.Name, Type: t})
	}

	if src.Vertex, err = os.ReadFile(e.Vertex); err != nil {
		return src, core.NewConfigurationError("shader", err, "program %q vertex stage", e.Name)
	}
	if src.Fragment, err = os.ReadFile(e.Fragment); err != nil {
		return src, core.NewConfigurationError("shader", err, "program %q fragment stage", e.Name)
	}
	return src, nil
}

func parseLayout(s string) ([]gpu.VertexAttribute, error) {
	switch strings.ToLower(s) {
	case "", "pnu":
		return gpu.LayoutPNU, nil
	case "pu":
		return gpu.LayoutPU, nil
	}
	return nil, fmt.Errorf("unknown vertex layout %q", s)
}

func parseUniformType(s string) (gpu.UniformType, error) {
	switch strings.ToLower(s) {
	case "int", "sampler2d":
		return gpu.UniformInt, nil
	case "float":
		return gpu.UniformFloat, nil
	case "vec2":
		return gpu.UniformVec2, nil
	case "vec3":
		return gpu.UniformVec3, nil
	case "vec4", "color":
		return gpu.UniformVec4, nil
	case "mat4":
		return gpu.UniformMat4, nil
	}
	return 0, fmt.Errorf("unknown uniform type %q", s)
}

// Register creates a program from src. A program with the same name is
// replaced behind its existing handle. Global uniforms are replayed onto the
// new program.
func (s *ShaderSystem) Register(src gpu.ProgramSource) (*Shader, error) {
	program, err := s.device.CreateProgram(src)
	if err != nil {
		return nil, core.NewBackendError("create program "+src.Name, err)
	}
	for _, name := range s.globalOrder {
		s.globals[name](program)
	}

	if sh, ok := s.shaders[src.Name]; ok {
		s.device.DestroyProgram(sh.program)
		sh.program = program
		sh.source = src
		return sh, nil
	}
	sh := &Shader{name: src.Name, program: program, source: src}
	s.shaders[src.Name] = sh
	return sh, nil
}

// Get returns the program registered as name, or nil.
func (s *ShaderSystem) Get(name string) gpu.Program {
	if sh, ok := s.shaders[name]; ok {
		return sh
	}
	return nil
}

func (s *ShaderSystem) Shader(name string) (*Shader, bool) {
	sh, ok := s.shaders[name]
	return sh, ok
}

func (s *ShaderSystem) Names() []string {
	names := make([]string, 0, len(s.shaders))
	for name := range s.shaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ShaderSystem) broadcast(name string, apply func(p gpu.Program)) {
	if _, ok := s.globals[name]; !ok {
		s.globalOrder = append(s.globalOrder, name)
	}
	s.globals[name] = apply
	for _, sh := range s.shaders {
		apply(sh.program)
	}
}

func (s *ShaderSystem) SetInt(name string, v int32) {
	s.broadcast(name, func(p gpu.Program) { p.SetInt(name, v) })
}

func (s *ShaderSystem) SetFloat(name string, v float32) {
	s.broadcast(name, func(p gpu.Program) { p.SetFloat(name, v) })
}

func (s *ShaderSystem) SetVec2(name string, v mgl32.Vec2) {
	s.broadcast(name, func(p gpu.Program) { p.SetVec2(name, v) })
}

func (s *ShaderSystem) SetVec3(name string, v mgl32.Vec3) {
	s.broadcast(name, func(p gpu.Program) { p.SetVec3(name, v) })
}

func (s *ShaderSystem) SetVec4(name string, v mgl32.Vec4) {
	s.broadcast(name, func(p gpu.Program) { p.SetVec4(name, v) })
}

func (s *ShaderSystem) SetMat4(name string, v mgl32.Mat4) {
	s.broadcast(name, func(p gpu.Program) { p.SetMat4(name, v) })
}

// Watch rebuilds programs whose stage files change under the manifest
// directory until ctx is done. Sources are read on a worker; the programs
// are swapped in by Poll on the render thread.
func (s *ShaderSystem) Watch(ctx context.Context) error {
	s.mu.RLock()
	dir := s.manifestDir
	s.mu.RUnlock()
	if dir == "" {
		return core.NewConfigurationError("shader watch", core.ErrNotFound, "no manifest loaded")
	}

	w, err := assets.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Watch(dir); err != nil {
		w.Close()
		return err
	}
	jobs, err := NewJobSystem(1, MAX_PENDING_RELOADS)
	if err != nil {
		w.Close()
		return err
	}

	go func() {
		defer jobs.Shutdown()
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-w.Changes():
				if !ok {
					return
				}
				s.onChange(c, jobs)
			}
		}
	}()
	core.LogInfo("watching %s for shader changes", dir)
	return nil
}

func (s *ShaderSystem) onChange(c assets.Change, jobs *JobSystem) {
	if c.Removed || c.Type != assets.AssetTypeShader {
		return
	}
	for _, e := range s.entriesUsing(c.Path) {
		entry := e
		err := jobs.Submit(Job{
			Name: "reload " + entry.Name,
			Run: func() (interface{}, error) {
				return loadSource(entry)
			},
			OnComplete: func(result interface{}) {
				s.queue(result.(gpu.ProgramSource))
			},
		})
		if err != nil {
			core.LogWarn("shader %s not reloaded: %s", entry.Name, err)
		}
	}
}

func (s *ShaderSystem) entriesUsing(path string) []ShaderEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ShaderEntry
	for _, e := range s.entries {
		if filepath.Clean(e.Vertex) == path || filepath.Clean(e.Fragment) == path {
			out = append(out, e)
		}
	}
	return out
}

func (s *ShaderSystem) queue(src gpu.ProgramSource) {
	select {
	case s.pending <- src:
	default:
		core.LogWarn("shader reload queue full, dropping %s", src.Name)
	}
}

// Poll swaps in the programs rebuilt since the last call. It must run on the
// render thread. A program that fails to build keeps its previous version.
func (s *ShaderSystem) Poll() int {
	reloaded := 0
	for {
		select {
		case src := <-s.pending:
			if _, err := s.Register(src); err != nil {
				core.LogError("shader %s reload failed, keeping the previous program: %s", src.Name, err)
				continue
			}
			reloaded++
			core.LogInfo("shader %s reloaded", src.Name)
			s.bus.Fire(core.EventContext{Type: core.EVENT_CODE_SHADER_RELOADED, Data: src.Name})
		default:
			return reloaded
		}
	}
}

// DestroyAll destroys every program. Handles returned earlier must not be
// used afterwards.
func (s *ShaderSystem) DestroyAll() {
	for name, sh := range s.shaders {
		s.device.DestroyProgram(sh.program)
		delete(s.shaders, name)
	}
}

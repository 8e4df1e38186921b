package core

import (
	"errors"
	"fmt"
	"os"
	"unicode"

	"github.com/pelletier/go-toml/v2"
)

type ApplicationConfig struct {
	Name     string `toml:"name"`
	X        int    `toml:"x"`
	Y        int    `toml:"y"`
	Width    int    `toml:"width"`
	Height   int    `toml:"height"`
	Headless bool   `toml:"headless"`
	// Frames limits the number of frames in headless mode; zero runs until cancelled.
	Frames int `toml:"frames"`
}

// PassConfig declares an extra post-process pass.
type PassConfig struct {
	Name      string   `toml:"name"`
	Program   string   `toml:"program"`
	Outputs   []string `toml:"outputs"`
	Precision string   `toml:"precision"`
}

type RendererConfig struct {
	Backend         string       `toml:"backend"`
	VSync           bool         `toml:"vsync"`
	Debug           bool         `toml:"debug"`
	ClearColor      [4]float32   `toml:"clear_color"`
	ShaderManifest  string       `toml:"shader_manifest"`
	HotReload       bool         `toml:"hot_reload"`
	MaxTextureUnits int          `toml:"max_texture_units"`
	Post            []PassConfig `toml:"post"`
}

// RESERVED_PASS_NAMES belong to the built-in world passes and to the
// composite uniforms screenTexture and finalTexture.
var RESERVED_PASS_NAMES = []string{"depth", "main", "screen", "final"}

// CheckPassName reports whether a new pass can be called name next to the
// passes in taken. Pass names become part of published uniform names, so
// they must be plain identifiers without underscores.
func CheckPassName(name string, taken []string) error {
	if name == "" {
		return NewConfigurationError("pass name", ErrNilArgument, "a pass needs a name")
	}
	for i, r := range name {
		if !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return NewConfigurationError("pass name", nil, "%q is not a letter-led alphanumeric name", name)
		}
	}
	for _, n := range RESERVED_PASS_NAMES {
		if n == name {
			return NewConfigurationError("pass name", ErrNameTaken, "%q is reserved", name)
		}
	}
	for _, n := range taken {
		if n == name {
			return NewConfigurationError("pass name", ErrNameTaken, "%q is used by another pass", name)
		}
	}
	return nil
}

// UseHeadless reports whether the engine should run without a display.
func (c RendererConfig) UseHeadless(app ApplicationConfig) bool {
	return app.Headless || c.Backend == "headless"
}

type CameraConfig struct {
	Kind string  `toml:"kind"`
	FOV  float32 `toml:"fov"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Log         LogConfig         `toml:"log"`
	Renderer    RendererConfig    `toml:"renderer"`
	Camera      CameraConfig      `toml:"camera"`
}

func DefaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "Tessera",
			X:      100,
			Y:      100,
			Width:  800,
			Height: 600,
		},
		Log: LogConfig{
			Level:  "debug",
			Prefix: "Tessera 🎨 ",
		},
		Renderer: RendererConfig{
			Backend:         "vulkan",
			VSync:           true,
			ClearColor:      [4]float32{0.1, 0.1, 0.1, 1},
			ShaderManifest:  "assets/shaders/shaders.toml",
			MaxTextureUnits: 16,
		},
		Camera: CameraConfig{
			Kind: "fly",
			FOV:  45,
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			LogWarn("config file %s not found, using defaults", path)
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Application.Width <= 0 || c.Application.Height <= 0 {
		return NewConfigurationError("config", nil, "invalid window size %dx%d", c.Application.Width, c.Application.Height)
	}
	switch c.Renderer.Backend {
	case "vulkan", "headless":
	default:
		return NewConfigurationError("config", nil, "unknown renderer backend %q", c.Renderer.Backend)
	}
	if c.Renderer.MaxTextureUnits <= 0 {
		return NewConfigurationError("config", nil, "max_texture_units must be positive")
	}
	names := make([]string, 0, len(c.Renderer.Post))
	for _, p := range c.Renderer.Post {
		if p.Program == "" {
			return NewConfigurationError("config", nil, "post pass %q needs a program", p.Name)
		}
		if err := CheckPassName(p.Name, names); err != nil {
			return err
		}
		names = append(names, p.Name)
	}
	switch c.Camera.Kind {
	case "2d", "3d", "fly":
	default:
		return NewConfigurationError("config", nil, "unknown camera kind %q", c.Camera.Kind)
	}
	return nil
}

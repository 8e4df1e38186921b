package ui

import (
	"path/filepath"
	"strings"

	emath "github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// Glyph locates one character in the font atlas.
type Glyph struct {
	// Source is the glyph rectangle in atlas uv space.
	Source emath.Rect
	// Dest is the glyph quad in pixels.
	Dest    emath.Rect
	Advance float32
}

// Font maps characters to atlas glyphs. Bitmap grids, AngelCode files and
// TrueType faces all produce a Font.
type Font struct {
	name       string
	glyphs     map[rune]Glyph
	atlas      gpu.Texture
	device     gpu.Device
	lineHeight float32
	spaceWidth float32
}

func newFont(name string, device gpu.Device, atlas gpu.Texture) *Font {
	return &Font{
		name:       name,
		glyphs:     make(map[rune]Glyph),
		atlas:      atlas,
		device:     device,
		lineHeight: 1,
		spaceWidth: 1,
	}
}

func (f *Font) Name() string {
	return f.name
}

func (f *Font) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

func (f *Font) GlyphCount() int {
	return len(f.glyphs)
}

func (f *Font) LineHeight() float32 {
	return f.lineHeight
}

func (f *Font) SpaceWidth() float32 {
	return f.spaceWidth
}

func (f *Font) Atlas() gpu.Texture {
	return f.atlas
}

// Destroy releases the atlas when the font created it.
func (f *Font) Destroy() {
	if f.device != nil && f.atlas != nil {
		f.device.DestroyTexture(f.atlas)
	}
	f.atlas = nil
}

func fontName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

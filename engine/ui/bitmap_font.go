package ui

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/graphics"
	emath "github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// NewBitmapFont lays charset out on a grid of charSize cells, left to right
// then top to bottom, over the atlas.
func NewBitmapFont(name string, atlas gpu.Texture, charSize mgl32.Vec2, charset string) (*Font, error) {
	if atlas == nil {
		return nil, core.NewConfigurationError("bitmap font", core.ErrNilArgument, "atlas is required")
	}
	size := atlas.Size()
	cols := int(float32(size.Width) / charSize.X())
	rows := int(float32(size.Height) / charSize.Y())
	if cols < 1 || rows < 1 {
		return nil, core.NewConfigurationError("bitmap font", nil, "cell %v does not fit atlas %dx%d", charSize, size.Width, size.Height)
	}
	runes := []rune(charset)
	if len(runes) > cols*rows {
		return nil, core.NewConfigurationError("bitmap font", nil, "%d characters do not fit a %dx%d grid", len(runes), cols, rows)
	}

	uvW := charSize.X() / float32(size.Width)
	uvH := charSize.Y() / float32(size.Height)

	f := newFont(name, nil, atlas)
	for i, r := range runes {
		col, row := i%cols, i/cols
		f.glyphs[r] = Glyph{
			Source:  emath.NewRect(float32(col)*uvW, float32(row)*uvH, uvW, uvH),
			Dest:    emath.NewRect(0, 0, charSize.X(), charSize.Y()),
			Advance: charSize.X(),
		}
	}
	f.lineHeight = charSize.Y()
	f.spaceWidth = charSize.X()

	core.LogDebug("loaded bitmap font [%s]", name)
	return f, nil
}

// LoadBitmapFont loads the atlas image at path and builds a grid font over it.
func LoadBitmapFont(device gpu.Device, path string, charSize mgl32.Vec2, charset string) (*Font, error) {
	atlas, err := graphics.LoadTexture(device, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bitmap font atlas: %w", err)
	}
	f, err := NewBitmapFont(fontName(path), atlas, charSize, charset)
	if err != nil {
		device.DestroyTexture(atlas)
		return nil, err
	}
	f.device = device
	return f, nil
}

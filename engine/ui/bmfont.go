package ui

import (
	"fmt"
	"path/filepath"

	"github.com/fzipp/bmfont"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/graphics"
	emath "github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// LoadBMFont loads an AngelCode .fnt font. Only the first page is used as atlas.
func LoadBMFont(device gpu.Device, path string) (*Font, error) {
	font, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bmfont %s: %w", path, err)
	}
	desc := font.Descriptor

	pageFile := ""
	pages := 0
	for _, p := range desc.Pages {
		pages++
		if p.ID == 0 {
			pageFile = p.File
		}
	}
	if pageFile == "" {
		return nil, core.NewConfigurationError("bmfont", core.ErrNotFound, "%s has no page 0", path)
	}
	if pages > 1 {
		core.LogWarn("bmfont %s has %d pages, only page 0 is used", path, pages)
	}

	atlas, err := graphics.LoadTexture(device, filepath.Join(filepath.Dir(path), pageFile))
	if err != nil {
		return nil, err
	}

	f := newFont(fontName(path), device, atlas)
	scaleW := float32(desc.Common.ScaleW)
	scaleH := float32(desc.Common.ScaleH)
	if scaleW == 0 || scaleH == 0 {
		size := atlas.Size()
		scaleW, scaleH = float32(size.Width), float32(size.Height)
	}
	for _, g := range desc.Chars {
		if g.Page != 0 {
			continue
		}
		f.glyphs[rune(g.ID)] = Glyph{
			Source: emath.NewRect(
				float32(g.X)/scaleW,
				float32(g.Y)/scaleH,
				float32(g.Width)/scaleW,
				float32(g.Height)/scaleH,
			),
			Dest:    emath.NewRect(float32(g.XOffset), float32(g.YOffset), float32(g.Width), float32(g.Height)),
			Advance: float32(g.XAdvance),
		}
	}
	f.lineHeight = float32(desc.Common.LineHeight)
	if space, ok := f.glyphs[' ']; ok {
		f.spaceWidth = space.Advance
	} else {
		f.spaceWidth = f.lineHeight * 0.5
	}

	core.LogDebug("loaded bmfont [%s] face=%s glyphs=%d", f.name, desc.Info.Face, len(f.glyphs))
	return f, nil
}

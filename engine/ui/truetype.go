package ui

import (
	"fmt"
	"image"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/tessera/engine/core"
	emath "github.com/spaghettifunk/tessera/engine/math"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// DefaultCharset is printable ASCII.
const DefaultCharset = " !\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// LoadTrueType rasterizes charset from a TrueType or OpenType file into an atlas.
func LoadTrueType(device gpu.Device, path string, size float64, charset string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTrueType(device, fontName(path), data, size, charset)
}

// ParseTrueType rasterizes charset from font data into a grid atlas.
func ParseTrueType(device gpu.Device, name string, data []byte, size float64, charset string) (*Font, error) {
	img, glyphs, metrics, err := rasterize(data, size, charset)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize font %s: %w", name, err)
	}

	atlas, err := device.CreateTexture(img)
	if err != nil {
		return nil, err
	}
	f := newFont(name, device, atlas)
	for r, g := range glyphs {
		f.glyphs[r] = g
	}
	f.lineHeight = float32(metrics.Height.Ceil())
	if space, ok := glyphs[' ']; ok {
		f.spaceWidth = space.Advance
	}

	core.LogDebug("loaded truetype font [%s] size=%.1f glyphs=%d atlas=%dx%d", name, size, len(glyphs), img.Bounds().Dx(), img.Bounds().Dy())
	return f, nil
}

func rasterize(data []byte, size float64, charset string) (*image.RGBA, map[rune]Glyph, font.Metrics, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, nil, font.Metrics{}, err
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, nil, font.Metrics{}, err
	}
	defer face.Close()

	metrics := face.Metrics()
	cellH := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()

	runes := []rune(charset)
	if len(runes) == 0 {
		return nil, nil, metrics, core.NewConfigurationError("truetype", nil, "empty charset")
	}
	advances := make([]int, len(runes))
	cellW := 1
	for i, r := range runes {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		advances[i] = adv.Ceil()
		cellW = emath.Max(cellW, advances[i])
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(runes)))))
	rows := (len(runes) + cols - 1) / cols
	atlasW, atlasH := cols*cellW, rows*cellH
	img := image.NewRGBA(image.Rect(0, 0, atlasW, atlasH))

	drawer := &font.Drawer{Dst: img, Src: image.White, Face: face}
	glyphs := make(map[rune]Glyph, len(runes))
	for i, r := range runes {
		if advances[i] == 0 && r != ' ' {
			continue
		}
		x, y := (i%cols)*cellW, (i/cols)*cellH
		drawer.Dot = fixed.P(x, y+ascent)
		drawer.DrawString(string(r))

		adv := float32(advances[i])
		glyphs[r] = Glyph{
			Source: emath.NewRect(
				float32(x)/float32(atlasW),
				float32(y)/float32(atlasH),
				adv/float32(atlasW),
				float32(cellH)/float32(atlasH),
			),
			Dest:    emath.NewRect(0, 0, adv, float32(cellH)),
			Advance: adv,
		}
	}
	return img, glyphs, metrics, nil
}

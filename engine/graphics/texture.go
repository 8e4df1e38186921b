package graphics

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/tessera/engine/core"
	"github.com/spaghettifunk/tessera/engine/renderer/gpu"
)

// LoadImage decodes a png, jpeg, bmp, tiff or webp file into RGBA.
func LoadImage(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	core.LogDebug("decoded %s image %s [%dx%d]", format, path, img.Bounds().Dx(), img.Bounds().Dy())
	return ToRGBA(img), nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// LoadTexture decodes an image file and uploads it to the device.
func LoadTexture(device gpu.Device, path string) (gpu.Texture, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	tex, err := device.CreateTexture(img)
	if err != nil {
		return nil, err
	}
	return tex, nil
}

// Package textures decodes image files into the tightly packed RGBA8 pixels
// the renderer uploads.
package textures

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrEmptyData = errors.New("textures: empty data")

// Image is CPU-side pixel data: non-premultiplied RGBA8, 4 bytes per pixel,
// row-major, top row first.
type Image struct {
	Name   string
	Width  uint32
	Height uint32
	Pixels []byte
}

// Load reads a PNG, JPEG, BMP, TIFF or WebP file.
func Load(path string) (*Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	return decode(path, f)
}

// Decode decodes an in-memory image, auto-detecting the format.
func Decode(name string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	return decode(name, bytes.NewReader(data))
}

func decode(name string, r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", name, err)
	}
	return FromImage(name, img), nil
}

// FromImage converts any image.Image to RGBA8.
func FromImage(name string, img image.Image) *Image {
	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Stride != 4*bounds.Dx() || bounds.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &Image{
		Name:   name,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
		Pixels: nrgba.Pix,
	}
}

// FitWithin returns the image scaled down with Catmull-Rom filtering so that
// neither side exceeds maxDim, keeping the aspect ratio. Images that already
// fit are returned unchanged.
func (t *Image) FitWithin(maxDim uint32) *Image {
	if maxDim == 0 || (t.Width <= maxDim && t.Height <= maxDim) {
		return t
	}

	w, h := maxDim, maxDim
	if t.Width >= t.Height {
		h = max(1, uint32(uint64(t.Height)*uint64(maxDim)/uint64(t.Width)))
	} else {
		w = max(1, uint32(uint64(t.Width)*uint64(maxDim)/uint64(t.Height)))
	}

	src := &image.NRGBA{
		Pix:    t.Pixels,
		Stride: int(t.Width) * 4,
		Rect:   image.Rect(0, 0, int(t.Width), int(t.Height)),
	}
	dst := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return &Image{Name: t.Name, Width: w, Height: h, Pixels: dst.Pix}
}

// Checkerboard creates a size x size texture of 8 x 8 alternating cells,
// starting with c1 in the top-left corner.
func Checkerboard(size uint32, c1, c2 color.NRGBA) *Image {
	pixels := make([]byte, size*size*4)
	blockSize := size / 8
	if blockSize < 1 {
		blockSize = 1
	}

	for y := uint32(0); y < size; y++ {
		for x := uint32(0); x < size; x++ {
			idx := (y*size + x) * 4
			c := c2
			if ((x/blockSize)+(y/blockSize))%2 == 0 {
				c = c1
			}
			pixels[idx] = c.R
			pixels[idx+1] = c.G
			pixels[idx+2] = c.B
			pixels[idx+3] = c.A
		}
	}

	return &Image{Name: "checkerboard", Width: size, Height: size, Pixels: pixels}
}

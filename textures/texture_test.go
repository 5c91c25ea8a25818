package textures

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"golang.org/x/image/bmp"
)

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 70})

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	img, err := Decode("two.png", buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if img.Width != 2 || img.Height != 1 {
		t.Errorf("size: expected 2x1, got %dx%d", img.Width, img.Height)
	}
	expected := []byte{10, 20, 30, 255, 40, 50, 60, 70}
	if !slices.Equal(img.Pixels, expected) {
		t.Errorf("Pixels: expected %v, got %v", expected, img.Pixels)
	}
}

func TestLoadBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.Set(2, 1, color.RGBA{R: 0, G: 128, B: 0, A: 255})

	path := filepath.Join(t.TempDir(), "small.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Width != 3 || img.Height != 2 || len(img.Pixels) != 3*2*4 {
		t.Fatalf("size: expected 3x2 with 24 bytes, got %dx%d with %d", img.Width, img.Height, len(img.Pixels))
	}
	last := img.Pixels[len(img.Pixels)-4:]
	if !slices.Equal(last, []byte{0, 128, 0, 255}) {
		t.Errorf("bottom-right pixel: expected [0 128 0 255], got %v", last)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode("empty", nil); !errors.Is(err, ErrEmptyData) {
		t.Errorf("Decode(nil): expected ErrEmptyData, got %v", err)
	}
	if _, err := Decode("junk", []byte("not an image")); err == nil {
		t.Errorf("Decode(junk): expected error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Errorf("Load(missing): expected error")
	}
}

func TestFromImageUnpremultiplies(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 6, 6))
	src.SetRGBA(5, 5, color.RGBA{R: 128, G: 0, B: 0, A: 128})

	img := FromImage("offset", src)
	if img.Width != 1 || img.Height != 1 {
		t.Fatalf("size: expected 1x1, got %dx%d", img.Width, img.Height)
	}
	expected := []byte{255, 0, 0, 128}
	if !slices.Equal(img.Pixels, expected) {
		t.Errorf("Pixels: expected %v, got %v", expected, img.Pixels)
	}
}

func TestFitWithin(t *testing.T) {
	tests := []struct {
		w, h, max     uint32
		expectW, expH uint32
	}{
		{64, 32, 128, 64, 32},
		{256, 128, 64, 64, 32},
		{100, 400, 100, 25, 100},
		{1000, 1, 10, 10, 1},
		{8, 8, 0, 8, 8},
	}
	for _, tt := range tests {
		src := &Image{Name: "t", Width: tt.w, Height: tt.h, Pixels: make([]byte, tt.w*tt.h*4)}
		got := src.FitWithin(tt.max)
		if got.Width != tt.expectW || got.Height != tt.expH {
			t.Errorf("%dx%d within %d: expected %dx%d, got %dx%d",
				tt.w, tt.h, tt.max, tt.expectW, tt.expH, got.Width, got.Height)
		}
		if len(got.Pixels) != int(got.Width*got.Height*4) {
			t.Errorf("%dx%d within %d: expected %d bytes, got %d",
				tt.w, tt.h, tt.max, got.Width*got.Height*4, len(got.Pixels))
		}
	}

	// A solid image stays solid after filtering.
	solid := Checkerboard(64, color.NRGBA{R: 200, G: 100, B: 50, A: 255}, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	small := solid.FitWithin(16)
	for i, want := range []byte{200, 100, 50, 255} {
		got := small.Pixels[i]
		if d := int(got) - int(want); d < -1 || d > 1 {
			t.Errorf("solid downscale channel %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestCheckerboard(t *testing.T) {
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{A: 255}
	img := Checkerboard(16, white, black)

	if img.Width != 16 || img.Height != 16 || len(img.Pixels) != 16*16*4 {
		t.Fatalf("size: expected 16x16, got %dx%d with %d bytes", img.Width, img.Height, len(img.Pixels))
	}

	at := func(x, y uint32) []byte {
		i := (y*16 + x) * 4
		return img.Pixels[i : i+4]
	}
	// Cells are 2 pixels wide.
	if !slices.Equal(at(0, 0), []byte{255, 255, 255, 255}) {
		t.Errorf("(0,0): expected white, got %v", at(0, 0))
	}
	if !slices.Equal(at(2, 0), []byte{0, 0, 0, 255}) {
		t.Errorf("(2,0): expected black, got %v", at(2, 0))
	}
	if !slices.Equal(at(2, 2), []byte{255, 255, 255, 255}) {
		t.Errorf("(2,2): expected white, got %v", at(2, 2))
	}
}

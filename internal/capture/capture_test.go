package capture

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/draw"

	"gltf-renderer/internal/texture"
)

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"out.png", PNG, false},
		{"OUT.PNG", PNG, false},
		{"out", PNG, false},
		{"shots/a.webp", WebP, false},
		{"out.jpg", 0, true},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.path)
		if tt.err {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("FormatFor(%q) err = %v, want ErrUnknownFormat", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatFor(%q) = %v, %v; want %v", tt.path, got, err, tt.want)
		}
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := fill(5, 3, color.NRGBA{12, 34, 56, 255})
	for _, name := range []string{"a.png", "nested/b.webp"} {
		path := filepath.Join(dir, name)
		if err := WriteFile(path, src); err != nil {
			t.Fatalf("WriteFile(%s): %v", name, err)
		}
		got, err := texture.LoadTexture(path)
		if err != nil {
			t.Fatalf("decode %s: %v", name, err)
		}
		if got.Bounds() != src.Bounds() {
			t.Fatalf("%s bounds = %v", name, got.Bounds())
		}
		if c := got.NRGBAAt(4, 2); c != src.NRGBAAt(4, 2) {
			t.Errorf("%s pixel = %v, want %v (lossless)", name, c, src.NRGBAAt(4, 2))
		}
	}
}

func TestWriteFileUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.bmp")
	if err := WriteFile(path, fill(1, 1, color.NRGBA{A: 255})); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("err = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file created for unknown format")
	}
}

func TestDownsample(t *testing.T) {
	src := fill(8, 6, color.NRGBA{200, 100, 50, 255})
	got := Downsample(src, 4, 3)
	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("bounds = %v", b)
	}
	c := got.NRGBAAt(2, 1)
	if c.A != 255 || absDiff(c.R, 200) > 1 || absDiff(c.G, 100) > 1 || absDiff(c.B, 50) > 1 {
		t.Errorf("pixel = %v, want ~{200 100 50 255}", c)
	}
	if Downsample(src, 8, 6) != src {
		t.Error("same-size downsample copied the image")
	}
}

func TestDownsampleNoDarkHalo(t *testing.T) {
	// transparent black next to opaque white must stay white where visible
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 2; x++ {
			src.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	got := Downsample(src, 2, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			c := got.NRGBAAt(x, y)
			if c.A > 16 && c.R < 240 {
				t.Errorf("pixel (%d,%d) = %v, darkened by transparent neighbours", x, y, c)
			}
		}
	}
}

func TestDownsampleOpaqueFrame(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.SetNRGBA(x, y, color.NRGBA{uint8(x * 30), uint8(y * 30), 90, 255})
		}
	}
	got := Downsample(src, 3, 3)

	scaled := image.NewRGBA(image.Rect(0, 0, 3, 3))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Src, nil)
	want := unpremultiply(scaled)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			if g, w := got.NRGBAAt(x, y), want.NRGBAAt(x, y); g != w || g.A != 255 {
				t.Errorf("pixel (%d,%d) = %v, want %v", x, y, g, w)
			}
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

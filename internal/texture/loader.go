package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

var (
	pngMagic  = []byte("\x89PNG\r\n\x1a\n")
	jpegMagic = []byte{0xff, 0xd8}
)

// decoderFor picks a decoder from the leading bytes. TGA has no magic
// number, so it is the fallback and never goes through image.Decode.
func decoderFor(data []byte) (string, func(io.Reader) (image.Image, error)) {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return "png", png.Decode
	case bytes.HasPrefix(data, jpegMagic):
		return "jpeg", jpeg.Decode
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return "webp", nativewebp.Decode
	default:
		return "tga", tga.Decode
	}
}

// Decode decodes PNG, JPEG, WebP or TGA data into an NRGBA image.
func Decode(data []byte) (*image.NRGBA, error) {
	format, decode := decoderFor(data)
	img, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", format, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("texture: empty %s image", format)
	}
	return ToNRGBA(img), nil
}

// LoadTexture reads and decodes an image file.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	img, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("texture: %s: %w", path, err)
	}
	return img, nil
}

// ToNRGBA converts any image to NRGBA format with its origin at (0, 0).
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

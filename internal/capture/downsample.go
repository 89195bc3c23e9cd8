package capture

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample resizes a supersampled frame to w×h with Catmull-Rom filtering.
// The scaler premultiplies NRGBA sources itself, so transparent edges do not
// bleed dark halos. Frames already at the target size are returned unchanged.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)

	// Rendered frames are cleared to an opaque background, and with every
	// alpha at 255 premultiplied and straight pixels are the same bytes.
	if dst.Opaque() {
		return &image.NRGBA{Pix: dst.Pix, Stride: dst.Stride, Rect: dst.Rect}
	}
	return unpremultiply(dst)
}

func unpremultiply(src *image.RGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Rect)
	for i := 0; i < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		out.Pix[i+3] = a
		if a == 0 {
			continue
		}
		inv := 255 / float64(a)
		out.Pix[i] = clamp8(float64(src.Pix[i]) * inv)
		out.Pix[i+1] = clamp8(float64(src.Pix[i+1]) * inv)
		out.Pix[i+2] = clamp8(float64(src.Pix[i+2]) * inv)
	}
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

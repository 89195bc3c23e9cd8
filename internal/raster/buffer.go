package raster

import (
	"image"
	"image/color"
	"math"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Width  int
	Height int
	Color  []uint8   // NRGBA interleaved, len = W*H*4
	ZBuf   []float64 // NDC depth per pixel, len = W*H, smaller is closer
}

// NewFrameBuffer allocates a framebuffer cleared to transparent black and
// an empty (+inf) depth buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	fb := &FrameBuffer{
		Width:  w,
		Height: h,
		Color:  make([]uint8, w*h*4),
		ZBuf:   make([]float64, w*h),
	}
	fb.Clear(color.NRGBA{})
	return fb
}

// Clear fills the colour buffer with c and resets depth.
func (fb *FrameBuffer) Clear(c color.NRGBA) {
	for i := 0; i < len(fb.Color); i += 4 {
		fb.Color[i] = c.R
		fb.Color[i+1] = c.G
		fb.Color[i+2] = c.B
		fb.Color[i+3] = c.A
	}
	for i := range fb.ZBuf {
		fb.ZBuf[i] = math.Inf(1)
	}
}

// Viewport is a pixel rectangle with a bottom-left origin.
type Viewport struct {
	Left, Bottom  int
	Width, Height int
}

// ReadPixels copies the viewport into a new top-left-origin image.
func (fb *FrameBuffer) ReadPixels(vp Viewport) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, vp.Width, vp.Height))
	for y := 0; y < vp.Height; y++ {
		// framebuffer rows are stored top-down
		sy := fb.Height - (vp.Bottom + vp.Height) + y
		if sy < 0 || sy >= fb.Height {
			continue
		}
		for x := 0; x < vp.Width; x++ {
			sx := vp.Left + x
			if sx < 0 || sx >= fb.Width {
				continue
			}
			si := (sy*fb.Width + sx) * 4
			di := img.PixOffset(x, y)
			copy(img.Pix[di:di+4], fb.Color[si:si+4])
		}
	}
	return img
}

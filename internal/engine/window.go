package engine

import "math"

// Window is a logical window whose drawable surface is PixelRatio times
// larger on each axis, as on a high-density display.
type Window struct {
	Width      int
	Height     int
	PixelRatio float64 // drawable pixels per window unit; 0 means 1
}

func (w Window) ratio() float64 {
	if w.PixelRatio <= 0 {
		return 1
	}
	return w.PixelRatio
}

// DrawableSize is the backing framebuffer size in pixels.
func (w Window) DrawableSize() (int, int) {
	r := w.ratio()
	return int(math.Round(float64(w.Width) * r)), int(math.Round(float64(w.Height) * r))
}

// BackingScale is the ratio between drawable and window width. It uses
// floating-point division, so fractional display scales such as 1.5 are
// detected.
func BackingScale(windowWidth, drawableWidth int) float64 {
	if windowWidth <= 0 {
		return 1
	}
	return float64(drawableWidth) / float64(windowWidth)
}

// WindowReport describes what ConfigureWindow saw and did.
type WindowReport struct {
	InitialWidth, InitialHeight   int
	DrawableWidth, DrawableHeight int
	Scale                         float64
	Resized                       bool
	Width, Height                 int // window size after configuration
}

// ConfigureWindow shrinks w when the backing scale is above 1, so the
// drawable surface keeps the requested pixel size on every display density.
func ConfigureWindow(w *Window) WindowReport {
	dw, dh := w.DrawableSize()
	rep := WindowReport{
		InitialWidth:   w.Width,
		InitialHeight:  w.Height,
		DrawableWidth:  dw,
		DrawableHeight: dh,
		Scale:          BackingScale(w.Width, dw),
	}
	if rep.Scale > 1 {
		w.Width = int(float64(w.Width) / rep.Scale)
		w.Height = int(float64(w.Height) / rep.Scale)
		rep.Resized = true
	}
	rep.Width, rep.Height = w.Width, w.Height
	return rep
}

// Package compare checks a rendered frame against a reference screenshot.
package compare

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"gltf-renderer/internal/capture"
	"gltf-renderer/internal/texture"
)

// ErrSizeMismatch is returned when the images differ in size and resizing
// the reference is not allowed.
var ErrSizeMismatch = errors.New("compare: image sizes differ")

// Options configures a comparison.
type Options struct {
	// Tolerance is the largest per-channel difference (0-255) that still
	// counts as equal.
	Tolerance int
	// MaxDifferentPercent lets a comparison pass when at most this share of
	// pixels differ. Zero requires every pixel to match.
	MaxDifferentPercent float64
	// ResizeReference resamples the reference to the actual size instead of
	// failing on a size mismatch.
	ResizeReference bool
	// DiffImagePath, when set, receives an image with differing pixels in
	// red over a grey copy of the actual frame. Written only on failure.
	DiffImagePath string
}

// Result is the outcome of one comparison.
type Result struct {
	Match           bool   `json:"match"`
	DifferentPixels int    `json:"different_pixels"`
	TotalPixels     int    `json:"total_pixels"`
	MaxDifference   int    `json:"max_difference"`
	Resized         bool   `json:"resized,omitempty"`
	DiffImage       string `json:"diff_image,omitempty"`
}

// DifferentPercent is the share of differing pixels, 0-100.
func (r *Result) DifferentPercent() float64 {
	if r.TotalPixels == 0 {
		return 0
	}
	return float64(r.DifferentPixels) / float64(r.TotalPixels) * 100
}

// LoadImage decodes any format the texture decoder understands.
func LoadImage(path string) (*image.NRGBA, error) {
	img, err := texture.LoadTexture(path)
	if err != nil {
		return nil, fmt.Errorf("compare: load %s: %w", path, err)
	}
	return img, nil
}

// Compare checks actual against expected pixel by pixel.
func Compare(actual, expected *image.NRGBA, opts Options) (*Result, error) {
	ab := actual.Bounds()
	eb := expected.Bounds()
	res := &Result{Match: true, TotalPixels: ab.Dx() * ab.Dy()}

	if ab.Size() != eb.Size() {
		if !opts.ResizeReference {
			return &Result{}, fmt.Errorf("%w: actual %dx%d, expected %dx%d",
				ErrSizeMismatch, ab.Dx(), ab.Dy(), eb.Dx(), eb.Dy())
		}
		expected = texture.ToNRGBA(resize.Resize(uint(ab.Dx()), uint(ab.Dy()), expected, resize.Lanczos3))
		eb = expected.Bounds()
		res.Resized = true
	}

	var diffImg *image.NRGBA
	if opts.DiffImagePath != "" {
		diffImg = image.NewNRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy()))
	}

	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			a := actual.NRGBAAt(ab.Min.X+x, ab.Min.Y+y)
			e := expected.NRGBAAt(eb.Min.X+x, eb.Min.Y+y)
			diff := maxInt(
				absInt(int(a.R)-int(e.R)),
				absInt(int(a.G)-int(e.G)),
				absInt(int(a.B)-int(e.B)),
				absInt(int(a.A)-int(e.A)),
			)
			if diff > res.MaxDifference {
				res.MaxDifference = diff
			}

			if diff > opts.Tolerance {
				res.DifferentPixels++
				if diffImg != nil {
					diffImg.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
				}
			} else if diffImg != nil {
				g := uint8((299*int(a.R) + 587*int(a.G) + 114*int(a.B)) / 1000)
				diffImg.SetNRGBA(x, y, color.NRGBA{g, g, g, 255})
			}
		}
	}

	if res.DifferentPixels > 0 {
		res.Match = opts.MaxDifferentPercent > 0 && res.DifferentPercent() <= opts.MaxDifferentPercent
	}

	if diffImg != nil && !res.Match {
		if err := capture.WriteFile(opts.DiffImagePath, diffImg); err != nil {
			return res, fmt.Errorf("compare: save diff image: %w", err)
		}
		res.DiffImage = opts.DiffImagePath
	}
	return res, nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

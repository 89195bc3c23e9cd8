package raster

import (
	"image"
	"math"

	"gltf-renderer/internal/mathutil"
	"gltf-renderer/internal/model"
)

// vertex is a clip-space vertex with the attributes the fragment stage needs.
type vertex struct {
	clip  mathutil.Vec4
	uv    [2]float64
	shade mathutil.Vec3 // exposed linear light
}

func lerpVertex(a, b vertex, t float64) vertex {
	return vertex{
		clip: a.clip.Lerp(b.clip, t),
		uv:   [2]float64{a.uv[0] + (b.uv[0]-a.uv[0])*t, a.uv[1] + (b.uv[1]-a.uv[1])*t},
		shade: mathutil.Vec3{
			a.shade[0] + (b.shade[0]-a.shade[0])*t,
			a.shade[1] + (b.shade[1]-a.shade[1])*t,
			a.shade[2] + (b.shade[2]-a.shade[2])*t,
		},
	}
}

// clipNear clips a polygon against the near plane (z >= -w) in clip space.
// Attributes are interpolated linearly, which is correct before the divide.
func clipNear(in []vertex, out []vertex) []vertex {
	out = out[:0]
	dist := func(v vertex) float64 { return v.clip[2] + v.clip[3] }
	for i := range in {
		a := in[i]
		b := in[(i+1)%len(in)]
		da, db := dist(a), dist(b)
		if da >= 0 {
			out = append(out, a)
		}
		if (da >= 0) != (db >= 0) {
			out = append(out, lerpVertex(a, b, da/(da-db)))
		}
	}
	return out
}

// screenVertex is a vertex after the perspective divide and viewport map.
type screenVertex struct {
	x, y, z float64 // pixels, pixels, NDC depth
	invW    float64
	uvW     [2]float64    // uv / w
	shadeW  mathutil.Vec3 // shade / w
}

func toScreen(v vertex, w, h int) screenVertex {
	invW := 1 / v.clip[3]
	return screenVertex{
		x:      (v.clip[0]*invW + 1) / 2 * float64(w),
		y:      (1 - v.clip[1]*invW) / 2 * float64(h),
		z:      v.clip[2] * invW,
		invW:   invW,
		uvW:    [2]float64{v.uv[0] * invW, v.uv[1] * invW},
		shadeW: v.shade.Scale(invW),
	}
}

// fragmentState is constant across one primitive.
type fragmentState struct {
	mat      *model.Material
	tex      *image.NRGBA
	blend    bool
	invGamma float64
}

// rasterizeTriangle fills one screen-space triangle with a z-buffer test,
// perspective-correct interpolation, texture mapping, ACES tone mapping and
// sRGB encoding. Pixels are sampled at their centres; a pixel is covered
// when all three barycentrics are non-negative.
//
// Hot path: nothing in the pixel loop allocates.
func rasterizeTriangle(fb *FrameBuffer, s0, s1, s2 screenVertex, fs *fragmentState) {
	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(s0.x, s1.x), s2.x)))
	maxX := int(math.Ceil(math.Max(math.Max(s0.x, s1.x), s2.x)))
	minY := int(math.Floor(math.Min(math.Min(s0.y, s1.y), s2.y)))
	maxY := int(math.Ceil(math.Max(math.Max(s0.y, s1.y), s2.y)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (s1.y-s2.y)*(s0.x-s2.x) + (s2.x-s1.x)*(s0.y-s2.y)
	if det > -1e-12 && det < 1e-12 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := s1.y - s2.y
	dx21 := s2.x - s1.x
	dy20 := s2.y - s0.y
	dx02 := s0.x - s2.x

	mat := fs.mat
	base := mat.BaseColor

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - s2.y
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - s2.x
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}

			z := w0*s0.z + w1*s1.z + w2*s2.z
			zIdx := rowOff + sx
			if z < -1 || z > 1 || z >= fb.ZBuf[zIdx] {
				continue
			}

			// Perspective-correct weights
			invW := w0*s0.invW + w1*s1.invW + w2*s2.invW
			pw := 1 / invW

			r, g, b, a := base[0], base[1], base[2], base[3]
			if fs.tex != nil {
				u := (w0*s0.uvW[0] + w1*s1.uvW[0] + w2*s2.uvW[0]) * pw
				v := (w0*s0.uvW[1] + w1*s1.uvW[1] + w2*s2.uvW[1]) * pw
				tr, tg, tb, ta := SampleTexture(fs.tex, u, v)
				r *= srgbToLinear[tr]
				g *= srgbToLinear[tg]
				b *= srgbToLinear[tb]
				a *= float64(ta) / 255
			}

			switch mat.AlphaMode {
			case model.AlphaOpaque:
				a = 1
			case model.AlphaMask:
				if a < mat.AlphaCutoff {
					continue
				}
				a = 1
			}
			if a <= 0 {
				continue
			}

			shR := (w0*s0.shadeW[0] + w1*s1.shadeW[0] + w2*s2.shadeW[0]) * pw
			shG := (w0*s0.shadeW[1] + w1*s1.shadeW[1] + w2*s2.shadeW[1]) * pw
			shB := (w0*s0.shadeW[2] + w1*s1.shadeW[2] + w2*s2.shadeW[2]) * pw

			// Tone map, then linear → sRGB encode
			fr := math.Pow(ACESTonemap(r*shR), fs.invGamma) * 255
			fg := math.Pow(ACESTonemap(g*shG), fs.invGamma) * 255
			fbl := math.Pow(ACESTonemap(b*shB), fs.invGamma) * 255

			pxIdx := zIdx * 4
			if !fs.blend {
				fb.ZBuf[zIdx] = z
				fb.Color[pxIdx] = clamp255(fr)
				fb.Color[pxIdx+1] = clamp255(fg)
				fb.Color[pxIdx+2] = clamp255(fbl)
				fb.Color[pxIdx+3] = 255
				continue
			}

			// Source-over blend, no depth write
			dstA := float64(fb.Color[pxIdx+3]) / 255
			outA := a + dstA*(1-a)
			if outA <= 0 {
				continue
			}
			fb.Color[pxIdx] = blendOver(fr, fb.Color[pxIdx], a, dstA, outA)
			fb.Color[pxIdx+1] = blendOver(fg, fb.Color[pxIdx+1], a, dstA, outA)
			fb.Color[pxIdx+2] = blendOver(fbl, fb.Color[pxIdx+2], a, dstA, outA)
			fb.Color[pxIdx+3] = clamp255(outA * 255)
		}
	}
}

func blendOver(src float64, dst uint8, srcA, dstA, outA float64) uint8 {
	return clamp255((src*srcA + float64(dst)*dstA*(1-srcA)) / outA)
}

package raster

import (
	"math"

	"gltf-renderer/internal/ibl"
	"gltf-renderer/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters in physical units:
// a sun in lux, an IBL scale, and a camera exposure.
type LightConfig struct {
	SunDirection   mathutil.Vec3 // direction the light travels, normalized
	SunColor       mathutil.Vec3 // linear RGB
	SunIlluminance float64       // lux
	IBLIntensity   float64
	Exposure       float64
	InvGamma       float64
}

// Exposure returns the photometric exposure of a camera with the given
// aperture (f-stops), shutter speed (seconds) and sensitivity (ISO).
func Exposure(aperture, shutterSpeed, sensitivity float64) float64 {
	ev100 := math.Log2((aperture * aperture) / shutterSpeed * 100 / sensitivity)
	return 1 / (1.2 * math.Pow(2, ev100))
}

// DefaultLightConfig is a white overhead sun of 110000 lux with a default
// camera (f/16, 1/125 s, ISO 100).
func DefaultLightConfig() LightConfig {
	return LightConfig{
		SunDirection:   mathutil.Vec3{0, -1, 0},
		SunColor:       mathutil.Vec3{1, 1, 1},
		SunIlluminance: 110000,
		IBLIntensity:   30000,
		Exposure:       Exposure(16, 1.0/125, 100),
		InvGamma:       1.0 / 2.2,
	}
}

// Shade returns the exposed linear light reaching a Lambertian surface with
// world normal n.
func (lc *LightConfig) Shade(n mathutil.Vec3, env *ibl.Environment) mathutil.Vec3 {
	ndl := math.Max(n.Dot(lc.SunDirection.Scale(-1)), 0)
	sun := lc.SunColor.Scale(lc.SunIlluminance * lc.Exposure / math.Pi * ndl)
	if env == nil {
		return sun
	}
	return sun.Add(env.Irradiance(n).Scale(lc.IBLIntensity * lc.Exposure))
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// Package ibl reads the diffuse part of an image-based light produced by
// cmgen's deploy option: nine RGB spherical-harmonics coefficients.
package ibl

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gltf-renderer/internal/mathutil"
)

// SHFile is the coefficient file name inside a deploy directory.
const SHFile = "sh.txt"

// numCoeffs is three SH bands.
const numCoeffs = 9

var tripleRE = regexp.MustCompile(`\(\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)\s*,\s*([-+0-9.eE]+)\s*\)`)

// Environment evaluates diffuse irradiance for a surface normal.
type Environment struct {
	SH       [numCoeffs]mathutil.Vec3 // pre-scaled, Filament ordering
	Rotation mathutil.Mat3            // environment → world
	// Intensity multiplies every evaluated irradiance.
	Intensity float64
}

// Default is a flat grey ambient used when no IBL is configured.
func Default() *Environment {
	env := &Environment{Rotation: mathutil.Mat3Identity(), Intensity: 1}
	env.SH[0] = mathutil.Vec3{0.35, 0.35, 0.35}
	return env
}

// Load reads dir/sh.txt. The returned environment is rotated a quarter turn
// about +Y so lighting matches the orientation of the skybox.
func Load(dir string) (*Environment, error) {
	path := filepath.Join(dir, SHFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ibl: open %s: %w", path, err)
	}
	defer f.Close()

	env := &Environment{Rotation: mathutil.RotY(math.Pi / 2), Intensity: 1}
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() && n < numCoeffs {
		m := tripleRE.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(m[k+1], 64)
			if err != nil {
				return nil, fmt.Errorf("ibl: %s line %d: %w", path, n+1, err)
			}
			env.SH[n][k] = v
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ibl: read %s: %w", path, err)
	}
	if n < numCoeffs {
		return nil, fmt.Errorf("ibl: %s: found %d coefficients, want %d", path, n, numCoeffs)
	}
	return env, nil
}

// Irradiance returns linear RGB irradiance for a unit world-space normal.
// Negative lobes are clamped to zero.
func (e *Environment) Irradiance(n mathutil.Vec3) mathutil.Vec3 {
	// Sample in environment space: inverse of a rotation is its transpose.
	d := e.Rotation.Transpose().MulVec3(n)
	x, y, z := d[0], d[1], d[2]

	basis := [numCoeffs]float64{
		1,
		y,
		z,
		x,
		y * x,
		y * z,
		3*z*z - 1,
		z * x,
		x*x - y*y,
	}
	var r mathutil.Vec3
	for i, b := range basis {
		r = r.Add(e.SH[i].Scale(b))
	}
	return r.Max(mathutil.Vec3{}).Scale(e.Intensity)
}

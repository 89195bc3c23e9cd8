package model

import (
	"image"

	"gltf-renderer/internal/mathutil"
)

// AlphaMode mirrors the glTF material alpha modes.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// Material holds the subset of glTF PBR material state the rasterizer uses.
type Material struct {
	Name        string
	BaseColor   [4]float64 // linear RGBA factor
	Texture     *image.NRGBA
	DoubleSided bool
	AlphaMode   AlphaMode
	AlphaCutoff float64
}

// DefaultMaterial is used by primitives that reference no material.
func DefaultMaterial() *Material {
	return &Material{
		Name:        "default",
		BaseColor:   [4]float64{1, 1, 1, 1},
		AlphaCutoff: 0.5,
	}
}

// Primitive is one indexed triangle list with positions and normals already
// in model space (node transforms baked in).
type Primitive struct {
	Positions []mathutil.Vec3
	Normals   []mathutil.Vec3 // nil when the asset has none
	UVs       [][2]float64    // nil when the asset has none
	Indices   []uint32        // len is a multiple of 3
	Material  *Material
}

// TriangleCount returns the number of triangles in the primitive.
func (p *Primitive) TriangleCount() int {
	return len(p.Indices) / 3
}

// Model is a loaded asset, or several merged assets, ready to render.
type Model struct {
	Name       string
	Primitives []Primitive
	Bounds     mathutil.Box
	// Warnings collects non-fatal problems such as unreadable textures.
	Warnings []string
}

// TriangleCount returns the number of triangles across all primitives.
func (m *Model) TriangleCount() int {
	n := 0
	for i := range m.Primitives {
		n += m.Primitives[i].TriangleCount()
	}
	return n
}

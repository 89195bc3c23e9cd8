// Package model loads glTF 2.0 assets (.gltf and .glb) into flat triangle
// lists with node transforms baked in.
package model

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"gltf-renderer/internal/mathutil"
	"gltf-renderer/internal/texture"
)

// ErrNoTriangles is returned for assets without any renderable triangles.
var ErrNoTriangles = errors.New("model: no triangles found")

// Load reads a .gltf or .glb file. External images are loaded through
// textures; a nil resolver gets a private cache.
func Load(path string, textures texture.Resolver) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open %s: %w", path, err)
	}
	if textures == nil {
		textures = texture.NewCache()
	}

	l := &loader{
		doc:       doc,
		dir:       filepath.Dir(path),
		textures:  textures,
		materials: make(map[int]*Material),
		images:    make(map[int]*imageResult),
	}
	m, err := l.load()
	if err != nil {
		return nil, fmt.Errorf("model: %s: %w", path, err)
	}
	m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return m, nil
}

// LoadAll loads every file and merges them into one model sharing a single
// root, so they are framed together.
func LoadAll(paths []string, textures texture.Resolver) (*Model, error) {
	if textures == nil {
		textures = texture.NewCache()
	}
	merged := &Model{Bounds: mathutil.EmptyBox()}
	var names []string
	for _, p := range paths {
		m, err := Load(p, textures)
		if err != nil {
			return nil, err
		}
		merged.Primitives = append(merged.Primitives, m.Primitives...)
		merged.Bounds = merged.Bounds.Union(m.Bounds)
		for _, w := range m.Warnings {
			merged.Warnings = append(merged.Warnings, m.Name+": "+w)
		}
		names = append(names, m.Name)
	}
	if len(merged.Primitives) == 0 {
		return nil, ErrNoTriangles
	}
	merged.Name = strings.Join(names, "+")
	return merged, nil
}

type imageResult struct {
	img *image.NRGBA
	err error
}

type loader struct {
	doc       *gltf.Document
	dir       string
	textures  texture.Resolver
	index     *texture.Index // built on first unresolved external URI
	materials map[int]*Material
	images    map[int]*imageResult
	warnings  []string
}

func (l *loader) warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *loader) load() (*Model, error) {
	m := &Model{Bounds: mathutil.EmptyBox()}
	defaultMat := DefaultMaterial()

	for _, inst := range collectMeshes(l.doc, sceneRoots(l.doc)) {
		mesh := l.doc.Meshes[inst.mesh]
		normalMat := inst.world.Upper3().NormalMatrix()

		for pi, prim := range mesh.Primitives {
			p, ok, err := l.readPrimitive(prim, inst.world, normalMat)
			if err != nil {
				return nil, fmt.Errorf("mesh %d (%s) primitive %d: %w", inst.mesh, mesh.Name, pi, err)
			}
			if !ok {
				continue
			}
			if prim.Material != nil {
				p.Material = l.material(*prim.Material)
			} else {
				p.Material = defaultMat
			}
			for _, v := range p.Positions {
				m.Bounds.Extend(v)
			}
			m.Primitives = append(m.Primitives, p)
		}
	}

	if len(m.Primitives) == 0 {
		return nil, ErrNoTriangles
	}
	m.Warnings = l.warnings
	return m, nil
}

// readPrimitive returns ok=false for primitives that are skipped rather than
// rejected: non-triangle modes and primitives without positions.
func (l *loader) readPrimitive(prim *gltf.Primitive, world mathutil.Mat4, normalMat mathutil.Mat3) (Primitive, bool, error) {
	switch prim.Mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
	default:
		return Primitive{}, false, nil
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok || posIdx >= len(l.doc.Accessors) {
		return Primitive{}, false, nil
	}
	positions, err := modeler.ReadPosition(l.doc, l.doc.Accessors[posIdx], nil)
	if err != nil {
		return Primitive{}, false, fmt.Errorf("read positions: %w", err)
	}

	var p Primitive
	p.Positions = make([]mathutil.Vec3, len(positions))
	for i, v := range positions {
		p.Positions[i] = world.MulPoint(mathutil.Vec3{float64(v[0]), float64(v[1]), float64(v[2])})
	}

	if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok && normIdx < len(l.doc.Accessors) {
		normals, err := modeler.ReadNormal(l.doc, l.doc.Accessors[normIdx], nil)
		if err != nil {
			l.warnf("read normals: %v", err)
		} else if len(normals) == len(positions) {
			p.Normals = make([]mathutil.Vec3, len(normals))
			for i, n := range normals {
				p.Normals[i] = normalMat.MulVec3(mathutil.Vec3{float64(n[0]), float64(n[1]), float64(n[2])}).Normalize()
			}
		}
	}

	if texIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok && texIdx < len(l.doc.Accessors) {
		uvs, err := modeler.ReadTextureCoord(l.doc, l.doc.Accessors[texIdx], nil)
		if err != nil {
			l.warnf("read texture coordinates: %v", err)
		} else if len(uvs) == len(positions) {
			p.UVs = make([][2]float64, len(uvs))
			for i, uv := range uvs {
				p.UVs[i] = [2]float64{float64(uv[0]), float64(uv[1])}
			}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		if *prim.Indices >= len(l.doc.Accessors) {
			return Primitive{}, false, fmt.Errorf("indices accessor %d out of range", *prim.Indices)
		}
		// ReadIndices converts uint8/uint16/uint32 to []uint32
		indices, err = modeler.ReadIndices(l.doc, l.doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return Primitive{}, false, fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for k := range indices {
			indices[k] = uint32(k)
		}
	}
	for _, idx := range indices {
		if int(idx) >= len(positions) {
			return Primitive{}, false, fmt.Errorf("index %d out of range (%d vertices)", idx, len(positions))
		}
	}

	p.Indices = triangulate(prim.Mode, indices)
	if len(p.Indices) == 0 {
		return Primitive{}, false, nil
	}

	// Mirroring node transforms flip the winding.
	if world.Upper3().Det() < 0 {
		for i := 0; i+2 < len(p.Indices); i += 3 {
			p.Indices[i+1], p.Indices[i+2] = p.Indices[i+2], p.Indices[i+1]
		}
	}
	return p, true, nil
}

// triangulate converts strips and fans to a plain triangle list and drops a
// trailing partial triangle.
func triangulate(mode gltf.PrimitiveMode, in []uint32) []uint32 {
	switch mode {
	case gltf.PrimitiveTriangleStrip:
		var out []uint32
		for i := 0; i+2 < len(in); i++ {
			if i%2 == 0 {
				out = append(out, in[i], in[i+1], in[i+2])
			} else {
				out = append(out, in[i+1], in[i], in[i+2])
			}
		}
		return out
	case gltf.PrimitiveTriangleFan:
		var out []uint32
		for i := 1; i+1 < len(in); i++ {
			out = append(out, in[0], in[i], in[i+1])
		}
		return out
	default:
		return in[:len(in)-len(in)%3]
	}
}

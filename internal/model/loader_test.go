package model

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"

	"gltf-renderer/internal/mathutil"
	"gltf-renderer/internal/model/modeltest"
	"gltf-renderer/internal/texture"
)

func approxVec(a, b mathutil.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.Abs(a[i]-b[i]) > 1e-5 {
			return false
		}
	}
	return true
}

func TestLoadInvalidPath(t *testing.T) {
	if _, err := Load("/nonexistent/path.glb", nil); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadBox(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.glb")
	modeltest.WriteGLB(t, path, modeltest.Box{Min: [3]float32{-1, 0, -2}, Max: [3]float32{1, 3, 2}})

	m, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Name != "box" {
		t.Errorf("Name = %q", m.Name)
	}
	if m.TriangleCount() != 12 {
		t.Errorf("TriangleCount = %d, want 12", m.TriangleCount())
	}
	if !approxVec(m.Bounds.Min, mathutil.Vec3{-1, 0, -2}) || !approxVec(m.Bounds.Max, mathutil.Vec3{1, 3, 2}) {
		t.Errorf("Bounds = %+v", m.Bounds)
	}
	p := m.Primitives[0]
	if p.Material == nil || p.Material.BaseColor != [4]float64{1, 1, 1, 1} {
		t.Errorf("default material = %+v", p.Material)
	}
	if len(p.UVs) != len(p.Positions) {
		t.Errorf("UVs = %d, positions = %d", len(p.UVs), len(p.Positions))
	}
	if p.Normals != nil {
		t.Error("normals should be nil when the asset has none")
	}
}

func TestLoadAppliesNodeTransform(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaled.glb")
	modeltest.WriteGLB(t, path, modeltest.Box{
		Min:       [3]float32{0, 0, 0},
		Max:       [3]float32{1, 1, 1},
		NodeScale: [3]float64{2, 4, 1},
	})

	m, err := Load(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !approxVec(m.Bounds.Max, mathutil.Vec3{2, 4, 1}) {
		t.Errorf("Bounds.Max = %v, want (2, 4, 1)", m.Bounds.Max)
	}
}

func TestLoadMaterialAndExternalTexture(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 255, 255
	}
	f, err := os.Create(filepath.Join(dir, "Albedo.png"))
	if err != nil {
		t.Fatal(err)
	}
	png.Encode(f, img)
	f.Close()

	path := filepath.Join(dir, "textured.glb")
	// URI case differs from the file on disk.
	modeltest.WriteGLB(t, path, modeltest.Box{
		Min:      [3]float32{0, 0, 0},
		Max:      [3]float32{1, 1, 1},
		Color:    [4]float64{0.5, 0.25, 1, 1},
		ImageURI: "albedo.PNG",
	})

	cache := texture.NewCache()
	m, err := Load(path, cache)
	if err != nil {
		t.Fatal(err)
	}
	mat := m.Primitives[0].Material
	if mat.BaseColor != [4]float64{0.5, 0.25, 1, 1} {
		t.Errorf("BaseColor = %v", mat.BaseColor)
	}
	if mat.Texture == nil {
		t.Fatalf("texture not loaded, warnings: %v", m.Warnings)
	}
	if got := mat.Texture.NRGBAAt(1, 1); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("texel = %v", got)
	}
	if cache.Len() != 1 {
		t.Errorf("cache Len = %d, want 1", cache.Len())
	}
}

func TestLoadMissingTextureIsWarning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.glb")
	modeltest.WriteGLB(t, path, modeltest.Box{
		Min:      [3]float32{0, 0, 0},
		Max:      [3]float32{1, 1, 1},
		ImageURI: "nowhere.png",
	})

	m, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Warnings) == 0 {
		t.Error("expected a warning for the missing texture")
	}
	if m.Primitives[0].Material.Texture != nil {
		t.Error("texture should be nil")
	}
}

func TestLoadNoTriangles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.glb")
	doc := modeltest.Document(modeltest.Box{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}})
	doc.Meshes[0].Primitives[0].Mode = gltf.PrimitivePoints
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, nil)
	if !errors.Is(err, ErrNoTriangles) {
		t.Errorf("err = %v, want ErrNoTriangles", err)
	}
}

func TestLoadAllMergesBounds(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.glb")
	b := filepath.Join(dir, "b.glb")
	modeltest.WriteGLB(t, a, modeltest.Box{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}})
	modeltest.WriteGLB(t, b, modeltest.Box{Min: [3]float32{-3, 2, 0}, Max: [3]float32{-2, 5, 4}})

	m, err := LoadAll([]string{a, b}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "a+b" {
		t.Errorf("Name = %q", m.Name)
	}
	if len(m.Primitives) != 2 {
		t.Errorf("Primitives = %d, want 2", len(m.Primitives))
	}
	if !approxVec(m.Bounds.Min, mathutil.Vec3{-3, 0, 0}) || !approxVec(m.Bounds.Max, mathutil.Vec3{1, 5, 4}) {
		t.Errorf("Bounds = %+v", m.Bounds)
	}
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name string
		mode gltf.PrimitiveMode
		in   []uint32
		want []uint32
	}{
		{"list drops partial", gltf.PrimitiveTriangles, []uint32{0, 1, 2, 3, 4}, []uint32{0, 1, 2}},
		{"strip alternates winding", gltf.PrimitiveTriangleStrip, []uint32{0, 1, 2, 3}, []uint32{0, 1, 2, 2, 1, 3}},
		{"fan", gltf.PrimitiveTriangleFan, []uint32{0, 1, 2, 3}, []uint32{0, 1, 2, 0, 2, 3}},
		{"too short", gltf.PrimitiveTriangleFan, []uint32{0, 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := triangulate(tt.mode, tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestSceneRootsWithoutScene(t *testing.T) {
	doc := &gltf.Document{
		Nodes: []*gltf.Node{
			{Children: []int{2}},
			{},
			{},
		},
	}
	roots := sceneRoots(doc)
	if len(roots) != 2 || roots[0] != 0 || roots[1] != 1 {
		t.Errorf("roots = %v, want [0 1]", roots)
	}
}

func TestNodeMatrixPrefersExplicitMatrix(t *testing.T) {
	n := &gltf.Node{
		Matrix:      [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 3, 4, 5, 1},
		Translation: [3]float64{9, 9, 9},
	}
	if got := nodeMatrix(n).MulPoint(mathutil.Vec3{}); got != (mathutil.Vec3{3, 4, 5}) {
		t.Errorf("translation = %v, want (3, 4, 5)", got)
	}
}

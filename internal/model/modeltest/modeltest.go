// Package modeltest writes small glTF assets for tests.
package modeltest

import (
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Box describes an axis-aligned cuboid asset.
type Box struct {
	Min, Max  [3]float32
	Color     [4]float64 // base color factor; zero means no material
	ImageURI  string     // optional base color texture reference
	NodeScale [3]float64 // optional node scale; zero means none
}

// boxGeometry returns the 8 corners and 12 counter-clockwise triangles of
// the cuboid, outward facing.
func boxGeometry(min, max [3]float32) ([][3]float32, [][2]float32, []uint16) {
	pos := [][3]float32{
		{min[0], min[1], min[2]}, {max[0], min[1], min[2]},
		{max[0], max[1], min[2]}, {min[0], max[1], min[2]},
		{min[0], min[1], max[2]}, {max[0], min[1], max[2]},
		{max[0], max[1], max[2]}, {min[0], max[1], max[2]},
	}
	uv := [][2]float32{
		{0, 1}, {1, 1}, {1, 0}, {0, 0},
		{0, 1}, {1, 1}, {1, 0}, {0, 0},
	}
	idx := []uint16{
		4, 5, 6, 4, 6, 7, // +z
		1, 0, 3, 1, 3, 2, // -z
		5, 1, 2, 5, 2, 6, // +x
		0, 4, 7, 0, 7, 3, // -x
		7, 6, 2, 7, 2, 3, // +y
		0, 1, 5, 0, 5, 4, // -y
	}
	return pos, uv, idx
}

// Document builds a glTF document holding one node per box.
func Document(boxes ...Box) *gltf.Document {
	doc := gltf.NewDocument()
	for i, b := range boxes {
		pos, uv, idx := boxGeometry(b.Min, b.Max)
		prim := &gltf.Primitive{
			Indices: gltf.Index(modeler.WriteIndices(doc, idx)),
			Attributes: map[string]int{
				gltf.POSITION:   modeler.WritePosition(doc, pos),
				gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uv),
			},
		}
		if b.Color != [4]float64{} || b.ImageURI != "" {
			color := b.Color
			if color == [4]float64{} {
				color = [4]float64{1, 1, 1, 1}
			}
			pbr := &gltf.PBRMetallicRoughness{BaseColorFactor: &color}
			if b.ImageURI != "" {
				doc.Images = append(doc.Images, &gltf.Image{URI: b.ImageURI})
				doc.Textures = append(doc.Textures, &gltf.Texture{Source: gltf.Index(len(doc.Images) - 1)})
				pbr.BaseColorTexture = &gltf.TextureInfo{Index: len(doc.Textures) - 1}
			}
			doc.Materials = append(doc.Materials, &gltf.Material{PBRMetallicRoughness: pbr})
			prim.Material = gltf.Index(len(doc.Materials) - 1)
		}
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{prim}})

		node := &gltf.Node{Mesh: gltf.Index(i)}
		if b.NodeScale != [3]float64{} {
			node.Scale = b.NodeScale
		}
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}
	return doc
}

// WriteGLB saves boxes as a binary glTF file at path.
func WriteGLB(t testing.TB, path string, boxes ...Box) {
	t.Helper()
	if err := gltf.SaveBinary(Document(boxes...), path); err != nil {
		t.Fatalf("modeltest: save %s: %v", path, err)
	}
}

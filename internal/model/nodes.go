package model

import (
	"github.com/qmuntal/gltf"

	"gltf-renderer/internal/mathutil"
)

// maxNodeDepth bounds scene traversal so a malformed node cycle cannot
// recurse forever.
const maxNodeDepth = 256

// nodeMatrix returns the local transform of a node. An explicit matrix wins
// over translation/rotation/scale, as the glTF format requires.
func nodeMatrix(n *gltf.Node) mathutil.Mat4 {
	if m := mathutil.FromColumnMajor(n.MatrixOrDefault()); !m.IsIdentity() {
		return m
	}
	t := n.Translation
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	return mathutil.FromTRS(
		mathutil.Vec3{t[0], t[1], t[2]},
		mathutil.Quat{r[0], r[1], r[2], r[3]},
		mathutil.Vec3{s[0], s[1], s[2]},
	)
}

// sceneRoots picks the default scene, then scene 0, then every node that is
// nobody's child.
func sceneRoots(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// meshInstance is one mesh reference with the world matrix of its node.
type meshInstance struct {
	mesh  int
	world mathutil.Mat4
}

// collectMeshes walks the node hierarchy from roots, chaining each node's
// local matrix with its parent's.
func collectMeshes(doc *gltf.Document, roots []int) []meshInstance {
	var out []meshInstance
	var walk func(idx int, parent mathutil.Mat4, depth int)
	walk = func(idx int, parent mathutil.Mat4, depth int) {
		if idx < 0 || idx >= len(doc.Nodes) || depth > maxNodeDepth {
			return
		}
		n := doc.Nodes[idx]
		world := mathutil.Mat4Mul(parent, nodeMatrix(n))
		if n.Mesh != nil && *n.Mesh < len(doc.Meshes) {
			out = append(out, meshInstance{mesh: *n.Mesh, world: world})
		}
		for _, c := range n.Children {
			walk(c, world, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, mathutil.Mat4Identity(), 0)
	}
	return out
}

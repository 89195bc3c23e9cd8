// Package raster is a deterministic, single-threaded software rasterizer for
// loaded glTF models.
package raster

import (
	"image"
	"image/color"

	"gltf-renderer/internal/ibl"
	"gltf-renderer/internal/mathutil"
	"gltf-renderer/internal/model"
)

// Camera carries the matrices produced by the framing step.
type Camera struct {
	Projection mathutil.Mat4
	View       mathutil.Mat4
	Position   mathutil.Vec3
}

// Instance places a model in the scene with a root transform.
type Instance struct {
	Model     *model.Model
	Transform mathutil.Mat4
}

// Scene is everything the renderer draws in one frame.
type Scene struct {
	Instances   []Instance
	Light       LightConfig
	Environment *ibl.Environment
}

// NewScene returns an empty scene with the default sun and flat ambient.
func NewScene() *Scene {
	return &Scene{Light: DefaultLightConfig(), Environment: ibl.Default()}
}

// Add appends a model with an identity transform and returns its index.
func (s *Scene) Add(m *model.Model) int {
	s.Instances = append(s.Instances, Instance{Model: m, Transform: mathutil.Mat4Identity()})
	return len(s.Instances) - 1
}

// SetTransform replaces the root transform of instance i.
func (s *Scene) SetTransform(i int, m mathutil.Mat4) {
	s.Instances[i].Transform = m
}

// Stats counts the work of one frame.
type Stats struct {
	Triangles int // submitted
	Culled    int // back-facing or degenerate
	Clipped   int // fully behind the near plane
}

type readback struct {
	vp Viewport
	fn func(*image.NRGBA)
}

// Renderer owns the framebuffer and queued readbacks.
type Renderer struct {
	ClearColor color.NRGBA

	fb      *FrameBuffer
	pending []readback

	// scratch buffers reused across triangles
	poly, clipped []vertex
	world         []mathutil.Vec3
}

// NewRenderer allocates a w×h framebuffer cleared to opaque black.
func NewRenderer(w, h int) *Renderer {
	return &Renderer{
		ClearColor: color.NRGBA{A: 255},
		fb:         NewFrameBuffer(w, h),
		poly:       make([]vertex, 0, 3),
		clipped:    make([]vertex, 0, 4),
	}
}

func (r *Renderer) FrameBuffer() *FrameBuffer {
	return r.fb
}

// Render clears the framebuffer and draws the scene. Opaque and masked
// primitives are drawn first, blended ones afterwards in submission order.
func (r *Renderer) Render(scene *Scene, cam Camera) Stats {
	r.fb.Clear(r.ClearColor)

	var st Stats
	viewProj := cam.Projection.Mul(cam.View)
	for pass := 0; pass < 2; pass++ {
		blend := pass == 1
		for _, inst := range scene.Instances {
			if inst.Model == nil {
				continue
			}
			for i := range inst.Model.Primitives {
				p := &inst.Model.Primitives[i]
				if (p.Material.AlphaMode == model.AlphaBlend) != blend {
					continue
				}
				r.drawPrimitive(p, inst.Transform, viewProj, cam.Position, scene, &st)
			}
		}
	}
	return st
}

func (r *Renderer) drawPrimitive(p *model.Primitive, m, viewProj mathutil.Mat4, eye mathutil.Vec3, scene *Scene, st *Stats) {
	mvp := viewProj.Mul(m)
	normalMat := m.Upper3().NormalMatrix()

	if cap(r.world) < len(p.Positions) {
		r.world = make([]mathutil.Vec3, len(p.Positions))
	}
	world := r.world[:len(p.Positions)]
	for i, v := range p.Positions {
		world[i] = m.MulPoint(v)
	}

	fs := &fragmentState{
		mat:      p.Material,
		tex:      p.Material.Texture,
		blend:    p.Material.AlphaMode == model.AlphaBlend,
		invGamma: scene.Light.InvGamma,
	}

	idx := p.Indices
	for t := 0; t+2 < len(idx); t += 3 {
		st.Triangles++
		i0, i1, i2 := idx[t], idx[t+1], idx[t+2]
		p0, p1, p2 := world[i0], world[i1], world[i2]

		faceN := p1.Sub(p0).Cross(p2.Sub(p0))
		if faceN.Len() < 1e-20 {
			st.Culled++
			continue
		}
		faceN = faceN.Normalize()
		facing := faceN.Dot(eye.Sub(p0)) > 0
		if !facing && !p.Material.DoubleSided {
			st.Culled++
			continue
		}

		r.poly = r.poly[:0]
		for _, vi := range [3]uint32{i0, i1, i2} {
			n := faceN
			if p.Normals != nil {
				n = normalMat.MulVec3(p.Normals[vi]).Normalize()
			}
			if !facing {
				n = n.Scale(-1)
			}
			v := vertex{
				clip:  mvp.MulPointW(p.Positions[vi]),
				shade: scene.Light.Shade(n, scene.Environment),
			}
			if p.UVs != nil {
				v.uv = p.UVs[vi]
			}
			r.poly = append(r.poly, v)
		}

		r.clipped = clipNear(r.poly, r.clipped)
		if len(r.clipped) < 3 {
			st.Clipped++
			continue
		}
		s0 := toScreen(r.clipped[0], r.fb.Width, r.fb.Height)
		for k := 1; k+1 < len(r.clipped); k++ {
			s1 := toScreen(r.clipped[k], r.fb.Width, r.fb.Height)
			s2 := toScreen(r.clipped[k+1], r.fb.Width, r.fb.Height)
			rasterizeTriangle(r.fb, s0, s1, s2, fs)
		}
	}
}

// ReadPixels queues a copy of the viewport. The callback runs from EndFrame,
// after the frame that requested it has finished.
func (r *Renderer) ReadPixels(vp Viewport, fn func(*image.NRGBA)) {
	r.pending = append(r.pending, readback{vp: vp, fn: fn})
}

// EndFrame delivers queued readbacks and returns how many ran.
func (r *Renderer) EndFrame() int {
	pending := r.pending
	r.pending = nil
	for _, rb := range pending {
		rb.fn(r.fb.ReadPixels(rb.vp))
	}
	return len(pending)
}

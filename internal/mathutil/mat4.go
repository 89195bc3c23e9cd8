package mathutil

import "math"

// Mat4 is a 4×4 matrix stored row-major. Points are column vectors, so
// a.Mul(b) applies b first.
type Mat4 [16]float64

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4Mul returns a × b.
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// Mul returns m × b.
func (m Mat4) Mul(b Mat4) Mat4 {
	return Mat4Mul(m, b)
}

// Translate builds a pure translation.
func Translate(t Vec3) Mat4 {
	return Mat4{
		1, 0, 0, t[0],
		0, 1, 0, t[1],
		0, 0, 1, t[2],
		0, 0, 0, 1,
	}
}

// Scale builds a (possibly non-uniform) scale.
func Scale(s Vec3) Mat4 {
	return Mat4{
		s[0], 0, 0, 0,
		0, s[1], 0, 0,
		0, 0, s[2], 0,
		0, 0, 0, 1,
	}
}

// Perspective builds an OpenGL-style projection with a vertical field of view
// in degrees. Clip-space z spans [-w, w] between near and far.
func Perspective(fovDeg, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(Deg2Rad(fovDeg)/2)
	nf := near - far
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) / nf, 2 * far * near / nf,
		0, 0, -1, 0,
	}
}

// FromColumnMajor converts a glTF node matrix.
func FromColumnMajor(c [16]float64) Mat4 {
	return Mat4{
		c[0], c[4], c[8], c[12],
		c[1], c[5], c[9], c[13],
		c[2], c[6], c[10], c[14],
		c[3], c[7], c[11], c[15],
	}
}

// FromTRS composes translation × rotation × scale.
func FromTRS(t Vec3, q Quat, s Vec3) Mat4 {
	r := QuatToMat3(q)
	return Mat4{
		r[0] * s[0], r[1] * s[1], r[2] * s[2], t[0],
		r[3] * s[0], r[4] * s[1], r[5] * s[2], t[1],
		r[6] * s[0], r[7] * s[1], r[8] * s[2], t[2],
		0, 0, 0, 1,
	}
}

// MulPoint transforms a 3D point (w=1) by the 4×4 matrix, ignoring the
// projective row.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
	}
}

// MulPointW transforms a point into homogeneous coordinates.
func (m Mat4) MulPointW(v Vec3) Vec4 {
	return Vec4{
		m[0]*v[0] + m[1]*v[1] + m[2]*v[2] + m[3],
		m[4]*v[0] + m[5]*v[1] + m[6]*v[2] + m[7],
		m[8]*v[0] + m[9]*v[1] + m[10]*v[2] + m[11],
		m[12]*v[0] + m[13]*v[1] + m[14]*v[2] + m[15],
	}
}

// Upper3 returns the linear part.
func (m Mat4) Upper3() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	id := Mat4Identity()
	for i := 0; i < 16; i++ {
		d := m[i] - id[i]
		if d > 1e-8 || d < -1e-8 {
			return false
		}
	}
	return true
}

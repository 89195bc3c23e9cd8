package framing

import (
	"math"

	"gltf-renderer/internal/mathutil"
)

// Camera is a perspective camera placed in front of the room, looking down
// -Z towards the room centre.
type Camera struct {
	Fov      float64 // vertical, degrees
	Aspect   float64
	Near     float64
	Far      float64
	Position mathutil.Vec3
}

// NearPlane is the distance at which a vertical field of view of fovDeg
// covers exactly FramedHeight.
func NearPlane(fovDeg float64) float64 {
	return (FramedHeight / 2) / math.Tan(mathutil.Deg2Rad(fovDeg/2))
}

// CameraFor places the camera so the near plane sits on the front face of a
// room roomDepth deep. It is a pure function of its arguments.
func CameraFor(room Room, roomDepth float64) Camera {
	near := NearPlane(FOV)
	return Camera{
		Fov:      FOV,
		Aspect:   room.Aspect,
		Near:     near,
		Far:      Far,
		Position: mathutil.Vec3{0, FramedHeight / 2, roomDepth/2 + near},
	}
}

func (c Camera) Projection() mathutil.Mat4 {
	return mathutil.Perspective(c.Fov, c.Aspect, c.Near, c.Far)
}

// View is the inverse of the camera model matrix, which is a pure
// translation to Position.
func (c Camera) View() mathutil.Mat4 {
	return mathutil.Translate(c.Position.Scale(-1))
}

// ViewProjection returns Projection × View.
func (c Camera) ViewProjection() mathutil.Mat4 {
	return c.Projection().Mul(c.View())
}

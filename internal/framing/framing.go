// Package framing fits a model into a fixed-height virtual room and places a
// camera that frames the whole room, so screenshots of different models have
// a consistent composition.
package framing

import (
	"errors"
	"fmt"
	"math"

	"gltf-renderer/internal/mathutil"
)

const (
	// FramedHeight is the room height in world units.
	FramedHeight = 10.0
	// RoomPaddingScale shrinks the fitted model to leave a visible margin.
	RoomPaddingScale = 1.01
	// FOV is the vertical field of view in degrees.
	FOV = 45.0
	// Far is the far clip plane distance.
	Far = 100.0
)

var (
	// ErrInvalidSize is returned for non-positive output dimensions.
	ErrInvalidSize = errors.New("framing: output size must be positive")
	// ErrDegenerateBox is returned when a model has no extent on some axis.
	ErrDegenerateBox = errors.New("framing: degenerate bounding box")
)

// Room is the canonical volume a model is fitted into. Its floor sits at
// y=0 and its footprint is square, sized from the output aspect ratio.
type Room struct {
	Aspect    float64
	HalfWidth float64
	Min       mathutil.Vec3
	Max       mathutil.Vec3
}

// NewRoom derives the room for an output image of width×height pixels.
func NewRoom(width, height int) (Room, error) {
	if width <= 0 || height <= 0 {
		return Room{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	aspect := float64(width) / float64(height)
	halfWidth := aspect * FramedHeight / 2
	return Room{
		Aspect:    aspect,
		HalfWidth: halfWidth,
		Min:       mathutil.Vec3{-halfWidth, 0, -halfWidth},
		Max:       mathutil.Vec3{halfWidth, FramedHeight, halfWidth},
	}, nil
}

func (r Room) Size() mathutil.Vec3 {
	return r.Max.Sub(r.Min)
}

func (r Room) Center() mathutil.Vec3 {
	return mathutil.Box{Min: r.Min, Max: r.Max}.Center()
}

// Framing is the result of fitting one model into a room. It is computed
// once per render session and never changes afterwards.
type Framing struct {
	Room        Room
	ModelSize   mathutil.Vec3
	ModelCenter mathutil.Vec3 // already multiplied by Scale
	Scale       float64
	Translation mathutil.Vec3
	// RoomDepth is the depth the camera must keep in view.
	RoomDepth float64
}

// Fit computes the uniform scale and translation that centre box inside the
// room. The scale is the smallest per-axis ratio, so the model never leaves
// the room, divided by RoomPaddingScale.
func Fit(room Room, box mathutil.Box) (Framing, error) {
	modelSize := box.Size()
	if !box.Min.IsFinite() || !box.Max.IsFinite() ||
		modelSize[0] <= 0 || modelSize[1] <= 0 || modelSize[2] <= 0 {
		return Framing{}, fmt.Errorf("%w: size %v (min %v, max %v)",
			ErrDegenerateBox, modelSize, box.Min, box.Max)
	}

	roomSize := room.Size()
	scale := math.Min(roomSize[0]/modelSize[0], roomSize[1]/modelSize[1])
	scale = math.Min(scale, roomSize[2]/modelSize[2])
	scale /= RoomPaddingScale

	modelCenter := box.Center().Scale(scale)
	f := Framing{
		Room:        room,
		ModelSize:   modelSize,
		ModelCenter: modelCenter,
		Scale:       scale,
		Translation: room.Center().Sub(modelCenter),
	}

	if modelSize[1] >= modelSize[0] && modelSize[1] >= modelSize[2] {
		f.RoomDepth = math.Max(modelSize[0], modelSize[2]) * scale * RoomPaddingScale
	} else {
		f.RoomDepth = math.Abs(roomSize[2])
	}
	return f, nil
}

// Matrix is the model root transform: scale first, then translate.
func (f Framing) Matrix() mathutil.Mat4 {
	s := f.Scale
	return mathutil.Translate(f.Translation).Mul(mathutil.Scale(mathutil.Vec3{s, s, s}))
}

// ScaledModelSize is the model extent after fitting.
func (f Framing) ScaledModelSize() mathutil.Vec3 {
	return f.ModelSize.Scale(f.Scale)
}

// Camera derives the camera for this framing.
func (f Framing) Camera() Camera {
	return CameraFor(f.Room, f.RoomDepth)
}

package framing

import (
	"fmt"
	"io"

	"gltf-renderer/internal/mathutil"
)

// Fprint writes the framing numbers in a human-readable form.
func (f Framing) Fprint(w io.Writer) {
	cam := f.Camera()
	fmt.Fprintf(w, "Aspect ratio: %.4f\n", f.Room.Aspect)
	fmt.Fprintf(w, "Half width: %.4f\n", f.Room.HalfWidth)
	fmt.Fprintf(w, "Room size: %s\n", vec(f.Room.Size()))
	fmt.Fprintf(w, "Model size (natural): %s\n", vec(f.ModelSize))
	fmt.Fprintf(w, "Model size (scaled): %s\n", vec(f.ScaledModelSize()))
	fmt.Fprintf(w, "Room center: %s\n", vec(f.Room.Center()))
	fmt.Fprintf(w, "Model center (scaled): %s\n", vec(f.ModelCenter))
	fmt.Fprintf(w, "Scale: %.6f\n", f.Scale)
	fmt.Fprintf(w, "Model translation: %s\n", vec(f.Translation))
	fmt.Fprintf(w, "Room depth: %.4f\n", f.RoomDepth)
	fmt.Fprintf(w, "Camera: fov %.1f, near %.4f, far %.1f, position %s\n",
		cam.Fov, cam.Near, cam.Far, vec(cam.Position))
}

func vec(v mathutil.Vec3) string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f)", v[0], v[1], v[2])
}

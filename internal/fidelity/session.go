package fidelity

import (
	"fmt"
	"image"

	"gltf-renderer/internal/capture"
	"gltf-renderer/internal/engine"
	"gltf-renderer/internal/framing"
	"gltf-renderer/internal/ibl"
	"gltf-renderer/internal/model"
	"gltf-renderer/internal/raster"
)

// session is the engine.App for one screenshot. Everything the callbacks
// share lives here; nothing is kept in package state.
type session struct {
	opts Options

	model   *model.Model
	framing framing.Framing
	camera  framing.Camera
	env     *ibl.Environment

	captureFrame int
	rendered     bool
	captured     *image.NRGBA
	captureErr   error
}

func newSession(opts Options) *session {
	return &session{opts: opts}
}

// Setup loads the models, fits them into the room and lights the scene.
func (s *session) Setup(e *engine.Engine) error {
	m, err := model.LoadAll(s.opts.Models, s.opts.Textures)
	if err != nil {
		return err
	}
	s.model = m

	room, err := framing.NewRoom(s.opts.Width, s.opts.Height)
	if err != nil {
		return err
	}
	f, err := framing.Fit(room, m.Bounds)
	if err != nil {
		return fmt.Errorf("frame %s: %w", m.Name, err)
	}
	s.framing = f

	s.env = ibl.Default()
	if s.opts.IBLDir != "" {
		if s.env, err = ibl.Load(s.opts.IBLDir); err != nil {
			return err
		}
	}

	scene := e.Scene()
	root := scene.Add(m)
	scene.SetTransform(root, f.Matrix())
	scene.Light = raster.DefaultLightConfig()
	scene.Environment = s.env
	return nil
}

// PreRender places the camera. The framing never changes, so this yields
// the same camera on every frame.
func (s *session) PreRender(e *engine.Engine) error {
	s.camera = s.framing.Camera()
	e.SetCamera(raster.Camera{
		Projection: s.camera.Projection(),
		View:       s.camera.View(),
		Position:   s.camera.Position,
	})
	return nil
}

// PostRender requests the capture on the first frame after the warm-up and
// closes the engine once the pixels have been written.
func (s *session) PostRender(e *engine.Engine) error {
	if e.Frame() == s.opts.WarmupFrames+1 {
		s.captureFrame = e.Frame()
		e.Renderer().ReadPixels(e.Viewport(), s.capture)
	}
	if s.rendered {
		e.Close()
		return s.captureErr
	}
	return nil
}

func (s *session) Cleanup(e *engine.Engine) {
	e.Scene().Instances = nil
}

func (s *session) capture(img *image.NRGBA) {
	img = capture.Downsample(img, s.opts.Width, s.opts.Height)
	s.captured = img
	s.rendered = true
	if err := capture.WriteFile(s.opts.Output, img); err != nil {
		s.captureErr = err
	}
}

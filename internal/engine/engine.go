// Package engine hosts a render loop around the software rasterizer. An App
// receives lifecycle callbacks and keeps its own state; the engine owns the
// window, the scene and the renderer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"gltf-renderer/internal/raster"
)

// ErrMaxFrames is returned when an app never closes the engine.
var ErrMaxFrames = errors.New("engine: frame limit reached")

// App is driven by Engine.Run. Frame numbers are 1-based.
type App interface {
	Setup(e *Engine) error
	PreRender(e *Engine) error
	PostRender(e *Engine) error
	Cleanup(e *Engine)
}

// Options configures an Engine.
type Options struct {
	Window     Window
	Background color.NRGBA
	// MaxFrames bounds Run; 0 means no limit.
	MaxFrames int
}

// Engine runs frames until the app closes it.
type Engine struct {
	opts     Options
	window   Window
	report   WindowReport
	renderer *raster.Renderer
	scene    *raster.Scene
	camera   raster.Camera
	stats    raster.Stats
	frame    int
	closed   bool
}

func New(opts Options) *Engine {
	return &Engine{opts: opts, window: opts.Window, scene: raster.NewScene()}
}

// Run configures the window, calls Setup, then renders frames until Close
// is called, ctx is done or the frame limit is hit. Cleanup always runs
// once Setup has been attempted.
func (e *Engine) Run(ctx context.Context, app App) error {
	e.report = ConfigureWindow(&e.window)
	w, h := e.window.DrawableSize()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("engine: drawable size %dx%d", w, h)
	}
	e.renderer = raster.NewRenderer(w, h)
	e.renderer.ClearColor = e.opts.Background

	defer app.Cleanup(e)
	if err := app.Setup(e); err != nil {
		return fmt.Errorf("engine: setup: %w", err)
	}

	for !e.closed {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.opts.MaxFrames > 0 && e.frame >= e.opts.MaxFrames {
			return fmt.Errorf("%w after %d frames", ErrMaxFrames, e.frame)
		}
		e.frame++
		if err := app.PreRender(e); err != nil {
			return fmt.Errorf("engine: frame %d: pre-render: %w", e.frame, err)
		}
		e.stats = e.renderer.Render(e.scene, e.camera)
		if err := app.PostRender(e); err != nil {
			return fmt.Errorf("engine: frame %d: post-render: %w", e.frame, err)
		}
		e.renderer.EndFrame()
	}
	return nil
}

// Close stops the loop after the current frame.
func (e *Engine) Close() {
	e.closed = true
}

// Frame is the number of the frame being rendered, starting at 1.
func (e *Engine) Frame() int {
	return e.frame
}

func (e *Engine) Scene() *raster.Scene {
	return e.scene
}

func (e *Engine) Renderer() *raster.Renderer {
	return e.renderer
}

func (e *Engine) SetCamera(c raster.Camera) {
	e.camera = c
}

// Stats of the last rendered frame.
func (e *Engine) Stats() raster.Stats {
	return e.stats
}

func (e *Engine) WindowReport() WindowReport {
	return e.report
}

// Viewport covers the whole drawable surface.
func (e *Engine) Viewport() raster.Viewport {
	fb := e.renderer.FrameBuffer()
	return raster.Viewport{Width: fb.Width, Height: fb.Height}
}

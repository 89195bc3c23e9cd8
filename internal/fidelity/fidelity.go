// Package fidelity renders a framed screenshot of glTF models for visual
// regression testing and optionally compares it with a reference image.
package fidelity

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"time"

	"gltf-renderer/internal/compare"
	"gltf-renderer/internal/config"
	"gltf-renderer/internal/engine"
	"gltf-renderer/internal/framing"
	"gltf-renderer/internal/raster"
	"gltf-renderer/internal/texture"
)

// ErrNoModels is returned when Options names no input files.
var ErrNoModels = errors.New("fidelity: no models given")

// Options describes one render.
type Options struct {
	Models       []string
	Width        int
	Height       int
	Output       string
	IBLDir       string
	WarmupFrames int
	Supersample  int
	PixelRatio   float64
	Background   color.NRGBA
	// MaxFrames bounds the render loop; 0 means WarmupFrames+2.
	MaxFrames int
	// Textures is shared across renders when set.
	Textures texture.Resolver

	// Reference, when set, is compared with the capture.
	Reference string
	Compare   compare.Options
}

// OptionsFromConfig builds Options for models from a resolved config.
func OptionsFromConfig(cfg config.Config, models []string) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Models:       models,
		Width:        cfg.Width,
		Height:       cfg.Height,
		Output:       cfg.Output,
		IBLDir:       cfg.IBLDir,
		WarmupFrames: cfg.WarmupFrames,
		Supersample:  cfg.Supersample,
		PixelRatio:   cfg.PixelRatio,
		Background:   bg,
		MaxFrames:    cfg.MaxFrames,
		Reference:    cfg.Reference,
		Compare: compare.Options{
			Tolerance:           cfg.Tolerance,
			MaxDifferentPercent: cfg.MaxDiffPercent,
			ResizeReference:     cfg.ResizeReference,
			DiffImagePath:       cfg.DiffImage,
		},
	}, nil
}

// Result reports what a render did.
type Result struct {
	Output       string
	Model        string
	Triangles    int
	Framing      framing.Framing
	Camera       framing.Camera
	Window       engine.WindowReport
	Frames       int
	CaptureFrame int
	Stats        raster.Stats
	Warnings     []string
	Comparison   *compare.Result
	Elapsed      time.Duration
}

// Render loads the models, runs the render loop until the capture has been
// written and compares it with opts.Reference when set.
func Render(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.Models) == 0 {
		return nil, ErrNoModels
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.WarmupFrames < 0 {
		opts.WarmupFrames = 0
	}
	if opts.MaxFrames <= 0 {
		opts.MaxFrames = opts.WarmupFrames + 2
	}
	if opts.Output == "" {
		opts.Output = config.Default().Output
	}

	start := time.Now()
	s := newSession(opts)
	eng := engine.New(engine.Options{
		Window: engine.Window{
			Width:      opts.Width * opts.Supersample,
			Height:     opts.Height * opts.Supersample,
			PixelRatio: opts.PixelRatio,
		},
		Background: opts.Background,
		MaxFrames:  opts.MaxFrames,
	})
	if err := eng.Run(ctx, s); err != nil {
		return nil, fmt.Errorf("fidelity: render %v: %w", opts.Models, err)
	}
	if !s.rendered {
		return nil, fmt.Errorf("fidelity: render %v: engine stopped before capture", opts.Models)
	}

	res := &Result{
		Output:       opts.Output,
		Model:        s.model.Name,
		Triangles:    s.model.TriangleCount(),
		Framing:      s.framing,
		Camera:       s.camera,
		Window:       eng.WindowReport(),
		Frames:       eng.Frame(),
		CaptureFrame: s.captureFrame,
		Stats:        eng.Stats(),
		Warnings:     s.model.Warnings,
	}

	if opts.Reference != "" {
		ref, err := compare.LoadImage(opts.Reference)
		if err != nil {
			return res, err
		}
		cmp, err := compare.Compare(s.captured, ref, opts.Compare)
		if err != nil {
			return res, err
		}
		res.Comparison = cmp
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

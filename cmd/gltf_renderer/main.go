package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"gltf-renderer/internal/config"
	"gltf-renderer/internal/fidelity"
	"gltf-renderer/internal/texture"
)

const usage = `gltf_renderer generates PNGs of glTF models with a software renderer
Usage:
    gltf_renderer [options] <gltf/glb>...
Options:
   --help, -?
       Prints this message

   --width=<width>, -w <width>
       Width of the render

   --height=<height>, -h <height>
       Height of the render

   --output=<path>, -o <path>
       Output path where a PNG (or .webp) of the render will be saved

   --ibl=<path to cmgen IBL>, -i <path>
       Applies an IBL generated by cmgen's deploy option

   --config=<path>
       JSON config file; flags override its values

   --warmup=<frames>
       Frames rendered before the capture (default 10)

   --supersample=<n>
       Render n times larger and downsample the capture

   --pixel-ratio=<ratio>
       Simulated display backing scale

   --background=<colour>
       Clear colour, #rrggbb or a colour name

   --reference=<path>
       Compare the capture with this image; exit 1 on mismatch

   --resize-reference
       Resample a reference whose size differs from the capture

   --tolerance=<0-255>, --max-diff=<percent>, --diff=<path>
       Comparison tolerance, allowed differing pixels and diff image output
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gltf_renderer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }

	flags := config.UnsetFlags()
	var help bool
	fs.BoolVar(&help, "help", false, "Print usage")
	fs.BoolVar(&help, "?", false, "Print usage")
	fs.IntVar(&flags.Width, "width", config.NotSet, "Width of the render")
	fs.IntVar(&flags.Width, "w", config.NotSet, "Width of the render")
	fs.IntVar(&flags.Height, "height", config.NotSet, "Height of the render")
	fs.IntVar(&flags.Height, "h", config.NotSet, "Height of the render")
	fs.StringVar(&flags.Output, "output", "", "Output image path")
	fs.StringVar(&flags.Output, "o", "", "Output image path")
	fs.StringVar(&flags.IBLDir, "ibl", "", "cmgen IBL directory")
	fs.StringVar(&flags.IBLDir, "i", "", "cmgen IBL directory")
	configFile := fs.String("config", "", "Path to config.json file")
	fs.IntVar(&flags.WarmupFrames, "warmup", config.NotSet, "Frames before capture")
	fs.IntVar(&flags.Supersample, "supersample", config.NotSet, "Supersampling factor")
	fs.Float64Var(&flags.PixelRatio, "pixel-ratio", config.NotSetFloat, "Display backing scale")
	fs.StringVar(&flags.Background, "background", "", "Clear colour")
	fs.StringVar(&flags.Reference, "reference", "", "Reference image")
	fs.BoolVar(&flags.ResizeReference, "resize-reference", false, "Resample a reference of another size")
	fs.IntVar(&flags.Tolerance, "tolerance", config.NotSet, "Per-channel tolerance")
	fs.Float64Var(&flags.MaxDiffPercent, "max-diff", config.NotSetFloat, "Allowed differing pixels, percent")
	fs.StringVar(&flags.DiffImage, "diff", "", "Diff image path")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if help {
		fmt.Fprint(stdout, usage)
		return 0
	}

	files := fs.Args()
	if len(files) < 1 {
		fmt.Fprint(stderr, usage)
		return 1
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			fmt.Fprintf(stderr, "file %s not found!\n", f)
			return 1
		}
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(stderr, "Error loading config: %v\n", err)
			return 1
		}
	}
	cfg.Resolve(flags)

	opts, err := fidelity.OptionsFromConfig(cfg, files)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	opts.Textures = texture.NewCache()

	res, err := fidelity.Render(ctx, opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	win := res.Window
	fmt.Fprintf(stdout, "Initial window dimensions: %d x %d\n", win.InitialWidth, win.InitialHeight)
	fmt.Fprintf(stdout, "Initial display dimensions: %d x %d\n", win.DrawableWidth, win.DrawableHeight)
	fmt.Fprintf(stdout, "Detected backing scale: %g\n", win.Scale)
	if win.Resized {
		fmt.Fprintf(stdout, "Resizing window to: %d x %d\n", win.Width, win.Height)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}
	fmt.Fprintf(stdout, "Model: %s (%d triangles)\n", res.Model, res.Triangles)
	res.Framing.Fprint(stdout)
	fmt.Fprintf(stdout, "Rendered frame %d of %d in %.2fs\n", res.CaptureFrame, res.Frames, res.Elapsed.Seconds())
	fmt.Fprintf(stdout, "Output: %s\n", res.Output)

	if c := res.Comparison; c != nil {
		fmt.Fprintf(stdout, "Reference: %s\n", opts.Reference)
		if c.Resized {
			fmt.Fprintln(stdout, "Reference resized to the capture size")
		}
		fmt.Fprintf(stdout, "Different pixels: %d/%d (%.3f%%), max difference %d\n",
			c.DifferentPixels, c.TotalPixels, c.DifferentPercent(), c.MaxDifference)
		if c.DiffImage != "" {
			fmt.Fprintf(stdout, "Diff image: %s\n", c.DiffImage)
		}
		if !c.Match {
			fmt.Fprintln(stderr, "Error: render does not match reference")
			return 1
		}
		fmt.Fprintln(stdout, "Match")
	}
	return 0
}

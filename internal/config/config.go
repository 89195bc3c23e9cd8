// Package config holds render settings read from a JSON file and overridden
// by command-line flags.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// Config holds all render, capture and comparison settings.
type Config struct {
	// Render settings
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	WarmupFrames int     `json:"warmup_frames"`
	Supersample  int     `json:"supersample"`
	PixelRatio   float64 `json:"pixel_ratio"`
	Background   string  `json:"background"`
	IBLDir       string  `json:"ibl"`
	MaxFrames    int     `json:"max_frames"`

	// Paths
	Output    string `json:"output"`
	Reference string `json:"reference"`
	DiffImage string `json:"diff_image"`

	// ResizeReference resamples a reference of a different size to the
	// capture size instead of failing the comparison.
	ResizeReference bool `json:"resize_reference"`

	// Comparison
	Tolerance      int     `json:"tolerance"`
	MaxDiffPercent float64 `json:"max_diff_percent"`

	Workers int `json:"workers"`
}

// Default returns the built-in settings: a 1024x768 PNG captured after ten
// warm-up frames on a white background.
func Default() Config {
	return Config{
		Width:        1024,
		Height:       768,
		WarmupFrames: 10,
		Supersample:  1,
		PixelRatio:   1,
		Background:   "#ffffff",
		Output:       "out.png",
		Tolerance:    2,
		Workers:      runtime.NumCPU(),
	}
}

// Load reads a JSON config file over the defaults. Fields missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// NotSet marks a numeric flag the user did not pass. Zero and negative
// values are real input and must reach Validate.
const (
	NotSet      = math.MinInt32
	NotSetFloat = -math.MaxFloat64
)

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Width           int
	Height          int
	Output          string
	IBLDir          string
	WarmupFrames    int
	Supersample     int
	PixelRatio      float64
	Background      string
	Reference       string
	ResizeReference bool
	DiffImage       string
	Tolerance       int
	MaxDiffPercent  float64
	Workers         int
}

// UnsetFlags returns Flags with every field marked as not set.
func UnsetFlags() Flags {
	return Flags{
		Width:          NotSet,
		Height:         NotSet,
		WarmupFrames:   NotSet,
		Supersample:    NotSet,
		PixelRatio:     NotSetFloat,
		Tolerance:      NotSet,
		MaxDiffPercent: NotSetFloat,
	}
}

// Resolve fills zero-valued fields with defaults, then applies the flags
// that were set. An explicit flag always wins, even when it is invalid.
func (c *Config) Resolve(flags Flags) {
	def := Default()
	if c.Width == 0 {
		c.Width = def.Width
	}
	if c.Height == 0 {
		c.Height = def.Height
	}
	if c.Supersample == 0 {
		c.Supersample = def.Supersample
	}
	if c.PixelRatio == 0 {
		c.PixelRatio = def.PixelRatio
	}
	if c.Background == "" {
		c.Background = def.Background
	}
	if c.Output == "" {
		c.Output = def.Output
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}

	if flags.Width != NotSet {
		c.Width = flags.Width
	}
	if flags.Height != NotSet {
		c.Height = flags.Height
	}
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.IBLDir != "" {
		c.IBLDir = flags.IBLDir
	}
	if flags.WarmupFrames != NotSet {
		c.WarmupFrames = flags.WarmupFrames
	}
	if flags.Supersample != NotSet {
		c.Supersample = flags.Supersample
	}
	if flags.PixelRatio != NotSetFloat {
		c.PixelRatio = flags.PixelRatio
	}
	if flags.Background != "" {
		c.Background = flags.Background
	}
	if flags.Reference != "" {
		c.Reference = flags.Reference
	}
	if flags.ResizeReference {
		c.ResizeReference = true
	}
	if flags.DiffImage != "" {
		c.DiffImage = flags.DiffImage
	}
	if flags.Tolerance != NotSet {
		c.Tolerance = flags.Tolerance
	}
	if flags.MaxDiffPercent != NotSetFloat {
		c.MaxDiffPercent = flags.MaxDiffPercent
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
}

// Validate reports settings no render can use.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	}
	if c.Supersample < 1 || c.Supersample > 8 {
		return fmt.Errorf("config: supersample %d out of range 1-8", c.Supersample)
	}
	if c.PixelRatio <= 0 {
		return fmt.Errorf("config: pixel_ratio %g must be positive", c.PixelRatio)
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("config: negative warmup_frames %d", c.WarmupFrames)
	}
	if c.Tolerance < 0 || c.Tolerance > 255 {
		return fmt.Errorf("config: tolerance %d out of range 0-255", c.Tolerance)
	}
	if c.MaxDiffPercent < 0 || c.MaxDiffPercent > 100 {
		return fmt.Errorf("config: max_diff_percent %g out of range 0-100", c.MaxDiffPercent)
	}
	if _, err := ParseColor(c.Background); err != nil {
		return err
	}
	return nil
}

// BackgroundColor parses Background.
func (c Config) BackgroundColor() (color.NRGBA, error) {
	return ParseColor(c.Background)
}

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa or an SVG colour name such as
// "white" or "cornflowerblue".
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if !strings.HasPrefix(s, "#") {
		c, ok := colornames.Map[s]
		if !ok {
			return color.NRGBA{}, fmt.Errorf("config: unknown colour %q", s)
		}
		return color.NRGBA{c.R, c.G, c.B, c.A}, nil
	}

	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("config: bad colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("config: bad colour %q: %w", s, err)
	}
	return color.NRGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Width != 1024 || c.Height != 768 || c.Output != "out.png" || c.WarmupFrames != 10 {
		t.Errorf("Default() = %+v", c)
	}
	if c.Workers <= 0 {
		t.Errorf("workers = %d", c.Workers)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"width": 640, "tolerance": 0, "ibl": "envs/venetian"}`)
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Width != 640 || c.Height != 768 {
		t.Errorf("size = %dx%d, want 640x768", c.Width, c.Height)
	}
	if c.Tolerance != 0 {
		t.Errorf("explicit zero tolerance lost: %d", c.Tolerance)
	}
	if c.IBLDir != "envs/venetian" || c.WarmupFrames != 10 {
		t.Errorf("config = %+v", c)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
	if _, err := Load(writeConfig(t, `{"width":`)); err == nil {
		t.Error("malformed JSON accepted")
	}
}

func TestResolveFlagsOverride(t *testing.T) {
	c := Default()
	f := UnsetFlags()
	f.Width = 320
	f.Output = "shot.webp"
	f.WarmupFrames = 0
	f.Tolerance = 5
	c.Resolve(f)

	if c.Width != 320 || c.Height != 768 {
		t.Errorf("size = %dx%d", c.Width, c.Height)
	}
	if c.Output != "shot.webp" || c.WarmupFrames != 0 || c.Tolerance != 5 {
		t.Errorf("config = %+v", c)
	}
}

func TestResolveUnsetFlagsKeepFile(t *testing.T) {
	c := Default()
	c.WarmupFrames = 3
	c.MaxDiffPercent = 0.5
	c.Resolve(UnsetFlags())
	if c.WarmupFrames != 3 || c.MaxDiffPercent != 0.5 {
		t.Errorf("unset flags overrode file values: %+v", c)
	}
}

func TestResolveFillsEmpty(t *testing.T) {
	var c Config
	c.Resolve(UnsetFlags())
	def := Default()
	if c.Width != def.Width || c.Height != def.Height || c.Output != def.Output ||
		c.Supersample != 1 || c.PixelRatio != 1 || c.Background != def.Background {
		t.Errorf("Resolve on empty config = %+v", c)
	}
}

func TestResolveKeepsExplicitInvalidFlags(t *testing.T) {
	c := Default()
	f := UnsetFlags()
	f.Width = 0
	f.Height = -5
	f.Supersample = 0
	c.Resolve(f)
	if c.Width != 0 || c.Height != -5 || c.Supersample != 0 {
		t.Fatalf("explicit flags replaced by defaults: %+v", c)
	}
	if err := c.Validate(); err == nil {
		t.Error("Validate accepted -w 0 -h -5")
	}
}

func TestResolveResizeReference(t *testing.T) {
	c, err := Load(writeConfig(t, `{"resize_reference": true}`))
	if err != nil {
		t.Fatal(err)
	}
	c.Resolve(UnsetFlags())
	if !c.ResizeReference {
		t.Error("resize_reference from file lost")
	}

	c = Default()
	f := UnsetFlags()
	f.ResizeReference = true
	c.Resolve(f)
	if !c.ResizeReference {
		t.Error("--resize-reference not applied")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"supersample", func(c *Config) { c.Supersample = 9 }},
		{"warmup", func(c *Config) { c.WarmupFrames = -2 }},
		{"tolerance", func(c *Config) { c.Tolerance = 300 }},
		{"pixel ratio", func(c *Config) { c.PixelRatio = -1 }},
		{"max diff", func(c *Config) { c.MaxDiffPercent = 101 }},
		{"background", func(c *Config) { c.Background = "#12" }},
	}
	for _, tt := range tests {
		c := Default()
		tt.mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: invalid config accepted", tt.name)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
	}{
		{"#ffffff", color.NRGBA{255, 255, 255, 255}},
		{"#FF8000", color.NRGBA{255, 128, 0, 255}},
		{"#f80", color.NRGBA{255, 136, 0, 255}},
		{"#00000080", color.NRGBA{0, 0, 0, 128}},
		{"white", color.NRGBA{255, 255, 255, 255}},
		{" Black ", color.NRGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"", "#zzzzzz", "#1234", "notacolour"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) accepted", bad)
		}
	}
}

package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"gltf-renderer/internal/config"
	"gltf-renderer/internal/model/modeltest"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func testRenderConfig() config.Config {
	cfg := config.Default()
	cfg.Width = 32
	cfg.Height = 24
	cfg.WarmupFrames = 1
	return cfg
}

var cube = modeltest.Box{Min: [3]float32{-1, -1, -1}, Max: [3]float32{1, 1, 1}, Color: [4]float64{0, 1, 0, 1}}

func TestLoadSuiteResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suite.json")
	writeFile(t, path, `{
		"cases": [
			{"models": ["assets/cube.glb"], "reference": "golden/cube.png"},
			{"name": "pair", "models": ["a.glb", "/abs/b.glb"], "output": "pair.webp", "tolerance": 0}
		]
	}`)

	s, err := LoadSuite(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.OutputDir != filepath.Join(dir, "renders") {
		t.Errorf("output dir = %s", s.OutputDir)
	}
	c := s.Cases[0]
	if c.Name != "cube" {
		t.Errorf("name = %q, want derived from model", c.Name)
	}
	if c.Models[0] != filepath.Join(dir, "assets", "cube.glb") {
		t.Errorf("model = %s", c.Models[0])
	}
	if c.Output != filepath.Join(dir, "renders", "cube.png") {
		t.Errorf("output = %s", c.Output)
	}
	if c.Reference != filepath.Join(dir, "golden", "cube.png") {
		t.Errorf("reference = %s", c.Reference)
	}
	p := s.Cases[1]
	if p.Models[1] != "/abs/b.glb" || p.Output != filepath.Join(dir, "renders", "pair.webp") {
		t.Errorf("case = %+v", p)
	}
	if p.Tolerance == nil || *p.Tolerance != 0 {
		t.Errorf("tolerance = %v, want explicit 0", p.Tolerance)
	}
}

func TestLoadSuiteErrors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"nomodels.json": `{"cases": [{"name": "x"}]}`,
		"dup.json":      `{"cases": [{"name": "x", "models": ["a.glb"]}, {"name": "x", "models": ["b.glb"]}]}`,
		"bad.json":      `{"cases": [`,
	}
	for name, body := range tests {
		path := filepath.Join(dir, name)
		writeFile(t, path, body)
		if _, err := LoadSuite(path); err == nil {
			t.Errorf("%s accepted", name)
		}
	}
	if _, err := LoadSuite(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("missing manifest accepted")
	}
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	modeltest.WriteGLB(t, filepath.Join(dir, "cube.glb"), cube)
	modeltest.WriteGLB(t, filepath.Join(dir, "slab.glb"), modeltest.Box{Min: [3]float32{-3, 0, -1}, Max: [3]float32{3, 1, 1}})
	writeFile(t, filepath.Join(dir, "suite.json"), `{
		"cases": [
			{"name": "cube", "models": ["cube.glb"]},
			{"name": "slab", "models": ["slab.glb"], "width": 40, "output": "slab.webp"},
			{"name": "broken", "models": ["missing.glb"]},
			{"name": "noref", "models": ["cube.glb"], "reference": "nothing.png"}
		]
	}`)
	suite, err := LoadSuite(filepath.Join(dir, "suite.json"))
	if err != nil {
		t.Fatal(err)
	}

	results := Run(context.Background(), Config{Render: testRenderConfig(), Workers: 2, Quiet: true}, suite.Cases)
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	for i, name := range []string{"cube", "slab", "broken", "noref"} {
		if results[i].Name != name {
			t.Errorf("result %d = %s, want %s (case order)", i, results[i].Name, name)
		}
	}
	if !results[0].Success || !results[1].Success {
		t.Fatalf("renders failed: %+v %+v", results[0], results[1])
	}
	if results[2].Success || results[2].Error == "" {
		t.Errorf("missing model succeeded: %+v", results[2])
	}
	if results[3].Success {
		t.Errorf("missing reference succeeded: %+v", results[3])
	}
	for _, p := range []string{"cube.png", "slab.webp"} {
		if _, err := os.Stat(filepath.Join(dir, "renders", p)); err != nil {
			t.Errorf("output %s: %v", p, err)
		}
	}
}

func TestRunComparesReference(t *testing.T) {
	dir := t.TempDir()
	modeltest.WriteGLB(t, filepath.Join(dir, "cube.glb"), cube)
	writeFile(t, filepath.Join(dir, "golden.json"), `{"output_dir": "golden", "cases": [{"name": "cube", "models": ["cube.glb"]}]}`)
	writeFile(t, filepath.Join(dir, "suite.json"), `{"cases": [{"name": "cube", "models": ["cube.glb"], "reference": "golden/cube.png"}]}`)

	golden, err := LoadSuite(filepath.Join(dir, "golden.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := Config{Render: testRenderConfig(), Workers: 1, Quiet: true, DiffImages: true}
	if r := Run(context.Background(), cfg, golden.Cases); !r[0].Success {
		t.Fatalf("golden render: %s", r[0].Error)
	}

	suite, err := LoadSuite(filepath.Join(dir, "suite.json"))
	if err != nil {
		t.Fatal(err)
	}
	r := Run(context.Background(), cfg, suite.Cases)
	if !r[0].Success || r[0].Comparison == nil || !r[0].Comparison.Match {
		t.Fatalf("result = %+v", r[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "renders", "cube.diff.png")); !os.IsNotExist(err) {
		t.Error("diff image written for a match")
	}
}

func TestRunResizesReference(t *testing.T) {
	dir := t.TempDir()
	modeltest.WriteGLB(t, filepath.Join(dir, "cube.glb"), cube)
	writeFile(t, filepath.Join(dir, "golden.json"), `{"output_dir": "golden", "cases": [
		{"name": "cube", "models": ["cube.glb"], "width": 64, "height": 48}
	]}`)
	writeFile(t, filepath.Join(dir, "suite.json"), `{"cases": [
		{"name": "strict", "models": ["cube.glb"], "reference": "golden/cube.png"},
		{"name": "resized", "models": ["cube.glb"], "reference": "golden/cube.png",
		 "resize_reference": true, "max_diff_percent": 100}
	]}`)

	cfg := Config{Render: testRenderConfig(), Workers: 1, Quiet: true}
	golden, err := LoadSuite(filepath.Join(dir, "golden.json"))
	if err != nil {
		t.Fatal(err)
	}
	if r := Run(context.Background(), cfg, golden.Cases); !r[0].Success {
		t.Fatalf("golden render: %s", r[0].Error)
	}

	suite, err := LoadSuite(filepath.Join(dir, "suite.json"))
	if err != nil {
		t.Fatal(err)
	}
	r := Run(context.Background(), cfg, suite.Cases)
	if r[0].Success {
		t.Errorf("64x48 reference accepted for a 32x24 capture: %+v", r[0])
	}
	if !r[1].Success || r[1].Comparison == nil || !r[1].Comparison.Resized {
		t.Fatalf("resized case = %+v", r[1])
	}
	if !r[1].Comparison.Match {
		t.Errorf("resized comparison = %+v", r[1].Comparison)
	}
}

func TestCaseConfigOverrides(t *testing.T) {
	tol := 9
	resize := true
	base := testRenderConfig()
	cfg := caseConfig(base, Case{
		Output:          "out/a.webp",
		Reference:       "ref/a.png",
		Tolerance:       &tol,
		ResizeReference: &resize,
	}, true)
	if cfg.Tolerance != 9 || !cfg.ResizeReference || cfg.Width != base.Width {
		t.Errorf("caseConfig = %+v", cfg)
	}
	if cfg.DiffImage != "out/a.diff.png" {
		t.Errorf("diff image = %q", cfg.DiffImage)
	}
	if base.ResizeReference {
		t.Error("caseConfig mutated the suite config")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := Run(ctx, Config{Render: testRenderConfig(), Quiet: true}, []Case{{Name: "x", Models: []string{"x.glb"}}})
	if r[0].Success || r[0].Error == "" {
		t.Errorf("cancelled run = %+v", r[0])
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()
	modeltest.WriteGLB(t, filepath.Join(dir, "cube.glb"), cube)
	cases := []Case{
		{Name: "ok", Models: []string{filepath.Join(dir, "cube.glb")}, Output: filepath.Join(dir, "ok.png")},
		{Name: "bad", Models: []string{filepath.Join(dir, "nope.glb")}, Output: filepath.Join(dir, "bad.png")},
	}
	results := Run(context.Background(), Config{Render: testRenderConfig(), Workers: 2, Quiet: true}, cases)

	path := filepath.Join(dir, "out", "report.json")
	if err := WriteReport(path, results); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Total != 2 || rep.Succeeded != 1 || rep.Failed != 1 || rep.Mismatch != 0 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Cases[1].Error == "" || rep.Cases[1].Success {
		t.Errorf("failed entry = %+v", rep.Cases[1])
	}
}

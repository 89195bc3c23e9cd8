package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"gltf-renderer/internal/framing"
	"gltf-renderer/internal/model"
)

type materialInfo struct {
	Name        string     `json:"name"`
	BaseColor   [4]float64 `json:"base_color"`
	Textured    bool       `json:"textured"`
	DoubleSided bool       `json:"double_sided"`
	AlphaMode   string     `json:"alpha_mode"`
}

type report struct {
	Model      string          `json:"model"`
	Primitives int             `json:"primitives"`
	Triangles  int             `json:"triangles"`
	BoundsMin  [3]float64      `json:"bounds_min"`
	BoundsMax  [3]float64      `json:"bounds_max"`
	Materials  []materialInfo  `json:"materials"`
	Warnings   []string        `json:"warnings,omitempty"`
	Framing    framing.Framing `json:"framing"`
	Camera     framing.Camera  `json:"camera"`
}

var alphaModes = map[model.AlphaMode]string{
	model.AlphaOpaque: "OPAQUE",
	model.AlphaMask:   "MASK",
	model.AlphaBlend:  "BLEND",
}

func main() {
	width := flag.Int("w", 1024, "Width of the render")
	height := flag.Int("h", 768, "Height of the render")
	asJSON := flag.Bool("json", false, "Print JSON instead of text")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: inspect [-w W] [-h H] [-json] <gltf/glb>...\n")
		os.Exit(1)
	}

	m, err := model.LoadAll(flag.Args(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	room, err := framing.NewRoom(*width, *height)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	f, err := framing.Fit(room, m.Bounds)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rep := report{
		Model:      m.Name,
		Primitives: len(m.Primitives),
		Triangles:  m.TriangleCount(),
		BoundsMin:  m.Bounds.Min,
		BoundsMax:  m.Bounds.Max,
		Warnings:   m.Warnings,
		Framing:    f,
		Camera:     f.Camera(),
	}
	seen := make(map[*model.Material]bool)
	for _, p := range m.Primitives {
		if seen[p.Material] {
			continue
		}
		seen[p.Material] = true
		rep.Materials = append(rep.Materials, materialInfo{
			Name:        p.Material.Name,
			BaseColor:   p.Material.BaseColor,
			Textured:    p.Material.Texture != nil,
			DoubleSided: p.Material.DoubleSided,
			AlphaMode:   alphaModes[p.Material.AlphaMode],
		})
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Model: %s\n", rep.Model)
	fmt.Printf("Primitives: %d, Triangles: %d\n", rep.Primitives, rep.Triangles)
	fmt.Printf("Bounds: min (%.4f, %.4f, %.4f) max (%.4f, %.4f, %.4f)\n",
		rep.BoundsMin[0], rep.BoundsMin[1], rep.BoundsMin[2],
		rep.BoundsMax[0], rep.BoundsMax[1], rep.BoundsMax[2])
	for i, mi := range rep.Materials {
		fmt.Printf("  Material[%d] %q: color=%v textured=%v double_sided=%v alpha=%s\n",
			i, mi.Name, mi.BaseColor, mi.Textured, mi.DoubleSided, mi.AlphaMode)
	}
	for _, w := range rep.Warnings {
		fmt.Printf("  Warning: %s\n", w)
	}
	f.Fprint(os.Stdout)
}

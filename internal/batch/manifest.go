package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Case is one screenshot in a suite.
type Case struct {
	Name      string   `json:"name"`
	Models    []string `json:"models"`
	Width     int      `json:"width,omitempty"`
	Height    int      `json:"height,omitempty"`
	Output    string   `json:"output,omitempty"`
	Reference string   `json:"reference,omitempty"`
	IBLDir    string   `json:"ibl,omitempty"`
	// Tolerance, MaxDiffPercent and ResizeReference override the suite
	// config when set.
	Tolerance       *int     `json:"tolerance,omitempty"`
	MaxDiffPercent  *float64 `json:"max_diff_percent,omitempty"`
	ResizeReference *bool    `json:"resize_reference,omitempty"`
}

// Suite is a manifest of cases. Relative paths are resolved against the
// manifest's directory.
type Suite struct {
	OutputDir string `json:"output_dir"`
	Cases     []Case `json:"cases"`
}

// LoadSuite reads a suite manifest and resolves its paths.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("batch: read %s: %w", path, err)
	}
	var s Suite
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("batch: parse %s: %w", path, err)
	}

	base := filepath.Dir(path)
	if s.OutputDir == "" {
		s.OutputDir = "renders"
	}
	s.OutputDir = resolve(base, s.OutputDir)

	seen := make(map[string]bool)
	for i := range s.Cases {
		c := &s.Cases[i]
		if len(c.Models) == 0 {
			return nil, fmt.Errorf("batch: %s: case %d (%s) has no models", path, i, c.Name)
		}
		if c.Name == "" {
			c.Name = strings.TrimSuffix(filepath.Base(c.Models[0]), filepath.Ext(c.Models[0]))
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("batch: %s: duplicate case name %q", path, c.Name)
		}
		seen[c.Name] = true

		for j, m := range c.Models {
			c.Models[j] = resolve(base, m)
		}
		if c.Output == "" {
			c.Output = c.Name + ".png"
		}
		c.Output = resolve(s.OutputDir, c.Output)
		if c.Reference != "" {
			c.Reference = resolve(base, c.Reference)
		}
		if c.IBLDir != "" {
			c.IBLDir = resolve(base, c.IBLDir)
		}
	}
	return &s, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// ReportEntry is one case in report.json.
type ReportEntry struct {
	Name            string  `json:"name"`
	Output          string  `json:"output,omitempty"`
	Success         bool    `json:"success"`
	Match           *bool   `json:"match,omitempty"`
	DifferentPixels int     `json:"different_pixels,omitempty"`
	MaxDifference   int     `json:"max_difference,omitempty"`
	Error           string  `json:"error,omitempty"`
	Seconds         float64 `json:"seconds"`
}

// Report summarises a suite run.
type Report struct {
	Generated time.Time     `json:"generated"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Mismatch  int           `json:"mismatched"`
	Cases     []ReportEntry `json:"cases"`
}

// NewReport builds the report for results.
func NewReport(results []Result) Report {
	r := Report{Generated: time.Now().UTC(), Total: len(results), Cases: make([]ReportEntry, len(results))}
	for i, res := range results {
		e := ReportEntry{
			Name:    res.Name,
			Output:  res.Output,
			Success: res.Success,
			Error:   res.Error,
			Seconds: res.Elapsed.Seconds(),
		}
		if res.Comparison != nil {
			match := res.Comparison.Match
			e.Match = &match
			e.DifferentPixels = res.Comparison.DifferentPixels
			e.MaxDifference = res.Comparison.MaxDifference
			if !match {
				r.Mismatch++
			}
		}
		if res.Success {
			r.Succeeded++
		} else {
			r.Failed++
		}
		r.Cases[i] = e
	}
	return r
}

// WriteReport writes report.json style output to path.
func WriteReport(path string, results []Result) error {
	data, err := json.MarshalIndent(NewReport(results), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("batch: mkdir %s: %w", filepath.Dir(path), err)
	}
	return os.WriteFile(path, data, 0644)
}

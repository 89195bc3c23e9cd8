// Package batch renders a suite of screenshots with a worker pool.
package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gltf-renderer/internal/compare"
	"gltf-renderer/internal/config"
	"gltf-renderer/internal/fidelity"
	"gltf-renderer/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Render   config.Config
	Textures texture.Resolver
	Workers  int
	// DiffImages writes <output>.diff.png for cases that miss their reference.
	DiffImages bool
	// Quiet suppresses the progress lines.
	Quiet bool
}

// Result holds the outcome of rendering one case. A case with a
// mismatching reference still succeeds; see Comparison.
type Result struct {
	Name       string
	Output     string
	Success    bool
	Error      string
	Comparison *compare.Result
	Elapsed    time.Duration
}

// Run renders all cases using a worker pool. Results are in case order.
func Run(ctx context.Context, cfg Config, cases []Case) []Result {
	total := len(cases)
	results := make([]Result, total)
	var processed atomic.Int64

	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Textures == nil {
		cfg.Textures = texture.NewCache()
	}

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 && !cfg.Quiet {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.2f cases/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	caseChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range caseChan {
				results[idx] = processCase(ctx, cfg, cases[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range cases {
		caseChan <- i
	}
	close(caseChan)

	wg.Wait()
	close(done)

	return results
}

// caseConfig applies the case's overrides to the suite config.
func caseConfig(base config.Config, c Case, diffImages bool) config.Config {
	cfg := base
	if c.Width > 0 {
		cfg.Width = c.Width
	}
	if c.Height > 0 {
		cfg.Height = c.Height
	}
	if c.IBLDir != "" {
		cfg.IBLDir = c.IBLDir
	}
	if c.Tolerance != nil {
		cfg.Tolerance = *c.Tolerance
	}
	if c.MaxDiffPercent != nil {
		cfg.MaxDiffPercent = *c.MaxDiffPercent
	}
	if c.ResizeReference != nil {
		cfg.ResizeReference = *c.ResizeReference
	}
	cfg.Output = c.Output
	cfg.Reference = c.Reference
	cfg.DiffImage = ""
	if diffImages && c.Reference != "" {
		cfg.DiffImage = strings.TrimSuffix(c.Output, filepath.Ext(c.Output)) + ".diff.png"
	}
	return cfg
}

func processCase(ctx context.Context, cfg Config, c Case) (res Result) {
	res = Result{Name: c.Name, Output: c.Output}
	start := time.Now()
	defer func() { res.Elapsed = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}

	opts, err := fidelity.OptionsFromConfig(caseConfig(cfg.Render, c, cfg.DiffImages), c.Models)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	opts.Textures = cfg.Textures

	out, err := fidelity.Render(ctx, opts)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.Comparison = out.Comparison
	return res
}

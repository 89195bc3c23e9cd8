package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"gltf-renderer/internal/batch"
	"gltf-renderer/internal/config"
	"gltf-renderer/internal/texture"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	reportPath := flag.String("report", "", "Report path (default: <output_dir>/report.json)")
	diffImages := flag.Bool("diff", false, "Write <case>.diff.png for mismatching cases")
	warmup := flag.Int("warmup", 10, "Frames rendered before each capture")
	resizeRef := flag.Bool("resize-reference", false, "Resample references whose size differs from the capture")
	ibl := flag.String("ibl", "", "cmgen IBL directory for cases that set none")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <suite.json>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	// Load config
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	flags := config.UnsetFlags()
	flags.Workers = *workers
	flags.IBLDir = *ibl
	flags.ResizeReference = *resizeRef
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "warmup" {
			flags.WarmupFrames = *warmup
		}
	})
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	suite, err := batch.LoadSuite(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading suite: %v\n", err)
		os.Exit(1)
	}
	if len(suite.Cases) == 0 {
		fmt.Println("No cases to render.")
		os.Exit(0)
	}

	fmt.Printf("glTF fidelity suite: %s\n", flag.Arg(0))
	fmt.Printf("Cases: %d, Workers: %d, Size: %dx%d\n", len(suite.Cases), cfg.Workers, cfg.Width, cfg.Height)
	fmt.Printf("Output: %s\n", suite.OutputDir)
	fmt.Println("------------------------------------------------------------")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results := batch.Run(ctx, batch.Config{
		Render:     cfg,
		Textures:   texture.NewCache(),
		Workers:    cfg.Workers,
		DiffImages: *diffImages,
	}, suite.Cases)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed, mismatched := 0, 0, 0
	var problems []batch.Result
	for _, r := range results {
		switch {
		case !r.Success:
			failed++
			problems = append(problems, r)
		case r.Comparison != nil && !r.Comparison.Match:
			mismatched++
			problems = append(problems, r)
			success++
		default:
			success++
		}
	}

	fmt.Printf("Rendered: %d/%d\n", success, len(results))
	if mismatched > 0 {
		fmt.Printf("Mismatched: %d\n", mismatched)
	}

	if len(problems) > 0 {
		fmt.Printf("\nProblems (%d):\n", len(problems))
		limit := 20
		if len(problems) < limit {
			limit = len(problems)
		}
		for _, p := range problems[:limit] {
			if p.Error != "" {
				fmt.Printf("  %s: %s\n", p.Name, p.Error)
			} else {
				fmt.Printf("  %s: %d pixels differ (%.3f%%), max difference %d\n",
					p.Name, p.Comparison.DifferentPixels, p.Comparison.DifferentPercent(), p.Comparison.MaxDifference)
			}
		}
	}

	// Write report
	path := *reportPath
	if path == "" {
		path = filepath.Join(suite.OutputDir, "report.json")
	}
	if err := batch.WriteReport(path, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report write failed: %v\n", err)
	} else {
		fmt.Printf("Report: %s\n", path)
	}

	if failed > 0 || mismatched > 0 {
		os.Exit(1)
	}
}

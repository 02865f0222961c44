package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"rmdlconv/internal/batch"
	"rmdlconv/internal/config"
)

func main() {
	configFile := flag.String("config", "", "Path to config.json file")
	input := flag.String("input", "", "Input .rmdl file or folder to walk")
	output := flag.String("output", "", "Output folder (default: <input>_conv)")
	version := flag.String("version", "", "Source schema version, e.g. 12.1, 14, 16, 19.1")
	workers := flag.Int("workers", 0, "Worker goroutines for batch runs (default: 1)")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})

	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	in := *input
	if in == "" && flag.NArg() > 0 {
		in = flag.Arg(0)
	}
	cfg.Resolve(config.Flags{
		InputDir:  in,
		OutputDir: *output,
		Version:   *version,
		Workers:   *workers,
	})

	if cfg.InputDir == "" {
		fmt.Fprintln(os.Stderr, "Error: no input. Use -input or pass a path.")
		os.Exit(1)
	}
	if cfg.Version == "" {
		fmt.Fprintln(os.Stderr, "Error: no source version. Use -version or config.json.")
		os.Exit(1)
	}

	fi, err := os.Stat(cfg.InputDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Single-file mode: convert one model into a sibling output folder.
	if !fi.IsDir() {
		file := cfg.InputDir
		cfg.InputDir = filepath.Dir(file)
		if *output == "" {
			cfg.OutputDir = filepath.Join(cfg.InputDir, "rmdlconv_out")
		}
		res := batch.ConvertOne(batch.Config{
			InputDir:  cfg.InputDir,
			OutputDir: cfg.OutputDir,
			Version:   cfg.Version,
			Logger:    logger,
		}, filepath.Base(file))
		for _, w := range res.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
		if !res.Success {
			fmt.Fprintf(os.Stderr, "Error: %s: %s\n", res.File, res.Error)
			os.Exit(1)
		}
		fmt.Printf("Converted: %s\n", filepath.Join(cfg.OutputDir, res.Output))
		return
	}

	fmt.Printf("Converting from: %s (v%s)\n", cfg.InputDir, cfg.Version)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results, err := batch.Run(batch.Config{
		InputDir:  cfg.InputDir,
		OutputDir: cfg.OutputDir,
		Version:   cfg.Version,
		Workers:   cfg.Workers,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	success, failed := 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Converted: %d/%d\n", success, len(results))

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		limit := 20
		if len(errors) < limit {
			limit = len(errors)
		}
		for _, e := range errors[:limit] {
			fmt.Printf("  %s: %s\n", e.File, e.Error)
		}
	}

	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, batch.NewManifest(cfg.Version, start, results)); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

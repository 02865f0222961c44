// Package batch drives conversions over whole asset trees. One file's
// failure never stops the run; every outcome lands in the manifest.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"rmdlconv/internal/convert"
	"rmdlconv/internal/phy"
	"rmdlconv/internal/vg"
)

// Config holds the shared settings for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	Version   string
	Workers   int
	Logger    *log.Logger
}

// Result holds the outcome of converting one model file.
type Result struct {
	File     string   `json:"file"`
	Output   string   `json:"output,omitempty"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Run converts every model under cfg.InputDir, preserving relative
// paths below cfg.OutputDir. Each conversion is single-threaded; the
// pool only parallelizes across files.
func Run(cfg Config) ([]Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	var files []string
	err := filepath.WalkDir(cfg.InputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".rmdl") {
			return nil
		}
		rel, err := filepath.Rel(cfg.InputDir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := len(files)
	results := make([]Result, total)
	var processed atomic.Int64

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
				if p > 0 {
					elapsed := time.Since(start).Seconds()
					rate := float64(p) / elapsed
					fmt.Printf("  [%d/%d] %.1f files/sec\n", p, total, rate)
				}
			}
		}
	}()

	// Worker pool
	fileChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = convertOne(cfg, logger, files[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	close(done)

	return results, nil
}

// ConvertOne converts a single model named relative to cfg.InputDir,
// with its companions, into cfg.OutputDir.
func ConvertOne(cfg Config, rel string) Result {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return convertOne(cfg, logger, rel)
}

func convertOne(cfg Config, logger *log.Logger, rel string) Result {
	res := Result{File: filepath.ToSlash(rel)}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	inPath := filepath.Join(cfg.InputDir, rel)
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fail(err)
	}

	conv, err := convert.Convert(data, convert.Options{
		Version: cfg.Version,
		Name:    filepath.ToSlash(rel),
		Logger:  logger,
	})
	if err != nil {
		return fail(err)
	}
	for _, w := range conv.Warnings {
		res.Warnings = append(res.Warnings, w.Section+": "+w.Message)
	}

	warnf := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		res.Warnings = append(res.Warnings, msg)
		logger.Warn(msg, "model", res.File)
	}

	outPath := filepath.Join(cfg.OutputDir, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fail(err)
	}

	// Companion physics first: its converted size is patched back into
	// the model header before the model is written out.
	var phyOut []byte
	phyIn := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".phy"
	if phyData, err := os.ReadFile(phyIn); err == nil {
		phyOut, err = phy.Convert(phyData, conv.Checksum)
		if err != nil {
			warnf("physics conversion failed: %v", err)
			phyOut = nil
		} else if err := convert.PatchPhySize(conv.Data, int32(len(phyOut))); err != nil {
			return fail(err)
		}
	} else if !os.IsNotExist(err) {
		warnf("physics file unreadable: %v", err)
	}

	if err := os.WriteFile(outPath, conv.Data, 0644); err != nil {
		return fail(err)
	}
	res.Output = filepath.ToSlash(rel)

	if phyOut != nil {
		phyPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".phy"
		if err := os.WriteFile(phyPath, phyOut, 0644); err != nil {
			return fail(err)
		}
	}

	vgIn := strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".vg"
	if vgData, err := os.ReadFile(vgIn); err == nil {
		vgOut, err := vg.Convert(vg.Params{
			Data:            vgData,
			Model:           data,
			BoneCount:       conv.BoneCount,
			BoneStateCount:  conv.BoneStateCount,
			BoneStateOffset: conv.BoneStateOffset,
			Warnf:           warnf,
		})
		if err != nil {
			warnf("vertex group conversion failed: %v", err)
		} else {
			vgPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".vg"
			if err := os.WriteFile(vgPath, vgOut, 0644); err != nil {
				return fail(err)
			}
		}
	} else if os.IsNotExist(err) {
		warnf("no vertex group beside the model")
	} else {
		warnf("vertex group unreadable: %v", err)
	}

	res.Success = true
	return res
}

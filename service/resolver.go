package service

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mheran/vegclass/config"
	ort "github.com/yalue/onnxruntime_go"
)

type artifactFormat int

const (
	// formatBundle is a model directory: model.onnx plus whatever the
	// exporter put next to it, with tensor names read from the model.
	formatBundle artifactFormat = iota
	// formatFile is a bare .onnx file with the conventional
	// "input"/"output" tensor names.
	formatFile
)

func (f artifactFormat) String() string {
	if f == formatBundle {
		return "bundle"
	}
	return "file"
}

type artifact struct {
	format artifactFormat
	path   string
}

const bundleModelName = "model.onnx"

// candidateArtifacts lists candidate locations in priority order. All
// bundle candidates come before any file candidate: the bundle format
// wins unconditionally whenever one exists on disk.
func candidateArtifacts(cfg config.Config) []artifact {
	var out []artifact
	bundles := []string{cfg.ModelBundlePath, "models/saved_model", "../models/saved_model", "/app/models/saved_model"}
	for _, p := range bundles {
		if p != "" {
			out = append(out, artifact{format: formatBundle, path: p})
		}
	}
	files := []string{cfg.ModelPath, "models/best_model.onnx", "../models/best_model.onnx", "/app/models/best_model.onnx"}
	for _, p := range files {
		if p != "" {
			out = append(out, artifact{format: formatFile, path: p})
		}
	}
	return out
}

type statFunc func(string) (os.FileInfo, error)

// locateArtifact returns the first candidate present on disk. Bundle
// candidates must be directories, file candidates must not be.
func locateArtifact(candidates []artifact, stat statFunc) (artifact, bool) {
	for _, cand := range candidates {
		info, err := stat(cand.path)
		if err != nil {
			continue
		}
		if info.IsDir() == (cand.format == formatBundle) {
			return cand, true
		}
	}
	return artifact{}, false
}

// loadStrategy is one entry in the permissive-load sequence applied to
// file artifacts. Strategies trade fidelity for availability: a strict
// session is preferred, looser session options only run after the
// stricter ones raised.
type loadStrategy struct {
	name      string
	configure func(*ort.SessionOptions) error
}

var fileLoadStrategies = []loadStrategy{
	{
		name:      "strict",
		configure: func(*ort.SessionOptions) error { return nil },
	},
	{
		name: "no-optimizations",
		configure: func(o *ort.SessionOptions) error {
			return o.SetGraphOptimizationLevel(ort.GraphOptimizationLevelDisableAll)
		},
	},
	{
		name: "minimal",
		configure: func(o *ort.SessionOptions) error {
			if err := o.SetGraphOptimizationLevel(ort.GraphOptimizationLevelDisableAll); err != nil {
				return err
			}
			if err := o.SetCpuMemArena(false); err != nil {
				return err
			}
			if err := o.SetMemPattern(false); err != nil {
				return err
			}
			return o.SetIntraOpNumThreads(1)
		},
	},
}

// Resolve locates and loads a scorer from the configured candidate
// locations. Failure is not fatal to the process: callers keep serving
// in an unavailable state and a restart is the only retry.
func Resolve() (Scorer, error) {
	art, ok := locateArtifact(candidateArtifacts(config.C()), os.Stat)
	if !ok {
		return nil, fmt.Errorf("no model artifact found in any candidate location")
	}
	slog.Info("Loading model", slog.String("format", art.format.String()), slog.String("path", art.path))

	if art.format == formatBundle {
		return loadBundle(art.path)
	}
	return loadFile(art.path)
}

// loadBundle opens a bundle directory, discovering tensor names from
// the model itself.
func loadBundle(dir string) (Scorer, error) {
	modelPath := filepath.Join(dir, bundleModelName)
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get model input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("model at %s declares no inputs or outputs", modelPath)
	}

	sc, err := newSessionScorer(modelPath, inputs[0].Name, outputs[0].Name, nil)
	if err != nil {
		return nil, err
	}
	slog.Info("Bundle model loaded", slog.String("path", modelPath))
	return sc, nil
}

// loadFile walks the permissive-load sequence against the same path,
// stopping at the first strategy that produces a working session.
func loadFile(path string) (Scorer, error) {
	var lastErr error
	for _, strat := range fileLoadStrategies {
		sc, err := loadFileWith(path, strat)
		if err == nil {
			slog.Info("File model loaded",
				slog.String("path", path),
				slog.String("strategy", strat.name))
			return sc, nil
		}
		slog.Warn("Load strategy failed",
			slog.String("strategy", strat.name),
			slog.String("error", err.Error()))
		lastErr = err
	}
	return nil, fmt.Errorf("all load strategies failed for %s: %w", path, lastErr)
}

func loadFileWith(path string, strat loadStrategy) (Scorer, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer opts.Destroy()

	if err := strat.configure(opts); err != nil {
		return nil, fmt.Errorf("failed to configure session options: %w", err)
	}
	return newSessionScorer(path, "input", "output", opts)
}

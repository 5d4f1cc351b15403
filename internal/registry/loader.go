package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ttsloader/internal/common/fsutil"
	"ttsloader/pkg/types"
)

// weightExts maps weight file extensions to format names.
var weightExts = map[string]string{
	".safetensors": "safetensors",
	".pt":          "pt",
	".pth":         "pt",
	".ckpt":        "pt",
	".bin":         "bin",
	".gguf":        "gguf",
	".onnx":        "onnx",
}

// FormatOf returns the weight format of a file name, or "" if the extension
// is not a recognized weight format.
func FormatOf(name string) string {
	return weightExts[strings.ToLower(filepath.Ext(name))]
}

// WeightFiles lists recognized weight files directly inside dir, sorted.
func WeightFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || FormatOf(e.Name()) == "" {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// LoadDir scans a models directory laid out as <dir>/<engine>/<model>/ and
// returns every model directory holding weights, either directly or in
// per-language subdirectories.
func LoadDir(dir string) ([]types.LocalModel, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	engines, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.LocalModel
	for _, e := range engines {
		if !e.IsDir() {
			continue
		}
		engineDir := filepath.Join(abs, e.Name())
		entries, err := os.ReadDir(engineDir)
		if err != nil {
			continue
		}
		for _, m := range entries {
			if !m.IsDir() {
				continue
			}
			if lm, ok := scanModel(e.Name(), m.Name(), filepath.Join(engineDir, m.Name())); ok {
				models = append(models, lm)
			}
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

func scanModel(engine, name, path string) (types.LocalModel, bool) {
	lm := types.LocalModel{ID: engine + "/" + name, Engine: engine, Name: name, Path: path}
	if files, _ := WeightFiles(path); len(files) > 0 {
		lm.Format = FormatOf(files[0])
	}
	subs, _ := os.ReadDir(path)
	for _, s := range subs {
		if !s.IsDir() {
			continue
		}
		files, _ := WeightFiles(filepath.Join(path, s.Name()))
		if len(files) == 0 {
			continue
		}
		lm.Languages = append(lm.Languages, s.Name())
		if lm.Format == "" {
			lm.Format = FormatOf(files[0])
		}
	}
	return lm, lm.Format != ""
}

// Find returns the model with the given engine and name.
func Find(models []types.LocalModel, engine, name string) (types.LocalModel, bool) {
	for _, m := range models {
		if m.Engine == engine && m.Name == name {
			return m, true
		}
	}
	return types.LocalModel{}, false
}

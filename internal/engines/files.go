// Package engines provides the concrete model constructors the manager calls:
// a local-files loader that validates a model directory on disk and a remote
// loader that pulls the same layout from the hub first.
package engines

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ttsloader/internal/audio"
	"ttsloader/internal/common/fsutil"
	"ttsloader/internal/device"
	"ttsloader/internal/engines/gguf"
	"ttsloader/internal/hub"
	"ttsloader/internal/loadconfig"
	"ttsloader/internal/modelerr"
	"ttsloader/internal/registry"
)

// DefaultRemoteFiles are fetched when a request does not list files in its
// "files" parameter.
var DefaultRemoteFiles = []string{"model.safetensors"}

// Source values reported on Weights.
const (
	SourceLocal = "local"
	SourceHub   = "hub"
)

// Weights is the artifact produced by Files: a validated model directory.
type Weights struct {
	Engine   string
	Model    string
	Language string
	Device   string
	Format   string
	Dir      string
	Files    []string
	// Voices maps reference clip names to their duration.
	Voices   map[string]time.Duration
	Source   string
	Backbone io.Closer
}

// Close releases the GGUF backbone, if one was loaded.
func (w *Weights) Close() error {
	if w.Backbone == nil {
		return nil
	}
	err := w.Backbone.Close()
	w.Backbone = nil
	return err
}

// BackboneOpener loads a GGUF backbone.
type BackboneOpener func(path, device string) (io.Closer, error)

// Files loads models laid out as <models>/<engine>/<model>[/<Language>].
type Files struct {
	modelsDir string
	hub       *hub.Client
	codec     audio.Codec
	backbone  BackboneOpener
	log       zerolog.Logger
}

type Option func(*Files)

// WithModelsDir sets the root used when a request carries no model path.
func WithModelsDir(dir string) Option { return func(f *Files) { f.modelsDir = dir } }

// WithHub enables remote loading.
func WithHub(c *hub.Client) Option { return func(f *Files) { f.hub = c } }

// WithCodec sets the codec used to read voice reference clips.
func WithCodec(c audio.Codec) Option { return func(f *Files) { f.codec = c } }

func WithBackboneOpener(o BackboneOpener) Option { return func(f *Files) { f.backbone = o } }

func WithLogger(l zerolog.Logger) Option { return func(f *Files) { f.log = l } }

func NewFiles(opts ...Option) *Files {
	f := &Files{log: zerolog.Nop()}
	for _, o := range opts {
		o(f)
	}
	if f.codec == nil {
		f.codec, _ = audio.Select("")
	}
	if f.backbone == nil {
		f.backbone = func(path, dev string) (io.Closer, error) {
			return gguf.Open(path, dev, gguf.Options{})
		}
	}
	return f
}

// HasRemote reports whether a hub client is configured.
func (f *Files) HasRemote() bool { return f.hub != nil }

// Local validates the model directory for cfg and returns its weights.
func (f *Files) Local(ctx context.Context, engine string, cfg loadconfig.Config) (*Weights, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !device.Validate(cfg.Device()) || strings.EqualFold(cfg.Device(), device.Auto) {
		return nil, modelerr.Device(fmt.Sprintf("unsupported device %q", cfg.Device()), nil)
	}
	dir, err := f.modelDir(engine, cfg)
	if err != nil {
		return nil, err
	}
	if !fsutil.IsDir(dir) {
		return nil, modelerr.NotFound(fmt.Sprintf("model %q not found at %s", cfg.ModelName(), dir))
	}
	if lang := cfg.Language(); lang != "" {
		langDir := filepath.Join(dir, lang)
		switch {
		case fsutil.IsDir(langDir):
			dir = langDir
		case hasLanguageDirs(dir):
			return nil, modelerr.LanguageNotSupported(lang)
		}
	}
	files, err := registry.WeightFiles(dir)
	if err != nil {
		return nil, modelerr.NotFound(fmt.Sprintf("read %s: %v", dir, err))
	}
	if len(files) == 0 {
		return nil, modelerr.NotFound(fmt.Sprintf("no weight files in %s", dir))
	}
	for _, p := range files {
		if fi, err := os.Stat(p); err == nil && fi.Size() == 0 {
			return nil, modelerr.Format("empty weight file "+filepath.Base(p), nil)
		}
	}
	w := &Weights{
		Engine:   engine,
		Model:    cfg.ModelName(),
		Language: cfg.Language(),
		Device:   cfg.Device(),
		Format:   registry.FormatOf(files[0]),
		Dir:      dir,
		Files:    files,
		Source:   SourceLocal,
	}
	if w.Voices, err = f.voices(dir); err != nil {
		return nil, err
	}
	if w.Format == "gguf" {
		bb, err := f.backbone(files[0], cfg.Device())
		if err != nil {
			return nil, err
		}
		w.Backbone = bb
	}
	f.log.Debug().Str("engine", engine).Str("dir", dir).Str("format", w.Format).
		Int("files", len(files)).Msg("local weights validated")
	return w, nil
}

// Remote fetches the model from the hub into its cache and validates the
// result like Local.
func (f *Files) Remote(ctx context.Context, engine string, cfg loadconfig.Config) (*Weights, error) {
	if f.hub == nil {
		return nil, modelerr.Download("remote loading disabled: no hub configured", nil)
	}
	if cfg.RepoID() == "" {
		return nil, modelerr.NotFound("no repo id for remote load")
	}
	files := remoteFiles(cfg)
	if lang := cfg.Language(); lang != "" {
		for i, name := range files {
			files[i] = lang + "/" + name
		}
	}
	dir, err := f.hub.Snapshot(ctx, cfg.RepoID(), files)
	if err != nil {
		return nil, err
	}
	w, err := f.Local(ctx, engine, cfg.Derive(loadconfig.WithModelPath(dir)))
	if err != nil {
		return nil, err
	}
	w.Source = SourceHub
	return w, nil
}

func (f *Files) modelDir(engine string, cfg loadconfig.Config) (string, error) {
	dir := cfg.ModelPath()
	if dir == "" {
		if f.modelsDir == "" {
			return "", modelerr.NotFound(fmt.Sprintf("model %q: no path and no models dir", cfg.ModelName()))
		}
		dir = filepath.Join(f.modelsDir, engine, cfg.ModelName())
	}
	return fsutil.ExpandHome(dir)
}

func (f *Files) voices(dir string) (map[string]time.Duration, error) {
	var clips []string
	for _, d := range []string{dir, filepath.Join(dir, "voices")} {
		m, _ := filepath.Glob(filepath.Join(d, "*.wav"))
		clips = append(clips, m...)
	}
	if len(clips) == 0 {
		return nil, nil
	}
	sort.Strings(clips)
	out := make(map[string]time.Duration, len(clips))
	for _, p := range clips {
		clip, err := f.codec.Decode(p)
		if err != nil {
			return nil, modelerr.Format("voice "+filepath.Base(p), err)
		}
		out[strings.TrimSuffix(filepath.Base(p), ".wav")] = clip.Duration()
	}
	return out, nil
}

func hasLanguageDirs(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == "voices" {
			continue
		}
		if files, _ := registry.WeightFiles(filepath.Join(dir, e.Name())); len(files) > 0 {
			return true
		}
	}
	return false
}

func remoteFiles(cfg loadconfig.Config) []string {
	v, ok := cfg.Param("files")
	if !ok {
		return append([]string(nil), DefaultRemoteFiles...)
	}
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	case string:
		if t != "" {
			return []string{t}
		}
	}
	return append([]string(nil), DefaultRemoteFiles...)
}

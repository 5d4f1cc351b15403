package engines

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ttsloader/internal/audio"
	"ttsloader/internal/device"
	"ttsloader/internal/engines/gguf"
	"ttsloader/internal/hub"
	"ttsloader/internal/loadconfig"
	"ttsloader/internal/modelerr"
)

var cpu = device.NewResolver(device.Static(false, false, false))

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func cfg(model string, opts ...loadconfig.Option) loadconfig.Config {
	return loadconfig.New(cpu, device.Auto, model, opts...)
}

func TestLocalFromModelsDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "f5tts", "base", "model.safetensors"), "w")
	f := NewFiles(WithModelsDir(root))

	w, err := f.Local(context.Background(), "f5tts", cfg("local:base"))
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if w.Format != "safetensors" || w.Source != SourceLocal || w.Device != device.CPU {
		t.Fatalf("unexpected weights: %+v", w)
	}
	if w.Dir != filepath.Join(root, "f5tts", "base") {
		t.Fatalf("dir=%s", w.Dir)
	}
}

func TestLocalLanguages(t *testing.T) {
	root := t.TempDir()
	model := filepath.Join(root, "chatterbox", "base")
	writeFile(t, filepath.Join(model, "English", "t3.safetensors"), "w")
	writeFile(t, filepath.Join(model, "German", "t3.safetensors"), "w")
	f := NewFiles(WithModelsDir(root))
	ctx := context.Background()

	w, err := f.Local(ctx, "chatterbox", cfg("base", loadconfig.WithLanguage("German")))
	if err != nil {
		t.Fatalf("german: %v", err)
	}
	if w.Dir != filepath.Join(model, "German") || w.Language != "German" {
		t.Fatalf("german weights: %+v", w)
	}
	_, err = f.Local(ctx, "chatterbox", cfg("base", loadconfig.WithLanguage("French")))
	if !modelerr.IsLanguageNotSupported(err) {
		t.Fatalf("french: want language error, got %v", err)
	}
}

func TestLocalSingleLanguageModelIgnoresLanguage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "m")
	writeFile(t, filepath.Join(dir, "model.pt"), "w")
	f := NewFiles()
	w, err := f.Local(context.Background(), "vibevoice", cfg("m", loadconfig.WithModelPath(dir), loadconfig.WithLanguage("French")))
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if w.Dir != dir || w.Format != "pt" {
		t.Fatalf("weights: %+v", w)
	}
}

func TestLocalErrorKinds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "rvc", "empty", "model.pth"), "")
	writeFile(t, filepath.Join(root, "rvc", "noweights", "config.json"), "{}")
	f := NewFiles(WithModelsDir(root))
	ctx := context.Background()

	tests := []struct {
		name  string
		cfg   loadconfig.Config
		check func(error) bool
	}{
		{"missing dir", cfg("nope"), modelerr.IsNotFound},
		{"no weights", cfg("noweights"), modelerr.IsNotFound},
		{"empty weights", cfg("empty"), modelerr.IsFormat},
		{"bad device", loadconfig.New(cpu, "tpu", "empty"), modelerr.IsDevice},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.Local(ctx, "rvc", tc.cfg)
			if !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
	if _, err := NewFiles().Local(ctx, "rvc", cfg("x")); !modelerr.IsNotFound(err) {
		t.Fatalf("no models dir: %v", err)
	}
}

func TestLocalReadsVoices(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "m")
	writeFile(t, filepath.Join(dir, "model.safetensors"), "w")
	codec, err := audio.Select(audio.PCM16WAV)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	clip := audio.Clip{SampleRate: 1000, Channels: 1, Samples: make([]float32, 500)}
	if err := codec.Encode(filepath.Join(dir, "voices", "narrator.wav"), clip); err != nil {
		t.Fatalf("encode: %v", err)
	}
	f := NewFiles(WithCodec(codec))
	w, err := f.Local(context.Background(), "vibevoice", cfg("m", loadconfig.WithModelPath(dir)))
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if got := w.Voices["narrator"]; got != 500*time.Millisecond {
		t.Fatalf("voice duration=%v", got)
	}

	writeFile(t, filepath.Join(dir, "broken.wav"), "junk")
	if _, err := f.Local(context.Background(), "vibevoice", cfg("m", loadconfig.WithModelPath(dir))); !modelerr.IsFormat(err) {
		t.Fatalf("broken voice: %v", err)
	}
}

type fakeBackbone struct{ closed bool }

func (b *fakeBackbone) Close() error { b.closed = true; return nil }

func TestLocalGGUFBackbone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "m")
	writeFile(t, filepath.Join(dir, "backbone.gguf"), "w")
	bb := &fakeBackbone{}
	var gotPath string
	f := NewFiles(WithBackboneOpener(func(path, dev string) (io.Closer, error) {
		gotPath = path
		return bb, nil
	}))
	w, err := f.Local(context.Background(), "index_tts", cfg("m", loadconfig.WithModelPath(dir)))
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	if gotPath != filepath.Join(dir, "backbone.gguf") {
		t.Fatalf("opened %q", gotPath)
	}
	if err := w.Close(); err != nil || !bb.closed {
		t.Fatalf("close: %v closed=%v", err, bb.closed)
	}

	if gguf.Built {
		return
	}
	_, err = NewFiles().Local(context.Background(), "index_tts", cfg("m", loadconfig.WithModelPath(dir)))
	if !modelerr.IsInitialization(err) {
		t.Fatalf("stub backbone: %v", err)
	}
}

func TestRemoteDownloadsThenValidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/org/voice/resolve/main/French/model.safetensors" {
			_, _ = w.Write([]byte("weights"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()
	f := NewFiles(WithHub(hub.New(t.TempDir(), hub.WithEndpoint(srv.URL))))
	e := f.For("f5tts")
	if !e.Remote() {
		t.Fatalf("remote not configured")
	}

	a, err := e.LoadRemote(context.Background(), cfg("voice", loadconfig.WithRepoID("org/voice"), loadconfig.WithLanguage("French")))
	if err != nil {
		t.Fatalf("remote: %v", err)
	}
	w := a.(*Weights)
	if w.Source != SourceHub || w.Language != "French" {
		t.Fatalf("weights: %+v", w)
	}

	_, err = e.LoadRemote(context.Background(), cfg("voice", loadconfig.WithRepoID("org/other")))
	if !modelerr.IsNotFound(err) {
		t.Fatalf("missing repo: %v", err)
	}
}

func TestRemoteWithoutHub(t *testing.T) {
	_, err := NewFiles().Remote(context.Background(), "f5tts", cfg("v", loadconfig.WithRepoID("org/v")))
	if !modelerr.IsDownload(err) {
		t.Fatalf("want download error, got %v", err)
	}
}

func TestEngineLoadLocalReturnsUntypedNil(t *testing.T) {
	a, err := NewFiles().For("rvc").LoadLocal(context.Background(), cfg("x"))
	if err == nil || a != nil {
		t.Fatalf("want nil artifact and error, got %v %v", a, err)
	}
	var me *modelerr.Error
	if !errors.As(err, &me) {
		t.Fatalf("want taxonomy error, got %T", err)
	}
}

func TestRemoteFilesParam(t *testing.T) {
	tests := []struct {
		params map[string]any
		want   []string
	}{
		{nil, DefaultRemoteFiles},
		{map[string]any{"files": []any{"a.pt", 3, "b.pt"}}, []string{"a.pt", "b.pt"}},
		{map[string]any{"files": "one.bin"}, []string{"one.bin"}},
		{map[string]any{"files": []any{}}, DefaultRemoteFiles},
	}
	for _, tc := range tests {
		got := remoteFiles(cfg("m", loadconfig.WithParams(tc.params)))
		if len(got) != len(tc.want) {
			t.Fatalf("params %v: got %v want %v", tc.params, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("params %v: got %v want %v", tc.params, got, tc.want)
			}
		}
	}
}

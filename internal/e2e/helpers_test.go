package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"ttsloader/internal/capability"
	"ttsloader/internal/device"
	"ttsloader/internal/engines"
	"ttsloader/internal/events"
	"ttsloader/internal/httpapi"
	"ttsloader/internal/hub"
	"ttsloader/internal/manager"
	"ttsloader/internal/registry"
	"ttsloader/pkg/types"
)

// createTempModelsDir lays out weight files relative to a fresh models dir.
func createTempModelsDir(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		p := filepath.Join(dir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(p, []byte("weights"), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

// api serves a manager with the local-files loaders over httptest.
type api struct {
	*manager.Manager
	modelsDir string
}

func (a *api) ListModels() ([]types.LocalModel, error) { return registry.LoadDir(a.modelsDir) }

// newServerForDir wires resolver, registry, loaders and manager the way the
// binary does. hubURL enables remote fallbacks when non-empty.
func newServerForDir(t *testing.T, modelsDir, hubURL string, pub events.Publisher) (*httptest.Server, *manager.Manager) {
	t.Helper()
	opts := []engines.Option{engines.WithModelsDir(modelsDir)}
	if hubURL != "" {
		opts = append(opts, engines.WithHub(hub.New(t.TempDir(), hub.WithEndpoint(hubURL))))
	}
	files := engines.NewFiles(opts...)
	table := capability.Default()
	mgr := manager.New(manager.Config{
		Resolver:  device.NewResolver(device.Static(false, true, false)),
		Registry:  capability.NewRegistry(table),
		Publisher: pub,
	})
	for _, id := range table.Engines() {
		mgr.RegisterEngine(id, files.For(id))
	}
	srv := httptest.NewServer(httpapi.NewMux(&api{Manager: mgr, modelsDir: modelsDir}))
	t.Cleanup(func() {
		srv.Close()
		_ = mgr.Close()
	})
	return srv, mgr
}

func postJSON(t *testing.T, url string, body any) (int, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

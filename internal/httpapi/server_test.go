package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ttsloader/internal/manager"
	"ttsloader/internal/modelerr"
	"ttsloader/pkg/types"
)

type mockService struct {
	loadErr   error
	lastLoad  types.LoadRequest
	unloadErr error
	unloaded  string
	resets    int
}

func (m *mockService) DeviceInfo() types.DeviceResponse {
	return types.DeviceResponse{Requested: "auto", Resolved: "cpu", Valid: []string{"auto", "cpu"}}
}

func (m *mockService) ResetDevice() types.DeviceResponse {
	m.resets++
	return m.DeviceInfo()
}

func (m *mockService) Engines() []types.EngineInfo {
	return []types.EngineInfo{{ID: "chatterbox", MultilingualModelSwitching: true}, {ID: "f5tts"}}
}

func (m *mockService) Engine(id string) (types.EngineInfo, bool) {
	for _, e := range m.Engines() {
		if e.ID == id {
			return e, true
		}
	}
	return types.EngineInfo{}, false
}

func (m *mockService) ListModels() ([]types.LocalModel, error) { return nil, nil }

func (m *mockService) Status() types.StatusResponse { return types.StatusResponse{} }

func (m *mockService) Load(ctx context.Context, req types.LoadRequest) (manager.Result, error) {
	m.lastLoad = req
	if m.loadErr != nil {
		return manager.Result{}, m.loadErr
	}
	return manager.Result{Key: req.Engine + "|k", Device: "cpu", Loader: "French model"}, nil
}

func (m *mockService) Unload(key string) error {
	m.unloaded = key
	return m.unloadErr
}

func post(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	w := get(NewMux(&mockService{}), "/healthz")
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
}

func TestDevicesAndReset(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc)
	w := get(h, "/devices")
	var resp types.DeviceResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Resolved != "cpu" {
		t.Fatalf("resolved=%s", resp.Resolved)
	}
	if w := post(h, "/devices/reset", ""); w.Code != http.StatusOK || svc.resets != 1 {
		t.Fatalf("reset: %d resets=%d", w.Code, svc.resets)
	}
}

func TestEngines(t *testing.T) {
	h := NewMux(&mockService{})
	var list types.EnginesResponse
	if err := json.Unmarshal(get(h, "/engines").Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Engines) != 2 {
		t.Fatalf("engines=%v", list.Engines)
	}
	if w := get(h, "/engines/chatterbox"); w.Code != http.StatusOK {
		t.Fatalf("engine: %d", w.Code)
	}
	if w := get(h, "/engines/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("unknown engine: %d", w.Code)
	}
}

func TestModelsNeverNull(t *testing.T) {
	w := get(NewMux(&mockService{}), "/models")
	if !strings.Contains(w.Body.String(), `"models":[]`) {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestLoad(t *testing.T) {
	svc := &mockService{}
	w := post(NewMux(svc), "/load", `{"engine":"chatterbox","model":"base","language":"French"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("load: %d %s", w.Code, w.Body.String())
	}
	var resp types.LoadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Loader != "French model" || resp.Device != "cpu" {
		t.Fatalf("resp=%+v", resp)
	}
	if svc.lastLoad.Language != "French" {
		t.Fatalf("request not forwarded: %+v", svc.lastLoad)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodPost, "/load", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("no content type: %d", w.Code)
	}
	if w := post(h, "/load", `{`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json: %d", w.Code)
	}

	old := maxBodyBytes
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(old)
	if w := post(h, "/load", `{"engine":"f5tts","model":"a-very-long-model-name"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("oversized body: %d", w.Code)
	}
}

func TestLoadErrorMapping(t *testing.T) {
	exhausted := modelerr.Exhausted("chatterbox/base: all loaders failed",
		[]string{"French model", "English model"}, modelerr.NotFound("no weights"))
	tests := []struct {
		name     string
		err      error
		code     int
		kind     string
		attempts int
	}{
		{"invalid", manager.ErrInvalidRequest("engine is required"), http.StatusBadRequest, "", 0},
		{"unregistered", manager.ErrEngineNotRegistered("x"), http.StatusNotFound, "", 0},
		{"not found", modelerr.NotFound("missing"), http.StatusNotFound, "not_found", 0},
		{"language", modelerr.LanguageNotSupported("Klingon"), http.StatusUnprocessableEntity, "language_not_supported", 0},
		{"download", modelerr.Download("gated", nil), http.StatusBadGateway, "download", 0},
		{"device", modelerr.Device("no cuda", nil), http.StatusServiceUnavailable, "device", 0},
		{"exhausted", exhausted, http.StatusInternalServerError, "model_loading", 2},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := post(NewMux(&mockService{loadErr: tc.err}), "/load", `{"engine":"chatterbox","model":"base"}`)
			if w.Code != tc.code {
				t.Fatalf("code=%d want %d", w.Code, tc.code)
			}
			var resp types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tc.code || resp.Kind != tc.kind || len(resp.Attempts) != tc.attempts {
				t.Fatalf("resp=%+v", resp)
			}
		})
	}
}

func TestUnload(t *testing.T) {
	svc := &mockService{}
	h := NewMux(svc)
	if w := post(h, "/unload", `{"key":"f5tts|k"}`); w.Code != http.StatusNoContent || svc.unloaded != "f5tts|k" {
		t.Fatalf("unload: %d key=%q", w.Code, svc.unloaded)
	}
	svc.unloadErr = manager.ErrNotLoaded("x")
	if w := post(h, "/unload", `{"key":"x"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown key: %d", w.Code)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	h := NewMux(&mockService{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "abc" {
		t.Fatalf("request id=%q", got)
	}
	if got := get(h, "/healthz").Header().Get("X-Request-Id"); len(got) != 36 {
		t.Fatalf("generated id=%q", got)
	}
}

func TestMetricsUseRoutePattern(t *testing.T) {
	h := NewMux(&mockService{})
	c := httpRequestsTotal.WithLabelValues("/engines/{id}", http.MethodGet, "200")
	before := testutil.ToFloat64(c)
	get(h, "/engines/chatterbox")
	get(h, "/engines/f5tts")
	if got := testutil.ToFloat64(c) - before; got != 2 {
		t.Fatalf("counter delta=%v", got)
	}
	w := get(h, "/metrics")
	if !strings.Contains(w.Body.String(), "ttsloader_http_requests_total") {
		t.Fatalf("metrics body missing counter")
	}
}

func TestCORS(t *testing.T) {
	SetCORSOptions(true, []string{"http://ui.local"}, []string{"GET"}, []string{"Content-Type"})
	defer SetCORSOptions(false, nil, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://ui.local")
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://ui.local" {
		t.Fatalf("allow origin=%q", got)
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errb bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errb)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeWeights(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("weights"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		if diff := cmp.Diff(c.want, splitCSV(c.in)); diff != "" {
			t.Fatalf("%q mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"steps=32", "fp16=true", "files=a.pt, b.pt", "voice=narrator"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]any{
		"steps": 32,
		"fp16":  true,
		"files": []any{"a.pt", "b.pt"},
		"voice": "narrator",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	if _, err := parseParams([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}

func TestDeviceValidate(t *testing.T) {
	out, err := run(t, "device", "validate", "CUDA")
	if err != nil || strings.TrimSpace(out) != "valid" {
		t.Fatalf("CUDA: out=%q err=%v", out, err)
	}
	if _, err := run(t, "device", "validate", "tpu"); err == nil {
		t.Fatalf("tpu accepted")
	}
}

func TestDeviceResolve(t *testing.T) {
	t.Setenv("TTSLOADER_MPS", "0")
	t.Setenv("TTSLOADER_CUDA", "1")
	t.Setenv("TTSLOADER_XPU", "0")
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"device", "resolve"}, "cuda"},
		{[]string{"device", "resolve", "cpu"}, "cpu"},
		{[]string{"--device", "xpu", "device", "resolve"}, "xpu"},
	}
	for _, tc := range tests {
		out, err := run(t, tc.args...)
		if err != nil {
			t.Fatalf("%v: %v", tc.args, err)
		}
		if got := strings.TrimSpace(out); got != tc.want {
			t.Fatalf("%v: got %q want %q", tc.args, got, tc.want)
		}
	}
}

func TestEnginesTable(t *testing.T) {
	out, err := run(t, "engines")
	if err != nil {
		t.Fatalf("engines: %v", err)
	}
	for _, s := range []string{"ENGINE", "chatterbox", "higgs_audio", "English,German,Italian"} {
		if !strings.Contains(out, s) {
			t.Fatalf("missing %q in:\n%s", s, out)
		}
	}
}

func TestEnginesHonorConfigOverrides(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "ttsloader.yaml")
	body := "engines:\n  vibevoice:\n    fallback_languages: [English, Dutch]\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	out, err := run(t, "--config", cfgPath, "engines")
	if err != nil {
		t.Fatalf("engines: %v", err)
	}
	if !strings.Contains(out, "English,Dutch") {
		t.Fatalf("override not applied:\n%s", out)
	}
}

func TestModelsAndLoad(t *testing.T) {
	root := t.TempDir()
	writeWeights(t, filepath.Join(root, "chatterbox", "base", "English", "t3.safetensors"))
	writeWeights(t, filepath.Join(root, "chatterbox", "base", "German", "t3.safetensors"))
	writeWeights(t, filepath.Join(root, "f5tts", "F5TTS_v1_Base", "model.safetensors"))

	out, err := run(t, "--models-dir", root, "models")
	if err != nil {
		t.Fatalf("models: %v", err)
	}
	if !strings.Contains(out, "chatterbox/base") || !strings.Contains(out, "English,German") {
		t.Fatalf("models output:\n%s", out)
	}
	out, err = run(t, "--models-dir", root, "models", "f5tts")
	if err != nil || strings.Contains(out, "chatterbox") {
		t.Fatalf("filtered models: err=%v\n%s", err, out)
	}

	out, err = run(t, "--models-dir", root, "--offline", "--device", "cpu",
		"load", "--engine", "chatterbox", "--model", "local:base", "--language", "French")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, s := range []string{"chatterbox/base (primary)", "failed", "English model", `via "English model"`} {
		if !strings.Contains(out, s) {
			t.Fatalf("missing %q in:\n%s", s, out)
		}
	}
}

func TestLoadJSONReportsExhaustion(t *testing.T) {
	root := t.TempDir()
	out, err := run(t, "--models-dir", root, "--offline", "--device", "cpu",
		"load", "--engine", "rvc", "--model", "missing", "--json")
	if err == nil {
		t.Fatalf("expected load error")
	}
	var res loadOutput
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Kind != "model_loading" || len(res.Attempted) != 1 {
		t.Fatalf("result=%+v", res)
	}
}

func TestLoadRejectsUnknownEngine(t *testing.T) {
	_, err := run(t, "--offline", "load", "--engine", "bark", "--model", "x")
	if err == nil || !strings.Contains(err.Error(), "engine not registered") {
		t.Fatalf("err=%v", err)
	}
}

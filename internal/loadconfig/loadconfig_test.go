package loadconfig

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ttsloader/internal/device"
)

func newResolver(cuda bool) *device.Resolver {
	return device.NewResolver(device.Static(false, cuda, false))
}

func TestNewResolvesDevice(t *testing.T) {
	c := New(newResolver(true), device.Auto, "m")
	if c.Device() != device.CUDA {
		t.Fatalf("device=%q", c.Device())
	}
	c = New(newResolver(true), device.CPU, "m")
	if c.Device() != device.CPU {
		t.Fatalf("explicit device changed: %q", c.Device())
	}
}

func TestLocalPrefixStripped(t *testing.T) {
	c := New(newResolver(false), "cpu", "local:mymodel")
	if c.ModelName() != "mymodel" {
		t.Fatalf("model=%q", c.ModelName())
	}
	c = New(newResolver(false), "cpu", "org/local:thing")
	if c.ModelName() != "org/local:thing" {
		t.Fatalf("only a leading prefix is stripped, got %q", c.ModelName())
	}
}

func TestParamsDefaultEmpty(t *testing.T) {
	c := New(newResolver(false), "cpu", "m")
	if c.Params() == nil || len(c.Params()) != 0 {
		t.Fatalf("params=%v", c.Params())
	}
}

func TestCacheKeyInsertionOrderIndependent(t *testing.T) {
	r := newResolver(false)
	a := map[string]any{}
	a["quant"] = "q4"
	a["steps"] = 32
	a["voice"] = "alice"
	b := map[string]any{}
	b["voice"] = "alice"
	b["quant"] = "q4"
	b["steps"] = 32

	ca := New(r, "cpu", "m", WithLanguage("French"), WithParams(a))
	cb := New(r, "cpu", "m", WithLanguage("French"), WithParams(b))
	if diff := cmp.Diff(ca.CacheKey(), cb.CacheKey()); diff != "" {
		t.Fatalf("projections differ (-a +b):\n%s", diff)
	}
	if ca.CacheKeyString() != cb.CacheKeyString() {
		t.Fatalf("key strings differ:\n%s\n%s", ca.CacheKeyString(), cb.CacheKeyString())
	}
}

func TestCacheKeyCoversEveryField(t *testing.T) {
	r := newResolver(false)
	base := New(r, "cpu", "m", WithLanguage("English"), WithModelPath("/p"), WithRepoID("org/m"),
		WithParams(map[string]any{"quant": "q4"}))
	variants := []Config{
		New(r, "cuda", "m", WithLanguage("English"), WithModelPath("/p"), WithRepoID("org/m"), WithParams(map[string]any{"quant": "q4"})),
		New(r, "cpu", "n", WithLanguage("English"), WithModelPath("/p"), WithRepoID("org/m"), WithParams(map[string]any{"quant": "q4"})),
		New(r, "cpu", "m", WithLanguage("German"), WithModelPath("/p"), WithRepoID("org/m"), WithParams(map[string]any{"quant": "q4"})),
		New(r, "cpu", "m", WithLanguage("English"), WithModelPath("/q"), WithRepoID("org/m"), WithParams(map[string]any{"quant": "q4"})),
		New(r, "cpu", "m", WithLanguage("English"), WithModelPath("/p"), WithRepoID("org/x"), WithParams(map[string]any{"quant": "q4"})),
		New(r, "cpu", "m", WithLanguage("English"), WithModelPath("/p"), WithRepoID("org/m"), WithParams(map[string]any{"quant": "q8"})),
	}
	for i, v := range variants {
		if v.CacheKeyString() == base.CacheKeyString() {
			t.Fatalf("variant %d collides with base: %s", i, v.CacheKeyString())
		}
	}
	// Engine name and model type are hints, not artifact identity.
	hinted := New(r, "cpu", "m", WithEngine("f5tts"), WithModelType("tts"), WithLanguage("English"),
		WithModelPath("/p"), WithRepoID("org/m"), WithParams(map[string]any{"quant": "q4"}))
	if hinted.CacheKeyString() != base.CacheKeyString() {
		t.Fatalf("hints should not change the key")
	}
}

func TestCacheKeyParamCollision(t *testing.T) {
	r := newResolver(false)
	c := New(r, "cpu", "m", WithParams(map[string]any{"device": "cuda:1"}))
	key := c.CacheKey()
	params, _ := key[KeyParams].(map[string]any)
	if key[KeyDevice] != "cpu" || params["device"] != "cuda:1" {
		t.Fatalf("collision handling: %v", key)
	}

	both := New(r, "cpu", "m", WithParams(map[string]any{"device": "x", "param:device": "y"}))
	want := both.CacheKeyString()
	if !strings.Contains(want, `"param:device":"y"`) || !strings.Contains(want, `"device":"x"`) {
		t.Fatalf("parameter lost: %s", want)
	}
	for i := 0; i < 200; i++ {
		again := New(r, "cpu", "m", WithParams(map[string]any{"device": "x", "param:device": "y"}))
		if got := again.CacheKeyString(); got != want {
			t.Fatalf("unstable key:\n%s\n%s", want, got)
		}
	}

	plain := New(r, "cpu", "m", WithParams(map[string]any{"device": "x"}))
	prefixed := New(r, "cpu", "m", WithParams(map[string]any{"param:device": "x"}))
	if plain.CacheKeyString() == prefixed.CacheKeyString() {
		t.Fatalf("distinct parameters share a key: %s", plain.CacheKeyString())
	}
}

func TestCacheKeyStringComparesNumbersByValue(t *testing.T) {
	r := newResolver(false)
	i := New(r, "cpu", "m", WithParams(map[string]any{"steps": 1}))
	f := New(r, "cpu", "m", WithParams(map[string]any{"steps": 1.0}))
	if i.CacheKeyString() != f.CacheKeyString() {
		t.Fatalf("int and float keys differ: %s %s", i.CacheKeyString(), f.CacheKeyString())
	}
}

func TestForEngineCopies(t *testing.T) {
	params := map[string]any{"opts": map[string]any{"temp": 0.7}, "tags": []string{"a"}}
	c := New(newResolver(false), "cpu", "m", WithEngine("f5tts"), WithModelType("tts"),
		WithLanguage("French"), WithParams(params))
	params["opts"].(map[string]any)["temp"] = 1.5 // caller map is not shared

	d := c.ForEngine("f5tts")
	if d.EngineName() != "" || d.ModelType() != "" {
		t.Fatalf("hints not dropped: %q %q", d.EngineName(), d.ModelType())
	}
	if d.Language() != "French" || d.Device() != "cpu" || d.ModelName() != "m" {
		t.Fatalf("fields not retained: %s", d)
	}
	if c.EngineName() != "f5tts" {
		t.Fatalf("original mutated")
	}

	d.params["opts"].(map[string]any)["temp"] = 9.9
	d.params["tags"].([]string)[0] = "z"
	v, _ := c.Param("opts")
	if v.(map[string]any)["temp"] != 0.7 {
		t.Fatalf("nested params shared between copies: %v", v)
	}
	tags, _ := c.Param("tags")
	if tags.([]string)[0] != "a" {
		t.Fatalf("slice params shared between copies")
	}
}

func TestString(t *testing.T) {
	c := New(newResolver(false), "cpu", "local:m", WithLanguage("French"), WithRepoID("org/m"))
	s := c.String()
	for _, want := range []string{"device=cpu", "model=m", "lang=French", "repo=org/m"} {
		if !strings.Contains(s, want) {
			t.Fatalf("%q missing %q", s, want)
		}
	}
	if strings.Contains(s, "path=") || strings.Contains(s, "extra=") {
		t.Fatalf("empty fields rendered: %q", s)
	}
}

func TestDerive(t *testing.T) {
	c := New(newResolver(true), device.Auto, "m", WithLanguage("French"),
		WithParams(map[string]any{"opts": map[string]any{"temp": 0.7}}))
	d := c.Derive(WithLanguage("English"))
	if d.Language() != "English" || c.Language() != "French" {
		t.Fatalf("derive languages: %q %q", d.Language(), c.Language())
	}
	if d.Device() != device.CUDA {
		t.Fatalf("device not kept: %q", d.Device())
	}
	if c.CacheKeyString() == d.CacheKeyString() {
		t.Fatalf("derived language should change the cache key")
	}
	d.params["opts"].(map[string]any)["temp"] = 2.0
	v, _ := c.Param("opts")
	if v.(map[string]any)["temp"] != 0.7 {
		t.Fatalf("params shared after Derive")
	}
}

// Package loadconfig holds the normalized parameter bundle passed to every
// model-loading call.
package loadconfig

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// LocalPrefix marks a model name that refers to a local model.
const LocalPrefix = "local:"

// Cache-key field names.
const (
	KeyDevice    = "device"
	KeyModelName = "model_name"
	KeyLanguage  = "language"
	KeyModelPath = "model_path"
	KeyRepoID    = "repo_id"
	// KeyParams holds the engine-specific parameters as a nested map, so a
	// parameter name can never shadow a core field.
	KeyParams = "params"
)

// DeviceResolver expands a device request into a concrete device.
type DeviceResolver interface {
	Resolve(device string) string
}

// Config is immutable after New; every derivation returns a new value.
type Config struct {
	device     string
	modelName  string
	engineName string
	modelType  string
	language   string
	modelPath  string
	repoID     string
	params     map[string]any
}

// Option sets an optional field during construction.
type Option func(*Config)

func WithEngine(name string) Option { return func(c *Config) { c.engineName = name } }

func WithModelType(t string) Option { return func(c *Config) { c.modelType = t } }

func WithLanguage(lang string) Option { return func(c *Config) { c.language = lang } }

func WithModelPath(p string) Option { return func(c *Config) { c.modelPath = p } }

func WithRepoID(id string) Option { return func(c *Config) { c.repoID = id } }

// WithParams sets engine-specific parameters. The map is deep-copied.
func WithParams(p map[string]any) Option {
	return func(c *Config) { c.params = copyParams(p) }
}

// New builds a Config. The device is resolved first, then the local prefix is
// stripped from the model name, then missing params default to empty.
func New(r DeviceResolver, device, modelName string, opts ...Option) Config {
	c := Config{device: r.Resolve(device), modelName: modelName}
	c.modelName = strings.TrimPrefix(c.modelName, LocalPrefix)
	for _, o := range opts {
		o(&c)
	}
	if c.params == nil {
		c.params = map[string]any{}
	}
	return c
}

func (c Config) Device() string     { return c.device }
func (c Config) ModelName() string  { return c.modelName }
func (c Config) EngineName() string { return c.engineName }
func (c Config) ModelType() string  { return c.modelType }
func (c Config) Language() string   { return c.language }
func (c Config) ModelPath() string  { return c.modelPath }
func (c Config) RepoID() string     { return c.repoID }

// Params returns a deep copy of the engine-specific parameters.
func (c Config) Params() map[string]any { return copyParams(c.params) }

// Param returns one engine-specific parameter.
func (c Config) Param(key string) (any, bool) {
	v, ok := c.params[key]
	return v, ok
}

// CacheKey projects every field that affects the loaded artifact. Engine
// parameters live under KeyParams.
func (c Config) CacheKey() map[string]any {
	return map[string]any{
		KeyDevice:    c.device,
		KeyModelName: c.modelName,
		KeyLanguage:  c.language,
		KeyModelPath: c.modelPath,
		KeyRepoID:    c.repoID,
		KeyParams:    copyParams(c.params),
	}
}

// CacheKeyString renders CacheKey deterministically and is the identity
// callers should compare. Values are compared by their JSON encoding, so
// numerically equal parameters (int 1, float64 1) give the same key while
// the CacheKey map keeps their Go types apart.
func (c Config) CacheKeyString() string {
	b, err := json.Marshal(c.CacheKey())
	if err == nil {
		return string(b)
	}
	// Parameters that cannot be encoded fall back to a sorted %v rendering.
	key := c.CacheKey()
	names := make([]string, 0, len(key))
	for k := range key {
		names = append(names, k)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, k := range names {
		fmt.Fprintf(&sb, "%s=%v;", k, key[k])
	}
	return sb.String()
}

// ForEngine returns a copy handed to the engine engineID. Engine name and
// model type hints are dropped since the receiving engine already knows them;
// parameters are deep-copied.
func (c Config) ForEngine(_ string) Config {
	next := c
	next.engineName = ""
	next.modelType = ""
	next.params = copyParams(c.params)
	return next
}

// Derive returns a copy with opts applied. The device is kept as resolved.
func (c Config) Derive(opts ...Option) Config {
	next := c
	next.params = copyParams(c.params)
	for _, o := range opts {
		o(&next)
	}
	if next.params == nil {
		next.params = map[string]any{}
	}
	return next
}

func (c Config) String() string {
	parts := []string{"device=" + c.device, "model=" + c.modelName}
	if c.language != "" {
		parts = append(parts, "lang="+c.language)
	}
	if c.modelPath != "" {
		parts = append(parts, "path="+c.modelPath)
	}
	if c.repoID != "" {
		parts = append(parts, "repo="+c.repoID)
	}
	if len(c.params) > 0 {
		b, _ := json.Marshal(c.params)
		parts = append(parts, "extra="+string(b))
	}
	return "LoadConfig(" + strings.Join(parts, ", ") + ")"
}

func copyParams(p map[string]any) map[string]any {
	if p == nil {
		return nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyParams(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

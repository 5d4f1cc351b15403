package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ttsloader/internal/capability"
)

// Defaults applied by WithDefaults.
const (
	DefaultAddr      = ":8080"
	DefaultDevice    = "auto"
	DefaultModelsDir = "~/models/tts"
	DefaultCacheDir  = "~/.cache/ttsloader/hub"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	Device      string `json:"device" yaml:"device" toml:"device"`
	ModelsDir   string `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	CacheDir    string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	HubEndpoint string `json:"hub_endpoint" yaml:"hub_endpoint" toml:"hub_endpoint"`
	HubToken    string `json:"hub_token" yaml:"hub_token" toml:"hub_token"`
	// MaxCached bounds cached artifacts (0 = unlimited).
	MaxCached    int    `json:"max_cached" yaml:"max_cached" toml:"max_cached"`
	LRUPath      string `json:"lru_path" yaml:"lru_path" toml:"lru_path"`
	LogLevel     string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string `json:"log_format" yaml:"log_format" toml:"log_format"`
	Codec        string `json:"codec" yaml:"codec" toml:"codec"`
	MaxBodyBytes int64  `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	CORS         CORS   `json:"cors" yaml:"cors" toml:"cors"`
	// Engines overrides per-engine capability settings.
	Engines map[string]EngineOverride `json:"engines" yaml:"engines" toml:"engines"`
}

// CORS is opt-in; nothing is added to the router unless Enabled.
type CORS struct {
	Enabled        bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins" toml:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods" yaml:"allowed_methods" toml:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers" yaml:"allowed_headers" toml:"allowed_headers"`
}

type EngineOverride struct {
	// FallbackLanguages replaces the engine's language chain when non-nil.
	FallbackLanguages []string `json:"fallback_languages" yaml:"fallback_languages" toml:"fallback_languages"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// WithDefaults returns a copy with unspecified fields filled in.
func (c Config) WithDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.ModelsDir == "" {
		c.ModelsDir = DefaultModelsDir
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	if c.MaxCached < 0 {
		c.MaxCached = 0
	}
	return c
}

// Capabilities applies the engine overrides to t.
func (c Config) Capabilities(t capability.Table) capability.Table {
	for id, o := range c.Engines {
		if o.FallbackLanguages != nil {
			t = t.WithFallbackLanguages(id, o.FallbackLanguages)
		}
	}
	return t
}

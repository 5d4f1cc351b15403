package types

// DeviceResponse is returned by GET /devices and POST /devices/reset.
type DeviceResponse struct {
	// Device request configured for the server.
	// example: auto
	Requested string `json:"requested" example:"auto"`
	// Concrete device the request resolves to.
	// example: cuda
	Resolved string `json:"resolved" example:"cuda"`
	// Whether the auto resolution is currently cached.
	Cached bool `json:"cached"`
	// Every accepted device identifier.
	// example: ["auto","cuda","mps","xpu","cpu"]
	Valid []string `json:"valid"`
}

// EngineInfo describes one engine's model-loading capabilities.
type EngineInfo struct {
	// example: chatterbox
	ID                         string   `json:"id" example:"chatterbox"`
	SupportsVoiceConversion    bool     `json:"supports_voice_conversion"`
	MultilingualModelSwitching bool     `json:"multilingual_model_switching"`
	CanCorruptOnReload         bool     `json:"can_corrupt_on_reload"`
	RequiresSpecialInit        bool     `json:"requires_special_init"`
	HasRecoveryHandler         bool     `json:"has_recovery_handler"`
	FallbackLanguages          []string `json:"fallback_languages"`
	// Whether a loader is registered for this engine.
	Loadable bool `json:"loadable"`
}

// EnginesResponse wraps GET /engines.
type EnginesResponse struct {
	Engines []EngineInfo `json:"engines"`
}

// ModelsResponse wraps GET /models.
type ModelsResponse struct {
	Models []LocalModel `json:"models"`
}

// LoadRequest is the body of POST /load.
type LoadRequest struct {
	// example: f5tts
	Engine string `json:"engine" example:"f5tts"`
	// Device request; empty uses the server default.
	// example: auto
	Device string `json:"device,omitempty" example:"auto"`
	// Model name; a "local:" prefix is accepted and stripped.
	// example: local:F5TTS_v1_Base
	Model string `json:"model" example:"local:F5TTS_v1_Base"`
	// example: tts
	ModelType string `json:"model_type,omitempty" example:"tts"`
	// example: French
	Language string `json:"language,omitempty" example:"French"`
	// Local path of the model directory.
	Path string `json:"path,omitempty"`
	// Remote repository used when local weights are missing.
	// example: SWivid/F5-TTS
	RepoID string `json:"repo_id,omitempty" example:"SWivid/F5-TTS"`
	// Engine-specific parameters; part of the cache key.
	Params map[string]any `json:"params,omitempty"`
}

// LoadResponse reports the outcome of POST /load.
type LoadResponse struct {
	// Cache key of the loaded artifact.
	Key string `json:"key"`
	// Device the artifact was loaded on.
	// example: cuda
	Device string `json:"device" example:"cuda"`
	// Loader that produced the artifact.
	// example: French model
	Loader string `json:"loader,omitempty" example:"English model"`
	// Loaders that failed before the winner, in order.
	Attempted []string `json:"attempted,omitempty"`
	// True when served from the artifact cache.
	Cached bool `json:"cached"`
}

// UnloadRequest is the body of POST /unload.
type UnloadRequest struct {
	Key string `json:"key"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Failure kind for model-loading errors.
	// example: not_found
	Kind string `json:"kind,omitempty" example:"not_found"`
	// Loader names attempted before giving up.
	Attempts []string `json:"attempts,omitempty"`
}

// EntryStatus summarizes one cached artifact for /status.
type EntryStatus struct {
	Key      string `json:"key"`
	Engine   string `json:"engine,omitempty"`
	Model    string `json:"model"`
	Device   string `json:"device"`
	Language string `json:"language,omitempty"`
	// Loader that produced the artifact.
	Loader string `json:"loader,omitempty"`
	// Last time this entry served a request (unix seconds).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
	// Number of requests served from cache.
	Hits int `json:"hits"`
}

// HistoryRecord is persisted LRU metadata from earlier runs.
type HistoryRecord struct {
	Key          string `json:"key"`
	Engine       string `json:"engine,omitempty"`
	LastUsedUnix int64  `json:"last_used_unix"`
	Loads        int    `json:"loads"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Resolved default device.
	// example: cuda
	Device  string        `json:"device" example:"cuda"`
	Entries []EntryStatus `json:"entries"`
	// Maximum cached artifacts (0 = unlimited).
	// example: 4
	MaxCached int `json:"max_cached" example:"4"`
	// example: 12
	LoadsTotal uint64 `json:"loads_total" example:"12"`
	// example: 5
	EvictionsTotal uint64 `json:"evictions_total" example:"5"`
	// example: 3
	RecoveriesTotal uint64 `json:"recoveries_total" example:"3"`
	// Last load failure observed by the manager.
	LastError string `json:"last_error,omitempty"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Persisted records from earlier runs.
	History []HistoryRecord `json:"history,omitempty"`
}

// Package capability records what each TTS engine can do and how its models
// must be loaded.
//
// The capability Table is immutable once built. Recovery handlers, the only
// per-engine state that may change after startup, live in a separate side
// table owned by the Registry.
package capability

import (
	"sort"
)

// Feature names accepted by Registry.SupportsFeature.
type Feature string

const (
	FeatureVoiceConversion    Feature = "voice_conversion"
	FeatureMultilingual       Feature = "multilingual"
	FeatureCorruptionRecovery Feature = "corruption_recovery"
)

// DefaultFallbackLanguages applies when a descriptor leaves FallbackLanguages nil.
var DefaultFallbackLanguages = []string{"English"}

// RecoveryHandler resets engine state after a corrupting reload.
type RecoveryHandler func() error

// Descriptor describes model-loading behavior for one engine.
type Descriptor struct {
	SupportsVoiceConversion bool `json:"supports_voice_conversion"`
	// MultilingualModelSwitching is true when each language has its own weights
	// and false when one model covers every language internally.
	MultilingualModelSwitching bool `json:"multilingual_model_switching"`
	CanCorruptOnReload         bool `json:"can_corrupt_on_reload"`
	RequiresSpecialInit        bool `json:"requires_special_init"`
	// FallbackLanguages is tried in order when the primary language fails.
	// nil means DefaultFallbackLanguages; an empty slice disables fallback.
	FallbackLanguages []string `json:"fallback_languages"`
	// RecoveryHandler is populated by Registry.Get from the side table; it is
	// ignored when building a Table.
	RecoveryHandler RecoveryHandler `json:"-"`
}

func (d Descriptor) normalized() Descriptor {
	if d.FallbackLanguages == nil {
		d.FallbackLanguages = DefaultFallbackLanguages
	}
	d.FallbackLanguages = append([]string{}, d.FallbackLanguages...)
	d.RecoveryHandler = nil
	return d
}

// Table is an immutable engine -> descriptor mapping.
type Table struct {
	m map[string]Descriptor
}

// NewTable copies entries into a new table.
func NewTable(entries map[string]Descriptor) Table {
	m := make(map[string]Descriptor, len(entries))
	for id, d := range entries {
		m[id] = d.normalized()
	}
	return Table{m: m}
}

// Lookup returns a copy of the descriptor for engineID.
func (t Table) Lookup(engineID string) (Descriptor, bool) {
	d, ok := t.m[engineID]
	if !ok {
		return Descriptor{}, false
	}
	d.FallbackLanguages = append([]string{}, d.FallbackLanguages...)
	return d, true
}

// Engines returns the sorted engine identifiers.
func (t Table) Engines() []string {
	out := make([]string, 0, len(t.m))
	for id := range t.m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// WithFallbackLanguages returns a new table in which engineID uses langs.
// Unknown engines are left out rather than created.
func (t Table) WithFallbackLanguages(engineID string, langs []string) Table {
	next := make(map[string]Descriptor, len(t.m))
	for id, d := range t.m {
		next[id] = d
	}
	if d, ok := next[engineID]; ok {
		if langs == nil {
			langs = []string{}
		}
		d.FallbackLanguages = append([]string{}, langs...)
		next[engineID] = d
	}
	return Table{m: next}
}

// Default returns the built-in engine table.
func Default() Table {
	return NewTable(map[string]Descriptor{
		"chatterbox": {
			SupportsVoiceConversion:    true,
			MultilingualModelSwitching: true,
			FallbackLanguages:          []string{"English", "German", "Italian"},
		},
		"chatterbox_official_23lang": {
			SupportsVoiceConversion: true,
			FallbackLanguages:       []string{"English"},
		},
		"f5tts": {
			MultilingualModelSwitching: true,
			FallbackLanguages:          []string{"English"},
		},
		"higgs_audio": {
			// CUDA graph state does not survive a reload.
			CanCorruptOnReload:  true,
			RequiresSpecialInit: true,
		},
		"rvc": {
			SupportsVoiceConversion: true,
			FallbackLanguages:       []string{},
		},
		"vibevoice": {
			FallbackLanguages: []string{"English"},
		},
		"index_tts": {
			FallbackLanguages: []string{},
		},
	})
}

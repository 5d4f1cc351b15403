package capability

import "github.com/rs/zerolog"

// Registry answers capability queries and owns recovery-handler registration.
//
// Unknown engines are never an error: queries return zero values so generic
// orchestration code keeps working for engines without an entry. Registry is
// not safe for concurrent registration; handlers are expected to be set once
// per engine at startup.
type Registry struct {
	table    Table
	handlers map[string]RecoveryHandler
	log      zerolog.Logger
}

// NewRegistry wraps an immutable table.
func NewRegistry(t Table) *Registry {
	return &Registry{table: t, handlers: make(map[string]RecoveryHandler), log: zerolog.Nop()}
}

// SetLogger installs a structured logger.
func (r *Registry) SetLogger(l zerolog.Logger) { r.log = l }

// Table returns the underlying capability table.
func (r *Registry) Table() Table { return r.table }

// Get returns the descriptor for engineID with its registered recovery
// handler attached, if any.
func (r *Registry) Get(engineID string) (Descriptor, bool) {
	d, ok := r.table.Lookup(engineID)
	if !ok {
		return Descriptor{}, false
	}
	d.RecoveryHandler = r.handlers[engineID]
	return d, true
}

// SupportsFeature reports whether engineID has feature. Unknown engines and
// unknown features report false.
func (r *Registry) SupportsFeature(engineID string, feature Feature) bool {
	d, ok := r.table.Lookup(engineID)
	if !ok {
		return false
	}
	switch feature {
	case FeatureVoiceConversion:
		return d.SupportsVoiceConversion
	case FeatureMultilingual:
		return d.MultilingualModelSwitching
	case FeatureCorruptionRecovery:
		return d.CanCorruptOnReload
	default:
		return false
	}
}

// RegisterRecoveryHandler attaches h to a known engine. Unknown engines are
// ignored.
func (r *Registry) RegisterRecoveryHandler(engineID string, h RecoveryHandler) {
	if _, ok := r.table.Lookup(engineID); !ok {
		r.log.Debug().Str("engine", engineID).Msg("recovery handler for unknown engine ignored")
		return
	}
	r.handlers[engineID] = h
}

// RecoveryHandlerFor returns the handler only when the engine can corrupt on
// reload and a handler was registered.
func (r *Registry) RecoveryHandlerFor(engineID string) (RecoveryHandler, bool) {
	d, ok := r.table.Lookup(engineID)
	if !ok || !d.CanCorruptOnReload {
		return nil, false
	}
	h := r.handlers[engineID]
	return h, h != nil
}

// FallbackLanguages returns the engine's ordered fallback languages, or nil
// for unknown engines.
func (r *Registry) FallbackLanguages(engineID string) []string {
	d, ok := r.table.Lookup(engineID)
	if !ok {
		return nil
	}
	return d.FallbackLanguages
}

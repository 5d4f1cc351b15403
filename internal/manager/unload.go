package manager

import (
	"errors"

	"ttsloader/internal/events"
)

// Unload removes key from the cache and closes its artifact. A later load
// of the same engine counts as a reload.
func (m *Manager) Unload(key string) error {
	if key == "" {
		return ErrNotLoaded("(unspecified)")
	}
	m.mu.Lock()
	e, ok := m.lookupLocked(key)
	if !ok {
		m.mu.Unlock()
		return ErrNotLoaded(key)
	}
	m.removeLocked(e.key)
	m.mu.Unlock()

	err := closeArtifact(e.artifact)
	m.saveLRUMetadata()
	m.publish(events.Unload, e.engine, map[string]any{"key": e.key})
	m.log.Info().Str("engine", e.engine).Str("model", e.model).Msg("unloaded")
	return err
}

// Close cancels loads in flight and unloads every cached artifact.
func (m *Manager) Close() error {
	m.shutdown()
	m.mu.Lock()
	all := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e)
	}
	m.entries = make(map[string]*entry)
	m.aliases = make(map[string]string)
	m.mu.Unlock()

	var errs []error
	for _, e := range all {
		if err := closeArtifact(e.artifact); err != nil {
			errs = append(errs, err)
		}
		m.publish(events.Unload, e.engine, map[string]any{"key": e.key})
	}
	m.saveLRUMetadata()
	return errors.Join(errs...)
}

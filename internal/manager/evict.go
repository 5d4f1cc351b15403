package manager

import "ttsloader/internal/events"

// evictLocked removes least recently used entries until at most maxCached
// remain. keep is never evicted. The caller closes the returned entries
// after releasing m.mu.
func (m *Manager) evictLocked(keep string) []*entry {
	if m.maxCached <= 0 {
		return nil
	}
	var victims []*entry
	for len(m.entries) > m.maxCached {
		var lru *entry
		for k, e := range m.entries {
			if k == keep {
				continue
			}
			if lru == nil || e.seq < lru.seq {
				lru = e
			}
		}
		if lru == nil {
			break
		}
		m.removeLocked(lru.key)
		m.evictionsTotal++
		victims = append(victims, lru)
	}
	return victims
}

func (m *Manager) closeEvicted(victims []*entry) {
	for _, e := range victims {
		if err := closeArtifact(e.artifact); err != nil {
			m.log.Warn().Err(err).Str("key", e.key).Msg("close evicted artifact")
		}
		m.publish(events.Evict, e.engine, map[string]any{"key": e.key})
		m.log.Info().Str("engine", e.engine).Str("model", e.model).Msg("evicted")
	}
}

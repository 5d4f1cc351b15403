package manager

import (
	"encoding/json"
	"os"

	"ttsloader/internal/common/fsutil"
)

type lruRecord struct {
	Engine       string `json:"engine,omitempty"`
	LastUsedUnix int64  `json:"last_used_unix"`
	Loads        int    `json:"loads"`
}

func (m *Manager) loadLRUMetadata() {
	if m.lruPath == "" {
		return
	}
	f, err := os.Open(m.lruPath)
	if err != nil {
		return
	}
	defer f.Close()
	var data map[string]lruRecord
	if err := json.NewDecoder(f).Decode(&data); err != nil {
		m.log.Warn().Err(err).Str("path", m.lruPath).Msg("ignoring unreadable LRU metadata")
		return
	}
	m.lruMeta = data
}

// touchLRULocked records a use of e; loaded marks a fresh load.
func (m *Manager) touchLRULocked(e *entry, loaded bool) {
	rec := m.lruMeta[e.key]
	rec.Engine = e.engine
	rec.LastUsedUnix = e.lastUsed.Unix()
	if loaded {
		rec.Loads++
	}
	m.lruMeta[e.key] = rec
}

func (m *Manager) saveLRUMetadata() {
	if m.lruPath == "" {
		return
	}
	m.mu.RLock()
	b, err := json.MarshalIndent(m.lruMeta, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return
	}
	if err := fsutil.AtomicWriteFile(m.lruPath, b, 0o644); err != nil {
		m.log.Warn().Err(err).Str("path", m.lruPath).Msg("save LRU metadata")
	}
}

package manager

import (
	"sort"
	"time"

	"ttsloader/pkg/types"
)

// Snapshot returns a read-only view of the manager state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Snapshot{Device: m.resolver.Resolve(m.defaultDevice), Keys: keys, LastError: m.lastErr}
}

// Status builds a detailed status response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	resp := types.StatusResponse{
		Device:          m.resolver.Resolve(m.defaultDevice),
		MaxCached:       m.maxCached,
		LoadsTotal:      m.loadsTotal,
		EvictionsTotal:  m.evictionsTotal,
		RecoveriesTotal: m.recoveriesTotal,
		LastError:       m.lastErr,
		UptimeSeconds:   int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix:  now.Unix(),
	}
	resp.Entries = make([]types.EntryStatus, 0, len(m.entries))
	for _, e := range m.entries {
		resp.Entries = append(resp.Entries, types.EntryStatus{
			Key:      e.key,
			Engine:   e.engine,
			Model:    e.model,
			Device:   e.device,
			Language: e.language,
			Loader:   e.loader,
			LastUsed: e.lastUsed.Unix(),
			Hits:     e.hits,
		})
	}
	sort.Slice(resp.Entries, func(i, j int) bool { return resp.Entries[i].Key < resp.Entries[j].Key })
	for k, rec := range m.lruMeta {
		resp.History = append(resp.History, types.HistoryRecord{
			Key: k, Engine: rec.Engine, LastUsedUnix: rec.LastUsedUnix, Loads: rec.Loads,
		})
	}
	sort.Slice(resp.History, func(i, j int) bool { return resp.History[i].Key < resp.History[j].Key })
	return resp
}

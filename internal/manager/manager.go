package manager

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"ttsloader/internal/capability"
	"ttsloader/internal/device"
	"ttsloader/internal/events"
	"ttsloader/pkg/types"
)

type Manager struct {
	mu            sync.RWMutex
	resolver      *device.Resolver
	registry      *capability.Registry
	defaultDevice string
	engines       map[string]LoaderFactory
	entries       map[string]*entry
	// aliases maps the key of a fallback language to the entry that was
	// loaded for it under another request's key.
	aliases map[string]string
	// loaded records engines that produced an artifact at least once; a
	// later load of the same engine is a reload.
	loaded    map[string]bool
	maxCached int
	useSeq    uint64
	lastErr   string

	loadsTotal      uint64
	evictionsTotal  uint64
	recoveriesTotal uint64

	lruPath string
	lruMeta map[string]lruRecord

	flights singleflight.Group
	// done is canceled by Close and ends loads still in flight.
	done      context.Context
	shutdown  context.CancelFunc
	log       zerolog.Logger
	publisher events.Publisher
	startTime time.Time
}

// New constructs a Manager from Config.
func New(cfg Config) *Manager {
	m := &Manager{
		resolver:      cfg.Resolver,
		registry:      cfg.Registry,
		defaultDevice: cfg.DefaultDevice,
		engines:       make(map[string]LoaderFactory),
		entries:       make(map[string]*entry),
		aliases:       make(map[string]string),
		loaded:        make(map[string]bool),
		maxCached:     cfg.MaxCached,
		lruPath:       cfg.LRUPath,
		lruMeta:       make(map[string]lruRecord),
		log:           zerolog.Nop(),
		publisher:     cfg.Publisher,
		startTime:     time.Now(),
	}
	m.done, m.shutdown = context.WithCancel(context.Background())
	if m.resolver == nil {
		m.resolver = device.NewResolver(device.SystemProbes())
	}
	if m.registry == nil {
		m.registry = capability.NewRegistry(capability.Default())
	}
	if m.defaultDevice == "" {
		m.defaultDevice = defaultDevice
	}
	if m.maxCached < 0 {
		m.maxCached = 0
	}
	if cfg.Logger != nil {
		m.log = *cfg.Logger
	}
	if m.publisher == nil {
		m.publisher = events.Nop{}
	}
	m.loadLRUMetadata()
	return m
}

// SetLogger replaces the manager logger.
func (m *Manager) SetLogger(l zerolog.Logger) {
	m.mu.Lock()
	m.log = l
	m.mu.Unlock()
}

// RegisterEngine installs the loader factory for engineID, replacing any
// previous one.
func (m *Manager) RegisterEngine(engineID string, f LoaderFactory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engines[engineID] = f
}

// RegisterRecoveryHandler forwards to the capability registry.
func (m *Manager) RegisterRecoveryHandler(engineID string, h capability.RecoveryHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry.RegisterRecoveryHandler(engineID, h)
}

// Engines lists every engine known to the registry or registered with a
// loader, sorted by id.
func (m *Manager) Engines() []types.EngineInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := m.registry.Table().Engines()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for id := range m.engines {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	out := make([]types.EngineInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.engineInfoLocked(id))
	}
	return out
}

// Engine describes one engine. ok is false when the engine is neither in the
// registry nor registered with a loader.
func (m *Manager) Engine(engineID string) (types.EngineInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, inTable := m.registry.Get(engineID)
	_, loadable := m.engines[engineID]
	if !inTable && !loadable {
		return types.EngineInfo{}, false
	}
	return m.engineInfoLocked(engineID), true
}

func (m *Manager) engineInfoLocked(id string) types.EngineInfo {
	d, _ := m.registry.Get(id)
	_, loadable := m.engines[id]
	_, hasRecovery := m.registry.RecoveryHandlerFor(id)
	langs := d.FallbackLanguages
	if langs == nil {
		langs = []string{}
	}
	return types.EngineInfo{
		ID:                         id,
		SupportsVoiceConversion:    d.SupportsVoiceConversion,
		MultilingualModelSwitching: d.MultilingualModelSwitching,
		CanCorruptOnReload:         d.CanCorruptOnReload,
		RequiresSpecialInit:        d.RequiresSpecialInit,
		HasRecoveryHandler:         hasRecovery,
		FallbackLanguages:          langs,
		Loadable:                   loadable,
	}
}

// Device returns the resolution of the default device request.
func (m *Manager) Device() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolver.Resolve(m.defaultDevice)
}

// DeviceInfo reports the default device request and its resolution.
func (m *Manager) DeviceInfo() types.DeviceResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved := m.resolver.Resolve(m.defaultDevice)
	_, cached := m.resolver.Cached()
	return types.DeviceResponse{
		Requested: m.defaultDevice,
		Resolved:  resolved,
		Cached:    cached,
		Valid:     append([]string(nil), device.Known...),
	}
}

// ResetDevice drops the cached auto resolution and re-resolves the default
// device. Cached artifacts stay on the device they were loaded on.
func (m *Manager) ResetDevice() types.DeviceResponse {
	m.mu.Lock()
	m.resolver.Reset()
	m.mu.Unlock()
	m.log.Info().Msg("device cache reset")
	return m.DeviceInfo()
}

// Get returns the cached artifact for key.
func (m *Manager) Get(key string) (Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.lookupLocked(key)
	if !ok {
		return nil, false
	}
	m.markUsedLocked(e)
	return e.artifact, true
}

// lookupLocked finds the entry for key, following a language alias.
func (m *Manager) lookupLocked(key string) (*entry, bool) {
	if e, ok := m.entries[key]; ok {
		return e, true
	}
	if target, ok := m.aliases[key]; ok {
		e, ok := m.entries[target]
		return e, ok
	}
	return nil, false
}

// aliasLocked points alias at the entry stored under target unless alias
// already has an entry of its own.
func (m *Manager) aliasLocked(alias, target string) {
	if _, ok := m.entries[alias]; ok {
		return
	}
	m.aliases[alias] = target
}

// removeLocked deletes the entry for key and every alias pointing at it.
func (m *Manager) removeLocked(key string) {
	delete(m.entries, key)
	delete(m.aliases, key)
	for a, target := range m.aliases {
		if target == key {
			delete(m.aliases, a)
		}
	}
}

func (m *Manager) markUsedLocked(e *entry) {
	m.useSeq++
	e.seq = m.useSeq
	e.lastUsed = time.Now()
}

func (m *Manager) publish(name, model string, fields map[string]any) {
	m.publisher.Publish(events.Event{Name: name, Model: model, Fields: fields})
}

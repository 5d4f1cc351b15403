package manager

import (
	"context"
	"strings"
	"time"

	"ttsloader/internal/capability"
	"ttsloader/internal/events"
	"ttsloader/internal/fallback"
	"ttsloader/internal/loadconfig"
	"ttsloader/pkg/types"
)

// Load returns the artifact for req, loading it on a cache miss.
//
// Multilingual-switching engines with a requested language get a language
// chain over the engine's fallback languages. Requests with a repo id get a
// remote fallback that only runs after a not-found shaped failure. Reloading
// an engine that can corrupt on reload runs its recovery handler first.
func (m *Manager) Load(ctx context.Context, req types.LoadRequest) (Result, error) {
	if strings.TrimSpace(req.Engine) == "" {
		return Result{}, ErrInvalidRequest("engine is required")
	}
	if strings.TrimSpace(strings.TrimPrefix(req.Model, loadconfig.LocalPrefix)) == "" {
		return Result{}, ErrInvalidRequest("model is required")
	}

	m.mu.Lock()
	factory, ok := m.engines[req.Engine]
	if !ok {
		m.mu.Unlock()
		return Result{}, ErrEngineNotRegistered(req.Engine)
	}
	desc, _ := m.registry.Get(req.Engine)
	cfg := m.configLocked(req)
	key := cacheKey(req.Engine, cfg)
	if res, hit := m.hitLocked(key); hit {
		m.mu.Unlock()
		m.publish(events.CacheHit, req.Engine, map[string]any{"key": key})
		m.saveLRUMetadata()
		return res, nil
	}
	m.mu.Unlock()

	// The shared load outlives any single caller: a caller whose context
	// ends stops waiting, the others still get the artifact. Close ends it.
	ch := m.flights.DoChan(key, func() (any, error) {
		m.mu.Lock()
		if res, hit := m.hitLocked(key); hit {
			m.mu.Unlock()
			return res, nil
		}
		m.mu.Unlock()
		loadCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
		defer stop()
		unhook := context.AfterFunc(m.done, stop)
		defer unhook()
		return m.load(loadCtx, key, req.Engine, desc, factory, cfg)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// configLocked builds the load configuration for req. Device resolution
// mutates the resolver cache, so m.mu must be held.
func (m *Manager) configLocked(req types.LoadRequest) loadconfig.Config {
	dev := req.Device
	if dev == "" {
		dev = m.defaultDevice
	}
	return loadconfig.New(m.resolver, dev, req.Model,
		loadconfig.WithEngine(req.Engine),
		loadconfig.WithModelType(req.ModelType),
		loadconfig.WithLanguage(req.Language),
		loadconfig.WithModelPath(req.Path),
		loadconfig.WithRepoID(req.RepoID),
		loadconfig.WithParams(req.Params),
	)
}

// cacheKey scopes the configuration key by engine so two engines never
// share an artifact.
func cacheKey(engine string, cfg loadconfig.Config) string {
	return engine + "|" + cfg.CacheKeyString()
}

func (m *Manager) hitLocked(key string) (Result, bool) {
	e, ok := m.lookupLocked(key)
	if !ok {
		return Result{}, false
	}
	m.markUsedLocked(e)
	e.hits++
	m.touchLRULocked(e, false)
	return Result{
		Key:       e.key,
		Artifact:  e.artifact,
		Device:    e.device,
		Loader:    e.loader,
		Attempted: append([]string(nil), e.attempted...),
		Cached:    true,
	}, true
}

func (m *Manager) load(ctx context.Context, key, engine string, desc capability.Descriptor, factory LoaderFactory, cfg loadconfig.Config) (Result, error) {
	start := time.Now()
	m.publish(events.LoadStart, engine, map[string]any{"key": key, "device": cfg.Device()})
	m.log.Info().Str("engine", engine).Stringer("config", cfg).Msg("load start")

	if desc.CanCorruptOnReload {
		m.recoverBeforeReload(engine)
	}

	h, loadedLang := m.buildChain(ctx, engine, desc, factory, cfg)
	art, err := h.Load()
	if err != nil {
		m.mu.Lock()
		m.lastErr = err.Error()
		m.mu.Unlock()
		m.publish(events.LoadFailed, engine, map[string]any{
			"key":       key,
			"engine":    engine,
			"attempted": h.Attempted(),
			"error":     err.Error(),
		})
		m.log.Error().Err(err).Str("engine", engine).Strs("attempted", h.Attempted()).Msg("load failed")
		return Result{}, err
	}

	now := time.Now()
	e := &entry{
		key:       key,
		engine:    engine,
		model:     cfg.ModelName(),
		device:    cfg.Device(),
		language:  cfg.Language(),
		loader:    h.Winner(),
		attempted: h.Attempted(),
		artifact:  art,
		loadedAt:  now,
		lastUsed:  now,
	}
	if *loadedLang != "" {
		e.language = *loadedLang
	}
	m.mu.Lock()
	m.markUsedLocked(e)
	m.entries[key] = e
	if *loadedLang != "" && *loadedLang != cfg.Language() {
		m.aliasLocked(cacheKey(engine, cfg.Derive(loadconfig.WithLanguage(*loadedLang))), key)
	}
	m.loaded[engine] = true
	m.loadsTotal++
	m.touchLRULocked(e, true)
	victims := m.evictLocked(key)
	m.mu.Unlock()

	m.closeEvicted(victims)
	m.saveLRUMetadata()
	m.publish(events.LoadReady, engine, map[string]any{
		"key":    key,
		"loader": e.loader,
		"dur_ms": time.Since(start).Milliseconds(),
	})
	m.log.Info().Str("engine", engine).Str("loader", e.loader).Dur("took", time.Since(start)).Msg("load ready")
	return Result{
		Key:       key,
		Artifact:  art,
		Device:    e.device,
		Loader:    e.loader,
		Attempted: append([]string(nil), e.attempted...),
	}, nil
}

// recoverBeforeReload runs the engine's recovery handler when the engine
// was loaded before. A failing handler is logged and the load proceeds.
func (m *Manager) recoverBeforeReload(engine string) {
	m.mu.Lock()
	reload := m.loaded[engine]
	h, ok := m.registry.RecoveryHandlerFor(engine)
	m.mu.Unlock()
	if !reload || !ok {
		return
	}
	if err := h(); err != nil {
		m.publish(events.RecoveryFailed, engine, map[string]any{"error": err.Error()})
		m.log.Warn().Err(err).Str("engine", engine).Msg("recovery handler failed")
		return
	}
	m.mu.Lock()
	m.recoveriesTotal++
	m.mu.Unlock()
	m.publish(events.RecoveryInvoked, engine, nil)
	m.log.Info().Str("engine", engine).Msg("recovery handler invoked before reload")
}

// buildChain returns the fallback chain for cfg. The string is set to the
// language whose local load succeeded when a language chain ran.
func (m *Manager) buildChain(ctx context.Context, engine string, desc capability.Descriptor, factory LoaderFactory, cfg loadconfig.Config) (*fallback.Handler[Artifact], *string) {
	var loadedLang string
	name := engine + "/" + cfg.ModelName()
	opts := []fallback.Option{fallback.WithLogger(m.log), fallback.WithPublisher(m.publisher)}
	local := func(c loadconfig.Config) (Artifact, error) {
		return factory.LoadLocal(ctx, c.ForEngine(engine))
	}

	var h *fallback.Handler[Artifact]
	if desc.MultilingualModelSwitching && cfg.Language() != "" {
		h = fallback.NewLanguageChain(cfg.Language(), desc.FallbackLanguages, func(lang string) (Artifact, error) {
			art, err := local(cfg.Derive(loadconfig.WithLanguage(lang)))
			if err == nil {
				loadedLang = lang
			}
			return art, err
		}, name, opts...)
	} else {
		h = fallback.New(func() (Artifact, error) { return local(cfg) }, name, opts...)
	}

	if remote, ok := remoteFor(factory); ok && cfg.RepoID() != "" {
		h.WithLocalThenRemote(func() (Artifact, error) {
			return remote.LoadRemote(ctx, cfg.ForEngine(engine))
		})
	}
	return h, &loadedLang
}

func remoteFor(f LoaderFactory) (RemoteLoader, bool) {
	r, ok := f.(RemoteLoader)
	if !ok {
		return nil, false
	}
	if t, ok := f.(remoteToggle); ok && !t.Remote() {
		return nil, false
	}
	return r, true
}

// Package manager loads and caches TTS model artifacts. It is the caller that
// ties the device resolver, the engine capability registry, the load
// configuration and the fallback handler together. It is structured into
// small files by concern:
//
//   - manager.go: core Manager type, engine registration, simple getters.
//   - config.go: Config and package defaults; New applies defaults.
//   - types.go: cache entries, loader factory interfaces, Result, Snapshot.
//   - errors.go: error types and helpers (IsEngineNotRegistered, IsNotLoaded).
//   - load.go: Load, chain construction and recovery before reloads.
//   - evict.go: LRU eviction above MaxCached.
//   - unload.go: Unload and Close.
//   - lru_persist.go: JSON persistence of LRU metadata across runs.
//   - status_report.go: Snapshot/Status reporting helpers.
//
// Loaders run outside the manager lock; concurrent loads of the same cache
// key share one flight.
package manager

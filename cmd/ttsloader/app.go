package main

import (
	"runtime/debug"

	"github.com/rs/zerolog"

	"ttsloader/internal/audio"
	"ttsloader/internal/capability"
	"ttsloader/internal/common/fsutil"
	"ttsloader/internal/config"
	"ttsloader/internal/device"
	"ttsloader/internal/engines"
	"ttsloader/internal/events"
	"ttsloader/internal/hub"
	"ttsloader/internal/manager"
	"ttsloader/internal/registry"
	"ttsloader/pkg/types"
)

// service adapts the manager to the HTTP API by adding model discovery.
type service struct {
	*manager.Manager
	modelsDir string
}

func (s *service) ListModels() ([]types.LocalModel, error) {
	return registry.LoadDir(s.modelsDir)
}

// app wires configuration into the resolver, registry, loaders and manager.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	resolver *device.Resolver
	registry *capability.Registry
	files    *engines.Files
	mgr      *manager.Manager
}

type appOptions struct {
	// probes defaults to device.SystemProbes.
	probes    *device.Probes
	publisher events.Publisher
	offline   bool
}

func newApp(cfg config.Config, log zerolog.Logger, o appOptions) (*app, error) {
	cfg = cfg.WithDefaults()
	probes := device.SystemProbes()
	if o.probes != nil {
		probes = *o.probes
	}
	codec, err := audio.Select(cfg.Codec)
	if err != nil {
		return nil, err
	}

	resolver := device.NewResolver(probes, device.WithLogger(log))
	table := cfg.Capabilities(capability.Default())
	reg := capability.NewRegistry(table)
	reg.SetLogger(log)

	fopts := []engines.Option{
		engines.WithModelsDir(cfg.ModelsDir),
		engines.WithCodec(codec),
		engines.WithLogger(log),
	}
	if !o.offline {
		cacheDir, err := fsutil.ExpandHome(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		hopts := []hub.Option{hub.WithToken(cfg.HubToken), hub.WithLogger(log)}
		if cfg.HubEndpoint != "" {
			hopts = append(hopts, hub.WithEndpoint(cfg.HubEndpoint))
		}
		fopts = append(fopts, engines.WithHub(hub.New(cacheDir, hopts...)))
	}
	files := engines.NewFiles(fopts...)

	lruPath := cfg.LRUPath
	if lruPath != "" {
		if lruPath, err = fsutil.ExpandHome(lruPath); err != nil {
			return nil, err
		}
	}
	mgr := manager.New(manager.Config{
		Resolver:      resolver,
		Registry:      reg,
		DefaultDevice: cfg.Device,
		MaxCached:     cfg.MaxCached,
		LRUPath:       lruPath,
		Logger:        &log,
		Publisher:     o.publisher,
	})
	for _, id := range table.Engines() {
		mgr.RegisterEngine(id, files.For(id))
		if d, _ := table.Lookup(id); d.CanCorruptOnReload {
			mgr.RegisterRecoveryHandler(id, releaseMemory)
		}
	}
	return &app{cfg: cfg, log: log, resolver: resolver, registry: reg, files: files, mgr: mgr}, nil
}

func (a *app) service() *service {
	return &service{Manager: a.mgr, modelsDir: a.cfg.ModelsDir}
}

// releaseMemory returns freed artifact memory to the OS before an engine
// with fragile reload state is loaded again.
func releaseMemory() error {
	debug.FreeOSMemory()
	return nil
}

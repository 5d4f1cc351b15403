package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ttsloader/internal/events"
	"ttsloader/internal/httpapi"
	"ttsloader/internal/metrics"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var (
		addr        string
		maxCached   int
		lruPath     string
		corsOrigins string
		loadTimeout time.Duration
	)
	defaultAddr := os.Getenv("TTSLOADER_ADDR")
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.settings(cmd)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			if fl.Changed("addr") || (cfg.Addr == "" && addr != "") {
				cfg.Addr = addr
			}
			if fl.Changed("max-cached") {
				cfg.MaxCached = maxCached
			}
			if fl.Changed("lru-path") {
				cfg.LRUPath = lruPath
			}
			if fl.Changed("cors-origins") {
				cfg.CORS.Enabled = true
				cfg.CORS.AllowedOrigins = splitCSV(corsOrigins)
			}
			cfg = cfg.WithDefaults()

			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			a, err := newApp(cfg, log, appOptions{
				publisher: events.Multi{metrics.NewCollector()},
				offline:   f.offline,
			})
			if err != nil {
				return err
			}
			defer a.mgr.Close()

			httpapi.SetLogger(log)
			httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
			httpapi.SetLoadTimeout(loadTimeout)
			if cfg.CORS.Enabled {
				methods := cfg.CORS.AllowedMethods
				if len(methods) == 0 {
					methods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
				}
				headers := cfg.CORS.AllowedHeaders
				if len(headers) == 0 {
					headers = []string{"Content-Type", "X-Request-Id", "X-Log-Level"}
				}
				httpapi.SetCORSOptions(true, cfg.CORS.AllowedOrigins, methods, headers)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			httpapi.SetBaseContext(ctx)
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewMux(a.service()),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Str("device", cfg.Device).Msg("ttsloader listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			cancel()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("graceful shutdown error")
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&addr, "addr", defaultAddr, "HTTP listen address, e.g. :8080 (defaults TTSLOADER_ADDR)")
	fl.IntVar(&maxCached, "max-cached", 0, "Maximum cached models (0 = unlimited)")
	fl.StringVar(&lruPath, "lru-path", "", "Persist LRU metadata to this JSON file")
	fl.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	fl.DurationVar(&loadTimeout, "load-timeout", 0, "Timeout for POST /load (0 = none)")
	return cmd
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"ttsloader/internal/config"
)

// rootFlags are the persistent flags shared by every subcommand. A flag only
// overrides the config file when it was set explicitly.
type rootFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	device      string
	modelsDir   string
	cacheDir    string
	hubEndpoint string
	codec       string
	offline     bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "ttsloader",
		Short:         "Resolve devices and load TTS models through fallback chains",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", os.Getenv("TTSLOADER_CONFIG"), "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&f.logFormat, "log-format", config.DefaultLogFormat, "Log format: console|json")
	pf.StringVar(&f.device, "device", config.DefaultDevice, "Default device: auto|cuda|mps|xpu|cpu")
	pf.StringVar(&f.modelsDir, "models-dir", config.DefaultModelsDir, "Directory laid out as <engine>/<model>[/<Language>]")
	pf.StringVar(&f.cacheDir, "cache-dir", config.DefaultCacheDir, "Download cache for remote weights")
	pf.StringVar(&f.hubEndpoint, "hub-endpoint", "", "Model hub base URL (defaults to huggingface.co)")
	pf.StringVar(&f.codec, "codec", "", "Audio codec for voice clips: wav-float32|wav-pcm16")
	pf.BoolVar(&f.offline, "offline", false, "Disable remote fallbacks")

	root.AddCommand(
		newDeviceCmd(f),
		newEnginesCmd(f),
		newModelsCmd(f),
		newLoadCmd(f),
		newServeCmd(f),
	)
	return root
}

// settings loads the config file, if any, and applies explicit flags on top.
func (f *rootFlags) settings(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) || *dst == "" {
			*dst = v
		}
	}
	set("log-level", &cfg.LogLevel, f.logLevel)
	set("log-format", &cfg.LogFormat, f.logFormat)
	set("device", &cfg.Device, f.device)
	set("models-dir", &cfg.ModelsDir, f.modelsDir)
	set("cache-dir", &cfg.CacheDir, f.cacheDir)
	set("hub-endpoint", &cfg.HubEndpoint, f.hubEndpoint)
	set("codec", &cfg.Codec, f.codec)
	if cfg.HubToken == "" {
		cfg.HubToken = os.Getenv("HF_TOKEN")
	}
	return cfg.WithDefaults(), nil
}

// newApp builds the app for cmd from the resolved settings.
func (f *rootFlags) newApp(cmd *cobra.Command, o appOptions) (*app, error) {
	cfg, err := f.settings(cmd)
	if err != nil {
		return nil, err
	}
	o.offline = o.offline || f.offline
	return newApp(cfg, newLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat), o)
}

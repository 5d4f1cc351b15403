package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"ttsloader/internal/device"
	"ttsloader/internal/events"
	"ttsloader/internal/metrics"
	"ttsloader/internal/modelerr"
	"ttsloader/internal/registry"
	"ttsloader/pkg/types"
)

func newDeviceCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "device", Short: "Resolve or validate device identifiers"}
	cmd.AddCommand(&cobra.Command{
		Use:     "resolve [device]",
		Short:   "Print the concrete device a request resolves to",
		Example: "  ttsloader device resolve\n  ttsloader device resolve cuda",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.newApp(cmd, appOptions{offline: true})
			if err != nil {
				return err
			}
			req := a.cfg.Device
			if len(args) == 1 {
				req = args[0]
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.resolver.Resolve(req))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <device>",
		Short: "Check a device identifier against the known set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !device.Validate(args[0]) {
				return fmt.Errorf("invalid device %q (valid: %s)", args[0], strings.Join(device.Known, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	})
	return cmd
}

func newEnginesCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List engine model-loading capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.newApp(cmd, appOptions{offline: true})
			if err != nil {
				return err
			}
			var data [][]string
			for _, e := range a.mgr.Engines() {
				data = append(data, []string{
					e.ID,
					yesNo(e.SupportsVoiceConversion),
					yesNo(e.MultilingualModelSwitching),
					yesNo(e.CanCorruptOnReload),
					yesNo(e.RequiresSpecialInit),
					langs(e.FallbackLanguages),
				})
			}
			renderTable(cmd.OutOrStdout(), []string{"ENGINE", "VC", "MULTILINGUAL", "RELOAD UNSAFE", "SPECIAL INIT", "FALLBACK"}, data)
			return nil
		},
	}
}

func newModelsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models [engine]",
		Short: "List models found in the models directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.settings(cmd)
			if err != nil {
				return err
			}
			models, err := registry.LoadDir(cfg.ModelsDir)
			if err != nil {
				return err
			}
			var data [][]string
			for _, m := range models {
				if len(args) == 1 && !strings.EqualFold(m.Engine, args[0]) {
					continue
				}
				data = append(data, []string{m.ID, m.Format, langs(m.Languages), m.Path})
			}
			renderTable(cmd.OutOrStdout(), []string{"ID", "FORMAT", "LANGUAGES", "PATH"}, data)
			return nil
		},
	}
}

func newLoadCmd(f *rootFlags) *cobra.Command {
	var (
		req    types.LoadRequest
		params []string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run one load request through the fallback chain and print the attempt log",
		Example: "  ttsloader load --engine chatterbox --model base --language German\n" +
			"  ttsloader load --engine f5tts --model F5TTS_v1_Base --repo SWivid/F5-TTS --param files=model.safetensors",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseParams(params)
			if err != nil {
				return err
			}
			req.Params = p
			mem := events.NewMemory()
			a, err := f.newApp(cmd, appOptions{publisher: events.Multi{metrics.NewCollector(), mem}})
			if err != nil {
				return err
			}
			defer a.mgr.Close()

			res, loadErr := a.mgr.Load(cmd.Context(), req)
			out := cmd.OutOrStdout()
			if asJSON {
				return printLoadJSON(out, res.Key, res.Device, res.Loader, res.Attempted, loadErr)
			}
			renderAttempts(out, mem.Events())
			if loadErr != nil {
				return loadErr
			}
			fmt.Fprintf(out, "\nloaded %s on %s via %q\n", res.Key, res.Device, res.Loader)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&req.Engine, "engine", "", "Engine id (see `ttsloader engines`)")
	fl.StringVar(&req.Model, "model", "", "Model name; a local: prefix is accepted")
	fl.StringVar(&req.ModelType, "model-type", "", "Model type, e.g. tts or vc")
	fl.StringVar(&req.Language, "language", "", "Requested language, e.g. German")
	fl.StringVar(&req.Path, "path", "", "Model directory; defaults to <models-dir>/<engine>/<model>")
	fl.StringVar(&req.RepoID, "repo", "", "Hub repository for the remote fallback")
	fl.StringVar(&req.Device, "load-device", "", "Device for this load; defaults to --device")
	fl.StringArrayVar(&params, "param", nil, "Engine parameter key=value (repeatable; comma lists become arrays)")
	fl.BoolVar(&asJSON, "json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("engine")
	_ = cmd.MarkFlagRequired("model")
	return cmd
}

// parseParams turns key=value pairs into load parameters. Integers and
// booleans are typed; values with commas become string lists.
func parseParams(kvs []string) (map[string]any, error) {
	if len(kvs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --param %q (want key=value)", kv)
		}
		k = strings.TrimSpace(k)
		switch {
		case strings.Contains(v, ","):
			list := make([]any, 0)
			for _, s := range splitCSV(v) {
				list = append(list, s)
			}
			out[k] = list
		default:
			if n, err := strconv.Atoi(v); err == nil {
				out[k] = n
			} else if b, err := strconv.ParseBool(v); err == nil {
				out[k] = b
			} else {
				out[k] = v
			}
		}
	}
	return out, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func renderTable(w io.Writer, header []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func renderAttempts(w io.Writer, evs []events.Event) {
	var data [][]string
	for _, e := range evs {
		loader, _ := e.Fields["loader"].(string)
		switch e.Name {
		case events.AttemptOK:
			data = append(data, []string{loader, "ok", ""})
		case events.AttemptFailed:
			msg, _ := e.Fields["error"].(string)
			data = append(data, []string{loader, "failed", firstLine(msg)})
		case events.AttemptSkipped:
			data = append(data, []string{loader, "skipped", ""})
		case events.RecoveryInvoked:
			data = append(data, []string{"recovery handler", "ok", ""})
		case events.RecoveryFailed:
			msg, _ := e.Fields["error"].(string)
			data = append(data, []string{"recovery handler", "failed", firstLine(msg)})
		}
	}
	renderTable(w, []string{"LOADER", "RESULT", "ERROR"}, data)
}

type loadOutput struct {
	Key       string   `json:"key,omitempty"`
	Device    string   `json:"device,omitempty"`
	Loader    string   `json:"loader,omitempty"`
	Attempted []string `json:"attempted,omitempty"`
	Error     string   `json:"error,omitempty"`
	Kind      string   `json:"kind,omitempty"`
}

func printLoadJSON(w io.Writer, key, dev, loader string, attempted []string, loadErr error) error {
	out := loadOutput{Key: key, Device: dev, Loader: loader, Attempted: attempted}
	if loadErr != nil {
		out.Error = loadErr.Error()
		var me *modelerr.Error
		if errors.As(loadErr, &me) {
			out.Kind = me.Kind.String()
			out.Attempted = me.Attempts
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return loadErr
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func langs(l []string) string {
	if len(l) == 0 {
		return "-"
	}
	return strings.Join(l, ",")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

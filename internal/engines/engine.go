package engines

import (
	"context"

	"ttsloader/internal/loadconfig"
)

// Engine binds Files to one engine id. It satisfies the manager's loader
// factory interfaces.
type Engine struct {
	ID    string
	files *Files
}

// For returns the loader factory for engineID.
func (f *Files) For(engineID string) Engine { return Engine{ID: engineID, files: f} }

func (e Engine) LoadLocal(ctx context.Context, cfg loadconfig.Config) (any, error) {
	w, err := e.files.Local(ctx, e.ID, cfg)
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (e Engine) LoadRemote(ctx context.Context, cfg loadconfig.Config) (any, error) {
	w, err := e.files.Remote(ctx, e.ID, cfg)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Remote reports whether remote loading is configured.
func (e Engine) Remote() bool { return e.files.HasRemote() }

package manager

import (
	"context"
	"time"

	"ttsloader/internal/loadconfig"
)

// Artifact is an opaque loaded model. Artifacts implementing io.Closer are
// closed when evicted or unloaded.
type Artifact = any

// LoaderFactory builds artifacts for one engine from local files.
type LoaderFactory interface {
	LoadLocal(ctx context.Context, cfg loadconfig.Config) (Artifact, error)
}

// RemoteLoader is implemented by factories that can fetch weights remotely.
type RemoteLoader interface {
	LoadRemote(ctx context.Context, cfg loadconfig.Config) (Artifact, error)
}

// remoteToggle lets a RemoteLoader report that remote loading is disabled.
type remoteToggle interface {
	Remote() bool
}

// Result describes a successful Load.
type Result struct {
	Key      string
	Artifact Artifact
	Device   string
	// Loader is the display name of the loader that produced the artifact.
	Loader    string
	Attempted []string
	Cached    bool
}

// entry is one cached artifact.
type entry struct {
	key       string
	engine    string
	model     string
	device    string
	language  string
	loader    string
	attempted []string
	artifact  Artifact
	loadedAt  time.Time
	lastUsed  time.Time
	// seq orders uses for LRU eviction.
	seq  uint64
	hits int
}

// Snapshot is a read-only projection of the manager state.
type Snapshot struct {
	Device    string
	Keys      []string
	LastError string
}

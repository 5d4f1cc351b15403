package manager

import (
	"github.com/rs/zerolog"

	"ttsloader/internal/capability"
	"ttsloader/internal/device"
	"ttsloader/internal/events"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultDevice = device.Auto
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	// Resolver expands device requests. Defaults to system probes.
	Resolver *device.Resolver
	// Registry supplies engine capabilities. Defaults to capability.Default().
	Registry *capability.Registry
	// DefaultDevice is used when a request names no device.
	DefaultDevice string
	// MaxCached bounds cached artifacts; 0 means unlimited.
	MaxCached int
	// LRUPath persists LRU metadata as JSON when set.
	LRUPath   string
	Logger    *zerolog.Logger
	Publisher events.Publisher
}

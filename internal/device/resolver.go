// Package device maps logical device requests to concrete accelerators.
//
// The "auto" alias is expanded by probing accelerators in a fixed priority
// order (MPS, CUDA, XPU, then CPU). The first answer is kept in an owned Cache
// so that every model loaded during a session sees the same device and
// cache keys derived from it stay stable.
package device

import (
	"strings"

	"github.com/rs/zerolog"
)

// Identifiers accepted by Resolve and Validate.
const (
	Auto = "auto"
	CUDA = "cuda"
	MPS  = "mps"
	XPU  = "xpu"
	CPU  = "cpu"
)

// Known lists every valid device identifier, auto first.
var Known = []string{Auto, CUDA, MPS, XPU, CPU}

// Resolver expands "auto" and passes every other request through.
// It holds no lock; callers running concurrently must serialize access.
type Resolver struct {
	probes Probes
	cache  *Cache
	log    zerolog.Logger
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithCache makes the resolver share an existing cache.
func WithCache(c *Cache) Option { return func(r *Resolver) { r.cache = c } }

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option { return func(r *Resolver) { r.log = l } }

// NewResolver builds a resolver over the given probes. A private cache is
// created unless WithCache is supplied.
func NewResolver(p Probes, opts ...Option) *Resolver {
	r := &Resolver{probes: p, log: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	if r.cache == nil {
		r.cache = NewCache()
	}
	return r
}

// Resolve returns the concrete device for a request. Only the exact string
// "auto" is expanded; anything else is returned unchanged.
func (r *Resolver) Resolve(device string) string {
	if device != Auto {
		return device
	}
	if d, ok := r.cache.Get(); ok {
		return d
	}
	d := r.probe()
	r.cache.Set(d)
	r.log.Debug().Str("device", d).Msg("resolved auto device")
	return d
}

// probe walks the priority order and stops at the first available backend.
func (r *Resolver) probe() string {
	switch {
	case available(r.probes.MPS):
		return MPS
	case available(r.probes.CUDA):
		return CUDA
	case available(r.probes.XPU):
		return XPU
	default:
		return CPU
	}
}

// Reset drops the cached auto resolution; the next auto request re-probes.
func (r *Resolver) Reset() { r.cache.Reset() }

// Cached returns the current auto resolution, if any.
func (r *Resolver) Cached() (string, bool) { return r.cache.Get() }

// Validate reports whether device names a known identifier, ignoring case.
func Validate(device string) bool {
	d := strings.ToLower(device)
	for _, k := range Known {
		if d == k {
			return true
		}
	}
	return false
}

// Package fallback runs ordered model-loading fallback chains.
//
// A Handler tries its primary loader, then each fallback in the order added,
// until one returns an artifact. Fallbacks may carry a predicate that sees the
// failure of the immediately preceding attempt and decides whether the
// fallback runs at all. Execution is strictly sequential: a later loader never
// starts before the earlier one has failed or been skipped.
package fallback

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ttsloader/internal/events"
	"ttsloader/internal/modelerr"
)

// Loader produces an artifact or an error. A nil artifact returned without an
// error counts as a failure.
type Loader[T any] func() (T, error)

// Predicate decides whether a fallback runs, given the previous failure.
type Predicate func(prev error) bool

// ErrNilArtifact is recorded when a loader returns a nil artifact and no error.
var ErrNilArtifact = modelerr.New("loader returned no artifact")

type entry[T any] struct {
	load Loader[T]
	pred Predicate
	name string
}

type settings struct {
	log zerolog.Logger
	pub events.Publisher
}

// Option configures a Handler.
type Option func(*settings)

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option { return func(s *settings) { s.log = l } }

// WithPublisher sends attempt events to p.
func WithPublisher(p events.Publisher) Option { return func(s *settings) { s.pub = p } }

// Handler is a fallback chain around one primary loader. It is append-only
// while being built and must not be modified during Load. A Handler is not
// safe for concurrent use.
type Handler[T any] struct {
	name    string
	primary Loader[T]
	chain   []entry[T]
	settings

	attempted []string
	lastErr   error
	winner    string
}

// New returns a handler whose primary loader is displayed as "<name> (primary)".
func New[T any](primary Loader[T], name string, opts ...Option) *Handler[T] {
	if name == "" {
		name = "Model"
	}
	h := &Handler[T]{name: name, primary: primary}
	h.log = zerolog.Nop()
	h.pub = events.Nop{}
	for _, o := range opts {
		o(&h.settings)
	}
	return h
}

// AddFallback appends a loader. A nil predicate means always attempt. An empty
// name becomes "<name> (fallback N)".
func (h *Handler[T]) AddFallback(load Loader[T], pred Predicate, name string) *Handler[T] {
	if name == "" {
		name = fmt.Sprintf("%s (fallback %d)", h.name, len(h.chain)+1)
	}
	h.chain = append(h.chain, entry[T]{load: load, pred: pred, name: name})
	return h
}

// Name returns the display name.
func (h *Handler[T]) Name() string { return h.name }

// Len returns the number of fallbacks, excluding the primary.
func (h *Handler[T]) Len() int { return len(h.chain) }

// FallbackNames returns the fallback display names in chain order.
func (h *Handler[T]) FallbackNames() []string {
	out := make([]string, len(h.chain))
	for i, e := range h.chain {
		out[i] = e.name
	}
	return out
}

// Attempted returns the names of loaders that ran and failed during the last
// Load, in order. Skipped fallbacks are not listed.
func (h *Handler[T]) Attempted() []string { return append([]string(nil), h.attempted...) }

// LastError returns the most recent loader failure of the last Load.
func (h *Handler[T]) LastError() error { return h.lastErr }

// Winner returns the name of the loader that succeeded in the last Load.
func (h *Handler[T]) Winner() string { return h.winner }

// Load executes the chain. On total failure it returns a base-kind
// modelerr.Error listing every attempted loader and wrapping the last failure.
func (h *Handler[T]) Load() (T, error) {
	h.attempted = nil
	h.lastErr = nil
	h.winner = ""

	if v, ok := h.attempt(h.name+" (primary)", h.primary); ok {
		return v, nil
	}
	for _, e := range h.chain {
		if e.pred != nil && !h.allowed(e) {
			h.log.Debug().Str("loader", e.name).Msg("skipping fallback, condition not met")
			h.pub.Publish(events.Event{Name: events.AttemptSkipped, Model: h.name, Fields: map[string]any{"loader": e.name}})
			continue
		}
		if v, ok := h.attempt(e.name, e.load); ok {
			return v, nil
		}
	}

	var zero T
	err := modelerr.Exhausted(h.exhaustedMsg(), h.attempted, h.lastErr)
	h.log.Error().Err(h.lastErr).Strs("attempted", h.attempted).Str("model", h.name).Msg("all loaders failed")
	h.pub.Publish(events.Event{Name: events.ChainExhausted, Model: h.name, Fields: map[string]any{"attempts": len(h.attempted)}})
	return zero, err
}

func (h *Handler[T]) exhaustedMsg() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "failed to load %s after trying %d sources:", h.name, len(h.attempted))
	for _, n := range h.attempted {
		sb.WriteString("\n  - ")
		sb.WriteString(n)
	}
	sb.WriteString("\nlast error")
	return sb.String()
}

func (h *Handler[T]) attempt(name string, load Loader[T]) (T, bool) {
	h.log.Info().Str("loader", name).Msg("attempting load")
	h.pub.Publish(events.Event{Name: events.AttemptStart, Model: h.name, Fields: map[string]any{"loader": name}})
	start := time.Now()

	v, err := call(load)
	if err == nil && isNil(v) {
		err = ErrNilArtifact
	}
	dur := time.Since(start)
	if err != nil {
		h.lastErr = err
		h.attempted = append(h.attempted, name)
		h.log.Warn().Err(err).Str("loader", name).Dur("dur", dur).Msg("load failed")
		h.pub.Publish(events.Event{Name: events.AttemptFailed, Model: h.name, Fields: map[string]any{
			"loader": name, "error": err.Error(), "dur_ms": dur.Milliseconds(),
		}})
		var zero T
		return zero, false
	}
	h.winner = name
	h.log.Info().Str("loader", name).Dur("dur", dur).Msg("loaded")
	h.pub.Publish(events.Event{Name: events.AttemptOK, Model: h.name, Fields: map[string]any{
		"loader": name, "dur_ms": dur.Milliseconds(),
	}})
	return v, true
}

// allowed evaluates a predicate against the most recent failure. A panicking
// predicate lets the fallback run.
func (h *Handler[T]) allowed(e entry[T]) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn().Str("loader", e.name).Interface("panic", r).Msg("fallback condition panicked, attempting anyway")
			ok = true
		}
	}()
	return e.pred(h.lastErr)
}

// call runs a loader and turns a panic into a base-kind error.
func call[T any](load Loader[T]) (v T, err error) {
	if load == nil {
		return v, modelerr.New("nil loader")
	}
	defer func() {
		if r := recover(); r != nil {
			err = modelerr.New(fmt.Sprintf("loader panicked: %v", r))
		}
	}()
	return load()
}

// isNil reports whether v is a nil interface, pointer, map, slice, func or
// channel. Zero values of other kinds are valid artifacts.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

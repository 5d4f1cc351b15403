// Package events carries model-loading lifecycle notifications from the
// fallback handler and the manager to observers (logs, metrics, tests).
package events

import "sync"

// Names published by the fallback handler.
const (
	AttemptStart   = "attempt_start"
	AttemptOK      = "attempt_ok"
	AttemptFailed  = "attempt_failed"
	AttemptSkipped = "attempt_skipped"
	ChainExhausted = "chain_exhausted"
)

// Names published by the manager.
const (
	LoadStart       = "load_start"
	CacheHit        = "cache_hit"
	LoadReady       = "load_ready"
	LoadFailed      = "load_failed"
	Evict           = "evict"
	Unload          = "unload"
	RecoveryInvoked = "recovery_invoked"
	RecoveryFailed  = "recovery_failed"
)

// Event is a lifecycle notification: a name, the model (or chain display
// name) it concerns, and optional fields.
type Event struct {
	Name   string
	Model  string
	Fields map[string]any
}

// Publisher receives events. Implementations must be cheap and must not panic.
type Publisher interface {
	Publish(Event)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(Event) {}

// Multi fans an event out to several publishers in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}

// Memory stores events in-memory for tests and diagnostics.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory { return &Memory{} }

func (p *Memory) Publish(e Event) {
	p.mu.Lock()
	p.events = append(p.events, e)
	p.mu.Unlock()
}

func (p *Memory) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Names returns the event names in publish order.
func (p *Memory) Names() []string {
	evs := p.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}

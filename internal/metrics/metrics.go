// Package metrics exposes model-loading activity as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"ttsloader/internal/events"
)

const namespace = "ttsloader"

var (
	attemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fallback",
			Name:      "attempts_total",
			Help:      "Loader attempts by outcome (ok, failed, skipped)",
		},
		[]string{"outcome"},
	)

	exhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fallback",
			Name:      "exhausted_total",
			Help:      "Fallback chains that ran out of loaders",
		},
	)

	attemptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fallback",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of individual loader attempts",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "cache_events_total",
			Help:      "Artifact cache activity (hit, load, evict, unload)",
		},
		[]string{"event"},
	)

	recoveryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "recovery_total",
			Help:      "Recovery handler invocations by result",
		},
		[]string{"result"},
	)

	loadFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "load_failures_total",
			Help:      "Failed load requests by engine",
		},
		[]string{"engine"},
	)
)

func init() {
	prometheus.MustRegister(attemptsTotal, exhaustedTotal, attemptDuration, cacheTotal, recoveryTotal, loadFailuresTotal)
}

// Collector is an events.Publisher that turns lifecycle events into metrics.
type Collector struct{}

// NewCollector returns a publisher backed by the default registry.
func NewCollector() Collector { return Collector{} }

func (Collector) Publish(e events.Event) {
	switch e.Name {
	case events.AttemptOK:
		observeAttempt("ok", e)
	case events.AttemptFailed:
		observeAttempt("failed", e)
	case events.AttemptSkipped:
		attemptsTotal.WithLabelValues("skipped").Inc()
	case events.ChainExhausted:
		exhaustedTotal.Inc()
	case events.CacheHit:
		cacheTotal.WithLabelValues("hit").Inc()
	case events.LoadReady:
		cacheTotal.WithLabelValues("load").Inc()
	case events.Evict:
		cacheTotal.WithLabelValues("evict").Inc()
	case events.Unload:
		cacheTotal.WithLabelValues("unload").Inc()
	case events.RecoveryInvoked:
		recoveryTotal.WithLabelValues("ok").Inc()
	case events.RecoveryFailed:
		recoveryTotal.WithLabelValues("error").Inc()
	case events.LoadFailed:
		engine, _ := e.Fields["engine"].(string)
		if engine == "" {
			engine = "unspecified"
		}
		loadFailuresTotal.WithLabelValues(engine).Inc()
	}
}

func observeAttempt(outcome string, e events.Event) {
	attemptsTotal.WithLabelValues(outcome).Inc()
	if ms, ok := e.Fields["dur_ms"].(int64); ok {
		attemptDuration.WithLabelValues(outcome).Observe(float64(ms) / 1000)
	}
}

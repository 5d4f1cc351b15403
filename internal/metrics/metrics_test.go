package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"ttsloader/internal/events"
)

func TestCollectorCountsAttempts(t *testing.T) {
	c := NewCollector()
	okBefore := testutil.ToFloat64(attemptsTotal.WithLabelValues("ok"))
	skipBefore := testutil.ToFloat64(attemptsTotal.WithLabelValues("skipped"))
	exBefore := testutil.ToFloat64(exhaustedTotal)

	c.Publish(events.Event{Name: events.AttemptOK, Fields: map[string]any{"dur_ms": int64(12)}})
	c.Publish(events.Event{Name: events.AttemptSkipped})
	c.Publish(events.Event{Name: events.ChainExhausted})
	c.Publish(events.Event{Name: "unrelated"})

	if got := testutil.ToFloat64(attemptsTotal.WithLabelValues("ok")) - okBefore; got != 1 {
		t.Fatalf("ok delta=%v", got)
	}
	if got := testutil.ToFloat64(attemptsTotal.WithLabelValues("skipped")) - skipBefore; got != 1 {
		t.Fatalf("skipped delta=%v", got)
	}
	if got := testutil.ToFloat64(exhaustedTotal) - exBefore; got != 1 {
		t.Fatalf("exhausted delta=%v", got)
	}
}

func TestCollectorLoadFailuresByEngine(t *testing.T) {
	c := NewCollector()
	before := testutil.ToFloat64(loadFailuresTotal.WithLabelValues("unspecified"))
	c.Publish(events.Event{Name: events.LoadFailed, Fields: map[string]any{}})
	if got := testutil.ToFloat64(loadFailuresTotal.WithLabelValues("unspecified")) - before; got != 1 {
		t.Fatalf("delta=%v", got)
	}
}

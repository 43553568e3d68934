package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ActiveChannels.Inc()
	m.Reconnects.Inc()
	m.Events.WithLabelValues("agent").Inc()
	m.GuardDenials.WithLabelValues("tenant").Inc()

	if got := testutil.ToFloat64(m.ActiveChannels); got != 1 {
		t.Fatalf("expected 1 active channel, got %v", got)
	}
	if got := testutil.ToFloat64(m.Events.WithLabelValues("agent")); got != 1 {
		t.Fatalf("expected 1 agent event, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 4 {
		t.Fatalf("expected 4 metric families, got %d", len(families))
	}
}

func TestNopDoesNotRegister(t *testing.T) {
	// Two Nop sets must not collide, since neither registers anywhere.
	a := Nop()
	b := Nop()
	a.Reconnects.Inc()
	b.Reconnects.Inc()
}

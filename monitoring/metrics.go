// Package monitoring exposes Prometheus metrics for the console core.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors the core reports into. One instance is
// shared by the connection manager, projection and guard adapters.
type Metrics struct {
	ActiveChannels prometheus.Gauge
	Reconnects     prometheus.Counter
	Events         *prometheus.CounterVec
	GuardDenials   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on the given
// registerer. Pass prometheus.DefaultRegisterer in production.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "watchtower_active_channels",
			Help: "Number of live push channels (0 or 1 per session)",
		}),
		Reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "watchtower_reconnects_total",
			Help: "Total number of push channel reconnect attempts",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "watchtower_events_total",
			Help: "Total number of normalized status events received",
		}, []string{"kind"}),
		GuardDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_denials_total",
			Help: "Total number of guard evaluations that redirected",
		}, []string{"guard"}),
	}
	if reg != nil {
		reg.MustRegister(m.ActiveChannels, m.Reconnects, m.Events, m.GuardDenials)
	}
	return m
}

// Nop returns unregistered collectors, for tests and for consumers that do
// not scrape.
func Nop() *Metrics {
	return NewMetrics(nil)
}

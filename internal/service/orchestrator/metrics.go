package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the orchestrator's Prometheus collectors
type Metrics struct {
	Transitions     *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	ActiveJobs      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ytshorts",
			Subsystem: "jobs",
			Name:      "transitions_total",
			Help:      "Applied processing job status transitions.",
		}, []string{"from", "to"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ytshorts",
			Subsystem: "provider",
			Name:      "call_duration_seconds",
			Help:      "Latency of analysis and render provider calls.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"call", "outcome"}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ytshorts",
			Subsystem: "jobs",
			Name:      "active",
			Help:      "Non-terminal processing jobs driven by this process.",
		}),
	}
}

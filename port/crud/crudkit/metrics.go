package crudkit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects per operation outcome counters and durations of repository pipelines.
type Metrics struct {
	Pipelines *prometheus.CounterVec
	Duration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them in the registerer.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		Pipelines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repository",
			Name:      "pipelines_total",
			Help:      "Total number of finished repository pipelines by operation and outcome",
		}, []string{"entity", "operation", "outcome"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "repository",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of repository pipelines from subscription to termination",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"entity", "operation"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Pipelines, m.Duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(entity, operation, outcome string, d time.Duration) {
	m.Pipelines.WithLabelValues(entity, operation, outcome).Inc()
	m.Duration.WithLabelValues(entity, operation).Observe(d.Seconds())
}

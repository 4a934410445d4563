package executor

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the executor's Prometheus collectors.
type Metrics struct {
	Steps        *prometheus.CounterVec
	StepDuration *prometheus.HistogramVec
	Applies      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schema_engine",
			Name:      "migration_steps_total",
			Help:      "Total number of migration steps executed",
		}, []string{"connector", "kind", "status"}),
		StepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "schema_engine",
			Name:      "migration_step_duration_seconds",
			Help:      "Duration of migration steps in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"connector", "kind"}),
		Applies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "schema_engine",
			Name:      "migration_applies_total",
			Help:      "Total number of plans applied",
		}, []string{"connector", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.Steps, m.StepDuration, m.Applies)
	}
	return m
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ProbeMetrics records smoke probe outcomes.
type ProbeMetrics struct {
	Total    *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewProbeMetrics(reg prometheus.Registerer) *ProbeMetrics {
	m := &ProbeMetrics{
		Total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "total",
			Help:      "Total number of smoke probes, by probe and result.",
		}, []string{"probe", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "probe",
			Name:      "duration_seconds",
			Help:      "Duration of smoke probes in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"probe"}),
	}

	reg.MustRegister(m.Total, m.Duration)
	return m
}

// Observe records a single probe result.
func (m *ProbeMetrics) Observe(probe string, passed bool, d time.Duration) {
	result := "pass"
	if !passed {
		result = "fail"
	}
	m.Total.WithLabelValues(probe, result).Inc()
	m.Duration.WithLabelValues(probe).Observe(d.Seconds())
}

// ConfigMetrics reports the state of the environment snapshot.
type ConfigMetrics struct {
	MissingKeys prometheus.Gauge
}

func NewConfigMetrics(reg prometheus.Registerer) *ConfigMetrics {
	m := &ConfigMetrics{
		MissingKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "config",
			Name:      "missing_keys",
			Help:      "Number of required environment variables that were not set.",
		}),
	}

	reg.MustRegister(m.MissingKeys)
	return m
}

package valuation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Valuation paths recorded in Metrics.
const (
	pathExternal  = "external"
	pathFallback  = "fallback"
	pathRuleBased = "rule_based"
	pathCancelled = "cancelled"
)

// Metrics counts valuations by the path that produced them. A nil *Metrics
// records nothing.
type Metrics struct {
	total    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates and registers the valuation metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ort_valuations_total",
			Help: "Property valuations by the path that produced the result.",
		}, []string{"path"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ort_valuation_external_duration_seconds",
			Help:    "Latency of calls to the external valuation service.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
	}
	reg.MustRegister(m.total, m.duration)
	return m
}

func (m *Metrics) inc(path string) {
	if m == nil {
		return
	}
	m.total.WithLabelValues(path).Inc()
}

func (m *Metrics) observe(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}

package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for snapshot fetches.
type Metrics struct {
	FetchesTotal  *prometheus.CounterVec
	FetchDuration prometheus.Histogram
	ErrorsTotal   *prometheus.CounterVec
}

// NewMetrics constructs the fetch metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	fetches := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightscrape_replay_fetches_total",
			Help: "Snapshot fetches issued by the replayer by outcome.",
		},
		[]string{"outcome"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flightscrape_replay_fetch_duration_seconds",
			Help:    "Latency of snapshot fetches.",
			Buckets: prometheus.DefBuckets,
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightscrape_replay_errors_total",
			Help: "Snapshot fetch errors by type.",
		},
		[]string{"error_type"},
	)

	reg.MustRegister(fetches, fetchDuration, errorsTotal)

	return &Metrics{
		FetchesTotal:  fetches,
		FetchDuration: fetchDuration,
		ErrorsTotal:   errorsTotal,
	}
}

// IncFetch increments the fetch counter for an outcome.
func (m *Metrics) IncFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records a fetch duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

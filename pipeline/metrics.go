package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for scrape runs.
type Metrics struct {
	Registry          *prometheus.Registry
	RunsTotal         *prometheus.CounterVec
	StateDuration     *prometheus.HistogramVec
	CardsTotal        *prometheus.CounterVec
	FillFailuresTotal prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightscrape_runs_total",
			Help: "Scrape runs by final outcome.",
		},
		[]string{"outcome"},
	)
	stateDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flightscrape_state_duration_seconds",
			Help:    "Time spent reaching each pipeline state.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"state"},
	)
	cards := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightscrape_cards_total",
			Help: "Flight cards seen on results pages by result.",
		},
		[]string{"result"},
	)
	fillFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "flightscrape_fill_failures_total",
			Help: "Search form fields that could not be filled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flightscrape_errors_total",
			Help: "Total number of scrape errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(runs, stateDuration, cards, fillFailures, errorsTotal)

	return &Metrics{
		Registry:          registry,
		RunsTotal:         runs,
		StateDuration:     stateDuration,
		CardsTotal:        cards,
		FillFailuresTotal: fillFailures,
		ErrorsTotal:       errorsTotal,
	}
}

func (m *Metrics) incRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeState(s State, d time.Duration) {
	if m == nil {
		return
	}
	m.StateDuration.WithLabelValues(s.String()).Observe(d.Seconds())
}

func (m *Metrics) incCard(result string) {
	if m == nil {
		return
	}
	m.CardsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) incFillFailure() {
	if m == nil {
		return
	}
	m.FillFailuresTotal.Inc()
}

func (m *Metrics) incError(err error) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorTypeLabel(err)).Inc()
}

package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_fetch_attempts_total",
			Help: "Backend candidate attempts by host and outcome",
		},
		[]string{"host", "outcome"},
	)

	fetchExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_fetch_exhausted_total",
			Help: "Requests for which every candidate failed",
		},
	)

	fetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_fetch_duration_seconds",
			Help:    "Duration of single candidate attempts",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"host"},
	)

	flowOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_flow_outcomes_total",
			Help: "Flow controller invocations by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	catalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_catalog_events",
			Help: "Events held by the catalog after the last load",
		},
	)

	catalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_loads_total",
			Help: "Catalog loads by outcome (ok, empty, failed)",
		},
		[]string{"outcome"},
	)
)

// Outcome labels shared by the trackers.
const (
	OutcomeOK         = "ok"
	OutcomeFailed     = "failed"
	OutcomeRejected   = "rejected"
	OutcomeBreakerOff = "breaker_open"
	OutcomeEmpty      = "empty"
)

type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// TrackFetchAttempt records one candidate attempt
func (m *Monitor) TrackFetchAttempt(host, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	fetchAttempts.WithLabelValues(host, outcome).Inc()
	if duration > 0 {
		fetchDuration.WithLabelValues(host).Observe(duration.Seconds())
	}
}

func (m *Monitor) TrackExhausted() {
	if m == nil {
		return
	}
	fetchExhausted.Inc()
}

// TrackFlow records a flow controller outcome
func (m *Monitor) TrackFlow(flow, outcome string) {
	if m == nil {
		return
	}
	flowOutcomes.WithLabelValues(flow, outcome).Inc()
}

func (m *Monitor) TrackCatalogLoad(outcome string, size int) {
	if m == nil {
		return
	}
	catalogLoads.WithLabelValues(outcome).Inc()
	catalogSize.Set(float64(size))
}

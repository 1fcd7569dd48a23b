// Package metrics exposes Prometheus collectors for backend fetches and
// reconciliation outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeStale   = "stale"
)

var (
	// FetchesTotal counts backend fetches by page and outcome.
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_fetches_total",
			Help: "Backend dashboard fetches by page and outcome",
		},
		[]string{"page", "outcome"},
	)

	// FetchDuration tracks backend fetch latency.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dashboard_fetch_duration_seconds",
			Help:    "Duration of backend dashboard fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"page"},
	)

	// FailuresTotal counts failed fetches by error class.
	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_fetch_failures_total",
			Help: "Failed backend fetches by page and error class",
		},
		[]string{"page", "class"},
	)

	// OriginGauge is 1 when the page shows live data, 0 for fallback data.
	OriginGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dashboard_live_data",
			Help: "Whether the page currently shows live backend data",
		},
		[]string{"page"},
	)

	// PublishedTotal counts snapshots sent to the configured sink.
	PublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_snapshots_published_total",
			Help: "Snapshots published by sink and result",
		},
		[]string{"sink", "result"},
	)
)

// RecordFetch records one completed fetch.
func RecordFetch(page, outcome string, d time.Duration) {
	FetchesTotal.WithLabelValues(page, outcome).Inc()
	FetchDuration.WithLabelValues(page).Observe(d.Seconds())
}

// RecordFailure records the error class of a failed fetch.
func RecordFailure(page, class string) {
	FailuresTotal.WithLabelValues(page, class).Inc()
}

// RecordStale records a result discarded because a newer request superseded it.
func RecordStale(page string) {
	FetchesTotal.WithLabelValues(page, OutcomeStale).Inc()
}

// RecordOrigin records whether page shows live data.
func RecordOrigin(page string, live bool) {
	v := 0.0
	if live {
		v = 1
	}
	OriginGauge.WithLabelValues(page).Set(v)
}

// RecordPublish records one snapshot publication.
func RecordPublish(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	PublishedTotal.WithLabelValues(sink, result).Inc()
}

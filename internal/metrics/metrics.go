// Package metrics exposes the Prometheus instrumentation for the scan,
// analyse, match, and link pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesDiscoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialinkd_files_discovered_total",
			Help: "Total media files observed by the filesystem scanner.",
		},
	)

	FilesRegisteredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialinkd_files_registered_total",
			Help: "Total scanner registration outcomes, by whether the file was new or a duplicate of a known device/inode pair.",
		},
		[]string{"outcome"}, // new, duplicate
	)

	ClaimOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialinkd_claim_outcomes_total",
			Help: "Total worker claim attempts, by whether the guarded UPDATE won or found the row already claimed.",
		},
		[]string{"outcome"}, // won, stale
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialinkd_status_transitions_total",
			Help: "Total status transitions, by origin and destination status.",
		},
		[]string{"from", "to"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "medialinkd_stage_duration_seconds",
			Help:    "Wall-clock duration of a single pipeline stage for one media file.",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"}, // analyse, search, link
	)

	LinkOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialinkd_link_outcomes_total",
			Help: "Total hard-link attempts, by outcome.",
		},
		[]string{"outcome"}, // success, conflict, cross_device, no_source, unknown
	)

	AnalyserCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialinkd_analyser_calls_total",
			Help: "Total calls to the filename analyser, by outcome.",
		},
		[]string{"outcome"}, // success, transient_error, permanent_error, cache_hit
	)

	AnalyserRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialinkd_analyser_retries_total",
			Help: "Total retry attempts made against the filename analyser.",
		},
	)

	CatalogueCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medialinkd_catalogue_calls_total",
			Help: "Total calls to the catalogue search API, by outcome.",
		},
		[]string{"outcome"}, // success, no_match, transient_error, permanent_error
	)

	CatalogueRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialinkd_catalogue_retries_total",
			Help: "Total retry attempts made against the catalogue search API.",
		},
	)

	CatalogueInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "medialinkd_catalogue_in_flight",
			Help: "Current number of in-flight catalogue search calls, bounded by the configured concurrency semaphore.",
		},
	)

	WorkerPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medialinkd_worker_panics_total",
			Help: "Total panics recovered from inside a worker's per-id processing step.",
		},
	)
)

// ObserveStage records the duration of a named pipeline stage.
func ObserveStage(stage string, start time.Time) {
	StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// RecordTransition increments the transition counter for a (from, to) pair.
func RecordTransition(from, to string) {
	TransitionsTotal.WithLabelValues(from, to).Inc()
}

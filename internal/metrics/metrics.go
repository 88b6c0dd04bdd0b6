// Package metrics exposes Prometheus collectors for the scraping pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plants_fetch_attempts_total",
			Help: "Total number of fetch attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	fetchFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plants_fetch_failures_total",
			Help: "Total number of fetches that exhausted their retry budget.",
		},
	)

	recordsExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plants_records_extracted_total",
			Help: "Total number of plant records extracted, labeled by source.",
		},
		[]string{"source"},
	)

	duplicatesMergedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plants_duplicates_merged_total",
			Help: "Total number of records merged into an existing entry during deduplication.",
		},
	)

	placeholdersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plants_placeholders_created_total",
			Help: "Total number of placeholder records created by reconciliation.",
		},
	)
)

// Outcome labels for ObserveFetchAttempt.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// ObserveFetchAttempt increments the attempt counter for the given outcome.
func ObserveFetchAttempt(outcome string) {
	fetchAttemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetchExhausted increments the terminal failure counter.
func ObserveFetchExhausted() {
	fetchFailuresTotal.Inc()
}

// ObserveRecordsExtracted adds to the per-source record counter.
func ObserveRecordsExtracted(source string, count int) {
	if count > 0 {
		recordsExtractedTotal.WithLabelValues(source).Add(float64(count))
	}
}

// ObserveDuplicateMerged increments the merge counter.
func ObserveDuplicateMerged() {
	duplicatesMergedTotal.Inc()
}

// ObservePlaceholderCreated increments the reconciliation placeholder counter.
func ObservePlaceholderCreated() {
	placeholdersCreatedTotal.Inc()
}

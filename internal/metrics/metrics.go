package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Commit results
const (
	ResultOK          = "ok"
	ResultPersistFail = "persist_failed"
	ResultRejected    = "rejected"
)

var (
	// Edit commits by category and result
	CommitCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_board_commits_total",
			Help: "Total number of submitted edits",
		},
		[]string{"category", "result"},
	)

	// Selections that did not resolve to a row
	SelectionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_board_selection_failures_total",
			Help: "Selections rejected because the key could not be resolved",
		},
		[]string{"reason"}, // reason: malformed_key, unknown_category, not_found
	)

	// Sheet write-back latency (seconds)
	WriteBackDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "milestone_board_writeback_duration_seconds",
			Help:    "Duration of rewriting one category sheet",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"category", "status"},
	)

	// Sheet rows left out of a load
	SkippedRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_board_skipped_rows_total",
			Help: "Sheet rows ignored on load because their key is unusable",
		},
		[]string{"category", "reason"}, // reason: invalid_key, duplicate_key
	)

	// Workbook reloads by trigger
	ReloadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "milestone_board_reloads_total",
			Help: "Total number of workbook reloads",
		},
		[]string{"trigger", "status"}, // trigger: startup, manual, watch
	)

	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "milestone_board_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordCommit counts one submitted edit
func RecordCommit(category, result string) {
	CommitCount.WithLabelValues(category, result).Inc()
}

// RecordSelectionFailure counts one unresolved selection
func RecordSelectionFailure(reason string) {
	SelectionFailures.WithLabelValues(reason).Inc()
}

// RecordWriteBack observes one sheet write-back
func RecordWriteBack(category string, duration time.Duration, err error) {
	WriteBackDuration.WithLabelValues(category, status(err)).Observe(duration.Seconds())
}

// RecordSkippedRow counts one sheet row left out of a load
func RecordSkippedRow(category, reason string) {
	SkippedRows.WithLabelValues(category, reason).Inc()
}

// RecordReload counts one workbook reload
func RecordReload(trigger string, err error) {
	ReloadCount.WithLabelValues(trigger, status(err)).Inc()
}

// RecordHTTPRequest observes one HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

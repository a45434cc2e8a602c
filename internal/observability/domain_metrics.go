package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlmend_sessions_total",
			Help: "Total number of completed correction sessions by terminal outcome.",
		},
		[]string{"outcome"},
	)
	sessionAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlmend_session_attempts",
			Help:    "Number of generate-execute attempts consumed per session.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)
	sessionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlmend_session_duration_seconds",
			Help:    "Wall-clock duration of a full correction session.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
	generationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlmend_generation_requests_total",
			Help: "Total number of text-generation backend calls.",
		},
		[]string{"provider", "kind", "status"},
	)
	generationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlmend_generation_duration_seconds",
			Help:    "Latency of text-generation backend calls.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"provider"},
	)
	queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlmend_query_executions_total",
			Help: "Total number of SQL executions against the warehouse.",
		},
		[]string{"engine", "status"},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlmend_query_duration_seconds",
			Help:    "Latency of SQL executions against the warehouse.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlmend_query_rows_returned",
			Help:    "Row counts of successful SQL executions.",
			Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000},
		},
	)
	historyEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sqlmend_history_entries",
			Help: "Current number of retained query history entries.",
		},
	)
	archiveUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlmend_archive_uploads_total",
			Help: "Total number of session transcript uploads.",
		},
		[]string{"status"},
	)
	archiveSweepDeletesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlmend_archive_sweep_deletes_total",
			Help: "Total number of transcript objects deleted by retention sweeps.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		sessionsTotal,
		sessionAttempts,
		sessionDurationSeconds,
		generationRequestsTotal,
		generationDurationSeconds,
		queryExecutionsTotal,
		queryDurationSeconds,
		queryRowsReturned,
		historyEntries,
		archiveUploadsTotal,
		archiveSweepDeletesTotal,
	)
}

func ObserveSession(outcome string, attempts int, elapsed time.Duration) {
	sessionsTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		sessionAttempts.Observe(float64(attempts))
	}
	sessionDurationSeconds.Observe(elapsed.Seconds())
}

func ObserveGeneration(provider, kind, status string, elapsed time.Duration) {
	generationRequestsTotal.WithLabelValues(provider, kind, status).Inc()
	generationDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func ObserveQueryExecution(engine, status string, rows int, elapsed time.Duration) {
	queryExecutionsTotal.WithLabelValues(engine, status).Inc()
	queryDurationSeconds.WithLabelValues(engine).Observe(elapsed.Seconds())
	if status == "ok" {
		queryRowsReturned.Observe(float64(rows))
	}
}

func SetHistoryEntries(count int) {
	if count < 0 {
		count = 0
	}
	historyEntries.Set(float64(count))
}

func ObserveArchiveUpload(status string) {
	archiveUploadsTotal.WithLabelValues(status).Inc()
}

func AddArchiveSweepDeletes(count int) {
	if count > 0 {
		archiveSweepDeletesTotal.Add(float64(count))
	}
}

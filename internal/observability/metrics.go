package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlmend_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// Session endpoints block on generation backends, so the upper buckets
	// stretch well past the usual request-latency range.
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlmend_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDurationSeconds)
}

// pathLabel caps label cardinality: the route table is fixed, so anything
// that 404s (scanners, typos) collapses into a single bucket.
func pathLabel(status int, path string) string {
	if status == http.StatusNotFound {
		return "unmatched"
	}
	return path
}

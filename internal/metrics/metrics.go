// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackmate_http_requests_total",
			Help: "Total HTTP requests, labeled by route and status code.",
		},
		[]string{"route", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trackmate_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"route"},
	)

	VisitCodesIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackmate_visit_codes_issued_total",
			Help: "Visit codes issued, labeled by series.",
		},
		[]string{"series"},
	)

	MalformedCodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trackmate_malformed_codes_total",
			Help: "Stored last codes that failed to parse and were replaced by the seed.",
		},
		[]string{"series"},
	)

	DashboardFilteredVisits = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trackmate_dashboard_filtered_visits",
			Help:    "Size of the filtered view returned by dashboard queries.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

// Handler returns the prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and latency for next under the given route label.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

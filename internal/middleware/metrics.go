package middleware

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitswipe_http_requests_total",
			Help: "HTTP requests by method, path pattern and status.",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitswipe_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// DecisionsTotal counts categorization decisions by category.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitswipe_decisions_total",
			Help: "Categorization decisions by category.",
		},
		[]string{"category"},
	)

	// SessionsCreated counts uploaded statements that produced a session.
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitswipe_sessions_created_total",
			Help: "Sessions created from statement uploads.",
		},
	)

	// UndosTotal counts undo actions.
	UndosTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "splitswipe_undos_total",
			Help: "Undo actions during categorization.",
		},
	)
)

// Metrics records request counts and latency. The registered route pattern
// is used as the path label so cardinality stays bounded.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			requestDuration.WithLabelValues(r.Method, routePattern(r)).Observe(v)
		}))

		next.ServeHTTP(rec, r)

		timer.ObserveDuration()
		requestsTotal.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(rec.status)).Inc()
	})
}

func routePattern(r *http.Request) string {
	if p := r.Pattern; p != "" {
		return p
	}
	return "unmatched"
}

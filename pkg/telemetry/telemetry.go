package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "branchdb_mutations_total",
		Help: "Branch mutations applied, by operation.",
	}, []string{"op"})

	mutationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "branchdb_mutation_failures_total",
		Help: "Branch mutations rejected or failed, by operation.",
	}, []string{"op"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "branchdb_http_requests_total",
		Help: "HTTP requests served, by method and status class.",
	}, []string{"method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "branchdb_http_request_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// RecordMutation counts one applied mutation.
func RecordMutation(op string) { mutations.WithLabelValues(op).Inc() }

// RecordMutationFailure counts one rejected or failed mutation.
func RecordMutationFailure(op string) { mutationFailures.WithLabelValues(op).Inc() }

// Handler returns the prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments request counts and latency.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status/100)+"xx").Inc()
	})
}

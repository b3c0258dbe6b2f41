// Package metrics exposes Prometheus instrumentation for catalog operations
// and HTTP requests.
//
// Mount the handler and middleware once when building the router:
//
//	r.Use(rec.Middleware())
//	r.Method(http.MethodGet, "/metrics", rec.Handler())
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "supermarket"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Recorder owns a private registry so several instances can coexist in tests.
type Recorder struct {
	registry *prometheus.Registry

	operations      *prometheus.CounterVec
	operationTiming *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestTiming   *prometheus.HistogramVec

	notFound error
}

// NewRecorder registers the catalog collectors plus the Go runtime and
// process collectors. Errors matching notFound are labelled not_found.
func NewRecorder(notFound error) *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		notFound: notFound,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "operations_total",
			Help:      "Catalog operations by outcome.",
		}, []string{"operation", "outcome"}),
		operationTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "operation_duration_seconds",
			Help:      "Duration of catalog operations in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .5, 1},
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		requestTiming: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.operations,
		r.operationTiming,
		r.requests,
		r.requestTiming,
	)
	return r
}

// Observe records one catalog operation that started at start:
//
//	defer func() { rec.Observe("find_all", start, err) }()
func (r *Recorder) Observe(operation string, start time.Time, err error) {
	r.operationTiming.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	r.operations.WithLabelValues(operation, r.outcome(err)).Inc()
}

func (r *Recorder) outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case r.notFound != nil && errors.Is(err, r.notFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry is exposed for tests and for registering extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests by chi route pattern, so /products/7 and
// /products/8 share one series.
func (r *Recorder) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, req)

			route := req.URL.Path
			if rctx := chi.RouteContext(req.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}

			r.requestTiming.WithLabelValues(req.Method, route).Observe(time.Since(start).Seconds())
			r.requests.WithLabelValues(req.Method, route, strconv.Itoa(sr.status)).Inc()
		})
	}
}

// Package metrics provides Prometheus metrics collection for the carton planner.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Optimization outcomes.
const (
	OutcomePacked     = "packed"
	OutcomeInfeasible = "infeasible"
	OutcomeInvalid    = "invalid"
)

var (
	// HTTPRequestDuration tracks HTTP request duration by method, route, and status code.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestTotal tracks total HTTP requests by method, route, and status code.
	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// OptimizationsTotal counts optimizations by outcome.
	OptimizationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carton_optimizations_total",
			Help: "Total number of carton packing optimizations",
		},
		[]string{"outcome"},
	)

	// OptimizationDuration tracks optimization duration.
	OptimizationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "carton_optimization_duration_seconds",
			Help:    "Carton packing optimization duration in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		},
	)

	// RecommendationCandidates counts cartons evaluated by recommendations, by result.
	RecommendationCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carton_recommendation_candidates_total",
			Help: "Cartons evaluated while ranking a catalog",
		},
		[]string{"result"},
	)
)

// RecordOptimization records metrics for one optimization.
func RecordOptimization(duration time.Duration, outcome string) {
	OptimizationDuration.Observe(duration.Seconds())
	OptimizationsTotal.WithLabelValues(outcome).Inc()
}

// RecordCandidates adds ranked and rejected carton counts.
func RecordCandidates(ranked int, rejected map[string]int) {
	RecommendationCandidates.WithLabelValues("ranked").Add(float64(ranked))
	for reason, n := range rejected {
		RecommendationCandidates.WithLabelValues(reason).Add(float64(n))
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency. The route label uses the
// matched ServeMux pattern so path parameters do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(rec.status)
		HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
		HTTPRequestTotal.WithLabelValues(r.Method, route, status).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

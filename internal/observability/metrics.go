package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce           sync.Once
	apiRequestsTotal       *prometheus.CounterVec
	apiLatencySeconds      *prometheus.HistogramVec
	apiErrorsTotal         *prometheus.CounterVec
	scoringRequestsTotal   *prometheus.CounterVec
	scoringDurationSeconds prometheus.Histogram
	gradePredictionsTotal  *prometheus.CounterVec
	scoreEventsPublished   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served per surface.",
		}, []string{"surface", "method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"surface", "method"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"surface", "route", "status"})

		scoringRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Heuristic scoring requests by outcome.",
		}, []string{"outcome"})

		scoringDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Time spent scoring a single text.",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		})

		gradePredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grade_predictions_total",
			Help: "Grade predictions by result.",
		}, []string{"result"})

		scoreEventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "score_events_published_total",
			Help: "Score events published per broker.",
		}, []string{"broker"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			scoringRequestsTotal,
			scoringDurationSeconds,
			gradePredictionsTotal,
			scoreEventsPublished,
		)
	})
}

// APIRequests exposes the request counter labelled by surface (ml, assignments, submissions, health).
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// ScoringRequests counts scoring calls labelled scored, disqualified or failed.
func ScoringRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return scoringRequestsTotal
}

// ScoringDuration observes the time taken by one heuristic score.
func ScoringDuration() prometheus.Histogram {
	RegisterMetrics()
	return scoringDurationSeconds
}

// GradePredictions counts predictor calls labelled by grade or failure kind.
func GradePredictions() *prometheus.CounterVec {
	RegisterMetrics()
	return gradePredictionsTotal
}

// ScoreEventsPublished counts score events per broker.
func ScoreEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreEventsPublished
}

// MetricsHandler registers the collectors and serves the Prometheus scrape endpoint.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

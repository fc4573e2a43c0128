package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "churnform"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route pattern and client surface",
		},
		[]string{"method", "route", "status_code", "surface"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Prediction metrics
var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of submission attempts by outcome",
		},
		[]string{"outcome"}, // "success", "invalid", "rejected", "unavailable", "rejected_in_flight"
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "prediction_duration_seconds",
			Help:      "Latency of calls to the prediction service",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	ValidationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Total number of field validation failures",
		},
		[]string{"field", "source"}, // source: "local" or "server"
	)

	PredictedChurnTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predicted_churn_total",
			Help:      "Total number of successful predictions by verdict",
		},
		[]string{"churn"},
	)
)

// Session metrics
var (
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of form sessions held in memory",
		},
	)
)

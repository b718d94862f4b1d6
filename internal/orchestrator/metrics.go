package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/draftforge/api/internal/model"
)

var (
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftforge_provider_attempts_total",
			Help: "Total number of provider invocations.",
		},
		[]string{"provider", "status"},
	)
	attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "draftforge_provider_attempt_duration_seconds",
			Help:    "Histogram of provider invocation durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
	completionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "draftforge_provider_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"provider"},
	)
	estimatedCostUSD = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "draftforge_provider_estimated_cost_usd_total",
			Help: "Estimated total cost of provider invocations in USD.",
		},
		[]string{"provider"},
	)
	schemaFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "draftforge_schema_fallbacks_total",
			Help: "Total number of passes retried under the legacy schema.",
		},
	)
)

// recordAttempt publishes one attempt to prometheus.
func recordAttempt(attempt model.Attempt, latency time.Duration) {
	status := "success"
	if !attempt.Success {
		status = string(attempt.ErrorKind)
	}
	attemptsTotal.WithLabelValues(attempt.Provider, status).Inc()
	attemptDuration.WithLabelValues(attempt.Provider).Observe(latency.Seconds())
	if attempt.Success {
		completionTokens.WithLabelValues(attempt.Provider).Observe(float64(attempt.CompletionTokens))
		estimatedCostUSD.WithLabelValues(attempt.Provider).Add(attempt.CostUSD)
	}
}

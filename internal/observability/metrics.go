package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	alertsCreatedTotal  *prometheus.CounterVec
	alertsSuppressed    *prometheus.CounterVec
	alertTransitions    *prometheus.CounterVec
	alertRulesSkipped   prometheus.Counter
	alertSweepDurations prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors for the API and the alert engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarwatch_requests_total",
			Help: "Total number of foundation API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scholarwatch_latency_seconds",
			Help:    "Latency distribution for foundation API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholarwatch_errors_total",
			Help: "Total number of error responses returned by foundation endpoints.",
		}, []string{"method", "route", "status"})

		alertsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_created_total",
			Help: "Performance alerts opened by the evaluation engine.",
		}, []string{"alert_type", "severity"})

		alertsSuppressed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alerts_suppressed_total",
			Help: "Alert candidates dropped because an open alert already existed.",
		}, []string{"alert_type"})

		alertTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_transitions_total",
			Help: "Alert lifecycle transitions applied, by target status.",
		}, []string{"to"})

		alertRulesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alert_rules_skipped_total",
			Help: "Malformed rules skipped during evaluation.",
		})

		alertSweepDurations = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alert_sweep_duration_seconds",
			Help:    "Duration of foundation-wide alert generation runs.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		})

		prometheus.MustRegister(
			apiRequestsTotal, apiLatencySeconds, apiErrorsTotal,
			alertsCreatedTotal, alertsSuppressed, alertTransitions,
			alertRulesSkipped, alertSweepDurations,
		)
	})
}

// APIRequests exposes the counter for foundation API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for foundation API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

func AlertsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsCreatedTotal
}

func AlertsSuppressed() *prometheus.CounterVec {
	RegisterMetrics()
	return alertsSuppressed
}

func AlertTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return alertTransitions
}

func AlertRulesSkipped() prometheus.Counter {
	RegisterMetrics()
	return alertRulesSkipped
}

func AlertSweepDuration() prometheus.Histogram {
	RegisterMetrics()
	return alertSweepDurations
}

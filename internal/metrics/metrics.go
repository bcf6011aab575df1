// Package metrics exposes the platform's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "platform",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "platform",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"site", "method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "platform",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"site", "method", "path"},
	)

	eventRegistrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "platform",
			Subsystem: "events",
			Name:      "registrations_total",
			Help:      "Total event registrations by outcome.",
		},
		[]string{"outcome"},
	)

	waitlistPromotions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "platform",
			Subsystem: "events",
			Name:      "waitlist_promotions_total",
			Help:      "Total waitlisted registrations promoted to confirmed.",
		},
	)

	challengesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "platform",
			Subsystem: "journeys",
			Name:      "challenges_completed_total",
			Help:      "Total journey challenges completed.",
		},
	)

	plansAdopted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "platform",
			Subsystem: "catalog",
			Name:      "plans_adopted_total",
			Help:      "Total plot adoption plans created.",
		},
	)

	costImports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "platform",
			Subsystem: "costs",
			Name:      "imports_total",
			Help:      "Total cost export imports by outcome.",
		},
		[]string{"outcome"},
	)

	schedulerRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "platform",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Total scheduler job runs.",
		},
		[]string{"job", "success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		eventRegistrations,
		waitlistPromotions,
		challengesCompleted,
		plansAdopted,
		costImports,
		schedulerRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records a handled request.
func RecordHTTPRequest(site, method, path, status string, duration time.Duration) {
	if site == "" {
		site = "unknown"
	}
	httpRequests.WithLabelValues(site, strings.ToUpper(method), path, status).Inc()
	httpDuration.WithLabelValues(site, strings.ToUpper(method), path).Observe(duration.Seconds())
}

// IncInFlight increments the in-flight request gauge.
func IncInFlight() { httpInFlight.Inc() }

// DecInFlight decrements the in-flight request gauge.
func DecInFlight() { httpInFlight.Dec() }

// RecordRegistration records an event registration outcome ("confirmed" or
// "waitlisted").
func RecordRegistration(outcome string) {
	eventRegistrations.WithLabelValues(outcome).Inc()
}

// RecordWaitlistPromotion records a waitlist promotion.
func RecordWaitlistPromotion() { waitlistPromotions.Inc() }

// RecordChallengeCompleted records a completed journey challenge.
func RecordChallengeCompleted() { challengesCompleted.Inc() }

// RecordPlanAdopted records a created adoption plan.
func RecordPlanAdopted() { plansAdopted.Inc() }

// RecordCostImport records a cost import outcome ("ok" or "failed").
func RecordCostImport(outcome string) {
	costImports.WithLabelValues(outcome).Inc()
}

// RecordSchedulerRun records a scheduler job run.
func RecordSchedulerRun(job string, success bool) {
	schedulerRuns.WithLabelValues(job, strconv.FormatBool(success)).Inc()
}

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bidaward"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	awardAttempts      *prometheus.CounterVec
	awardDuration      prometheus.Histogram
	rateLimitDecisions *prometheus.CounterVec
	deliveries         *prometheus.CounterVec
	queueDropped       prometheus.Counter
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		awardAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "award_attempts_total",
			Help:      "Award attempts by outcome.",
		}, []string{"outcome"}),
		awardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "award_duration_seconds",
			Help:      "Duration of the award unit of work.",
			Buckets:   prometheus.DefBuckets,
		}),
		rateLimitDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limiter decisions by policy.",
		}, []string{"policy", "decision"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Real-time notification delivery attempts by result.",
		}, []string{"result"}),
		queueDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_queue_dropped_total",
			Help:      "Deliveries dropped because the dispatch queue was full.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.awardAttempts,
		m.awardDuration,
		m.rateLimitDecisions,
		m.deliveries,
		m.queueDropped,
	)
	return m
}

// ObserveAward records one award attempt.
func (m *Metrics) ObserveAward(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.awardAttempts.WithLabelValues(outcome).Inc()
	m.awardDuration.Observe(elapsed.Seconds())
}

// RateLimitDecision records a limiter decision: allowed, denied, fail_open or fail_closed.
func (m *Metrics) RateLimitDecision(policy, decision string) {
	if m == nil {
		return
	}
	m.rateLimitDecisions.WithLabelValues(policy, decision).Inc()
}

// NotificationDelivery records a broadcast attempt result.
func (m *Metrics) NotificationDelivery(result string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(result).Inc()
}

// NotificationDropped records a delivery dropped on a full queue.
func (m *Metrics) NotificationDropped() {
	if m == nil {
		return
	}
	m.queueDropped.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

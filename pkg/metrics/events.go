package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EventMetrics records domain event dispatch outcomes.
type EventMetrics struct {
	published *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewEventMetrics registers the event dispatch metrics on the provided registerer.
func NewEventMetrics(reg prometheus.Registerer) *EventMetrics {
	if reg == nil {
		return &EventMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "domain_events_published_total",
		Help: "Domain events published to the in-process dispatcher.",
	}, []string{"kind"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "domain_event_handler_failures_total",
		Help: "Handler invocations that returned an error or panicked.",
	}, []string{"kind", "handler"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "domain_event_handler_duration_seconds",
		Help:    "Duration of event handler invocations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "handler"})
	reg.MustRegister(published, failures, duration)
	return &EventMetrics{
		published: published,
		failures:  failures,
		duration:  duration,
	}
}

// IncPublished increments the published counter for the event kind.
func (m *EventMetrics) IncPublished(kind string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncHandlerFailure increments the failure counter for a handler.
func (m *EventMetrics) IncHandlerFailure(kind, handler string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(kind), normalizeLabel(handler)).Inc()
}

// ObserveHandlerDuration records how long a handler ran.
func (m *EventMetrics) ObserveHandlerDuration(kind, handler string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind), normalizeLabel(handler)).Observe(d.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

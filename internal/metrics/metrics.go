// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles all collectors the engine records into.
type Metrics struct {
	attemptsTotal    *prometheus.CounterVec
	retriesScheduled *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	eventsConsumed   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herald",
			Name:      "delivery_attempts_total",
			Help:      "Delivery attempts by channel and terminal status.",
		}, []string{"channel", "status"}),
		retriesScheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herald",
			Name:      "retries_scheduled_total",
			Help:      "Messages re-published to a retry tier queue.",
		}, []string{"tier"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herald",
			Name:      "messages_dropped_total",
			Help:      "Messages dropped without retry, by reason.",
		}, []string{"reason"}),
		eventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herald",
			Name:      "events_consumed_total",
			Help:      "Events consumed from the main queue, by event type.",
		}, []string{"event_type"}),
	}
	reg.MustRegister(m.attemptsTotal, m.retriesScheduled, m.messagesDropped, m.eventsConsumed)
	return m
}

// ObserveAttempt records one terminal delivery attempt.
func (m *Metrics) ObserveAttempt(channel, status string) {
	m.attemptsTotal.WithLabelValues(channel, status).Inc()
}

// ObserveRetryScheduled records a re-publish to the given tier.
func (m *Metrics) ObserveRetryScheduled(tier string) {
	m.retriesScheduled.WithLabelValues(tier).Inc()
}

// ObserveDrop records a message dropped without retry.
func (m *Metrics) ObserveDrop(reason string) {
	m.messagesDropped.WithLabelValues(reason).Inc()
}

// ObserveEvent records a consumed event.
func (m *Metrics) ObserveEvent(eventType string) {
	m.eventsConsumed.WithLabelValues(eventType).Inc()
}

// Package metrics exposes billing counters on the service's Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billing"

// Webhook outcomes.
const (
	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
	OutcomeNotFound  = "company_not_found"
	OutcomeStale     = "stale"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	WebhookEvents   *prometheus.CounterVec
	WebhookDuration *prometheus.HistogramVec
	WelcomeEmails   *prometheus.CounterVec
	Reconciled      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Stripe webhook deliveries by event type and outcome",
		}, []string{"type", "outcome"}),
		WebhookDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_duration_seconds",
			Help:      "Time spent applying a webhook event",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
		WelcomeEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "welcome_emails_total",
			Help:      "Welcome email attempts by outcome",
		}, []string{"outcome"}),
		Reconciled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciled_companies_total",
			Help:      "Companies visited by reconciliation, by result",
		}, []string{"result"}),
	}

	reg.MustRegister(m.WebhookEvents, m.WebhookDuration, m.WelcomeEmails, m.Reconciled)
	return m
}

func (m *Metrics) ObserveWebhook(eventType, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
	if elapsed > 0 {
		m.WebhookDuration.WithLabelValues(eventType).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) WelcomeEmail(outcome string) {
	if m == nil {
		return
	}
	m.WelcomeEmails.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Reconcile(result string) {
	if m == nil {
		return
	}
	m.Reconciled.WithLabelValues(result).Inc()
}

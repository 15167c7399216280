package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics holds Prometheus metrics for inbound webhook verification.
type WebhookMetrics struct {
	Verifications *prometheus.CounterVec
	Replays       prometheus.Counter
	GuardErrors   prometheus.Counter
	BodyBytes     prometheus.Histogram
}

// NewWebhookMetrics creates and registers webhook metrics on the given registry.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	m := &WebhookMetrics{
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "verifications_total",
			Help:      "Total number of webhook signature checks, by result.",
		}, []string{"result"}),
		Replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "replays_total",
			Help:      "Total number of verified webhooks rejected as replays.",
		}),
		GuardErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "replay_guard_errors_total",
			Help:      "Total number of replay guard lookups that failed and were let through.",
		}),
		BodyBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "body_bytes",
			Help:      "Size of verified webhook bodies in bytes.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 7),
		}),
	}

	reg.MustRegister(m.Verifications, m.Replays, m.GuardErrors, m.BodyBytes)
	return m
}

// ObserveVerification counts one signature check. result is the
// verifier's internal reason, never shown to callers.
func (m *WebhookMetrics) ObserveVerification(result string) {
	m.Verifications.WithLabelValues(result).Inc()
}

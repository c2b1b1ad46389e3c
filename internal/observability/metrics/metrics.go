package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// Config configures the metric const labels.
type Config struct {
	ServiceName string
	Environment string
}

// Metrics exposes the payment-reconciliation instruments.
type Metrics struct {
	checkoutSessions   *prometheus.CounterVec
	reconcileEvents    *prometheus.CounterVec
	webhookRejections  *prometheus.CounterVec
	providerAPILatency *prometheus.HistogramVec
}

func New(registry *prometheus.Registry, cfg Config) *Metrics {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "youthbridge"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	checkoutSessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "youthbridge_checkout_sessions_total",
		Help:        "Checkout sessions created by provider and payable kind.",
		ConstLabels: constLabels,
	}, []string{"provider", "kind"})
	reconcileEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "youthbridge_reconcile_events_total",
		Help:        "Reconciliation events applied by provider and outcome.",
		ConstLabels: constLabels,
	}, []string{"provider", "outcome"})
	webhookRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "youthbridge_webhook_rejections_total",
		Help:        "Webhook deliveries rejected by provider and reason.",
		ConstLabels: constLabels,
	}, []string{"provider", "reason"})
	providerAPILatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "youthbridge_provider_api_duration_seconds",
		Help:        "Outbound payment-provider API latency.",
		Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"provider", "operation"})

	registry.MustRegister(
		checkoutSessions,
		reconcileEvents,
		webhookRejections,
		providerAPILatency,
	)

	return &Metrics{
		checkoutSessions:   checkoutSessions,
		reconcileEvents:    reconcileEvents,
		webhookRejections:  webhookRejections,
		providerAPILatency: providerAPILatency,
	}
}

func (m *Metrics) RecordCheckoutSession(provider, kind string) {
	if m == nil {
		return
	}
	m.checkoutSessions.WithLabelValues(provider, kind).Inc()
}

// RecordReconcileEvent counts an applied reconciliation event. Outcome is one
// of "confirmed", "cancelled", "duplicate", "noop".
func (m *Metrics) RecordReconcileEvent(provider, outcome string) {
	if m == nil {
		return
	}
	m.reconcileEvents.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordWebhookRejection(provider, reason string) {
	if m == nil {
		return
	}
	m.webhookRejections.WithLabelValues(provider, reason).Inc()
}

func (m *Metrics) ObserveProviderAPI(provider, operation string, seconds float64) {
	if m == nil {
		return
	}
	m.providerAPILatency.WithLabelValues(provider, operation).Observe(seconds)
}

package metrics

import (
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics интерфейс для метрик биллинга
type BillingMetrics interface {
	IncWebhookEvent(eventType, outcome string)
	IncSubscriptionCreated()
	IncChargeSucceeded()
	IncChargeFailed()
	ObserveBillingRunDuration(seconds float64)
	SetDueSubscriptions(count int)
}

type billingMetrics struct {
	log                  *logger.Logger
	webhookEvents        *prometheus.CounterVec
	subscriptionsCreated prometheus.Counter
	charges              *prometheus.CounterVec
	billingRunDuration   prometheus.Histogram
	dueSubscriptions     prometheus.Gauge
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "The total number of received webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	subscriptionsCreated := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "The total number of created subscriptions",
		},
	)

	charges := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_charges_total",
			Help: "The total number of billing charge attempts by outcome",
		},
		[]string{"outcome"},
	)

	billingRunDuration := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billing_run_duration_seconds",
			Help:    "Duration of billing processor runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)

	dueSubscriptions := promauto.With(registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "billing_due_subscriptions",
			Help: "Number of subscriptions due for billing in the last run",
		},
	)

	return &billingMetrics{
		log:                  log,
		webhookEvents:        webhookEvents,
		subscriptionsCreated: subscriptionsCreated,
		charges:              charges,
		billingRunDuration:   billingRunDuration,
		dueSubscriptions:     dueSubscriptions,
	}
}

// IncWebhookEvent увеличивает счетчик событий вебхуков
func (m *billingMetrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncSubscriptionCreated увеличивает счетчик созданных подписок
func (m *billingMetrics) IncSubscriptionCreated() {
	m.subscriptionsCreated.Inc()
}

// IncChargeSucceeded увеличивает счетчик успешных списаний
func (m *billingMetrics) IncChargeSucceeded() {
	m.charges.WithLabelValues("success").Inc()
}

// IncChargeFailed увеличивает счетчик неудачных списаний
func (m *billingMetrics) IncChargeFailed() {
	m.charges.WithLabelValues("failure").Inc()
}

// ObserveBillingRunDuration записывает длительность запуска процессора
func (m *billingMetrics) ObserveBillingRunDuration(seconds float64) {
	m.billingRunDuration.Observe(seconds)
}

// SetDueSubscriptions записывает количество подписок к списанию
func (m *billingMetrics) SetDueSubscriptions(count int) {
	m.dueSubscriptions.Set(float64(count))
}

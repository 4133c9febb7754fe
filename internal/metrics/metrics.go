// Package metrics exposes the Prometheus counters of the order lifecycle: status
// transitions, payment reconciliations and the outbox relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reconciliation results.
const (
	ReconciliationApplied   = "applied"
	ReconciliationFailed    = "failed"
	ReconciliationDuplicate = "duplicate"
	ReconciliationError     = "error"
)

// Metrics holds all application metrics. A nil *Metrics records nothing, so handlers
// built without metrics need no special casing.
type Metrics struct {
	StatusTransitions  *prometheus.CounterVec
	Reconciliations    *prometheus.CounterVec
	OutboxPublished    prometheus.Counter
	OutboxFailed       prometheus.Counter
	OutboxBatchSize    prometheus.Histogram
	PaymentGatewayOpen prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them with registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Order status changes by acting role, origin and target status",
		}, []string{"role", "from", "to"}),
		Reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payment_reconciliations_total",
			Help: "Per-order payment confirmation results",
		}, []string{"result"}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_messages_published_total",
			Help: "Outbox messages delivered to the broker",
		}),
		OutboxFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_messages_failed_total",
			Help: "Outbox delivery attempts that failed",
		}),
		OutboxBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "outbox_relay_batch_size",
			Help:    "Messages fetched per relay run",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		}),
		PaymentGatewayOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "payment_gateway_circuit_open",
			Help: "1 while the payment gateway circuit breaker is open",
		}),
		gatherer: registry,
	}

	registry.MustRegister(
		m.StatusTransitions,
		m.Reconciliations,
		m.OutboxPublished,
		m.OutboxFailed,
		m.OutboxBatchSize,
		m.PaymentGatewayOpen,
	)

	return m
}

func (m *Metrics) ObserveTransition(role, from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(role, from, to).Inc()
}

func (m *Metrics) ObserveReconciliation(result string) {
	if m == nil {
		return
	}
	m.Reconciliations.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveRelay(fetched, published, failed int) {
	if m == nil {
		return
	}
	m.OutboxBatchSize.Observe(float64(fetched))
	m.OutboxPublished.Add(float64(published))
	m.OutboxFailed.Add(float64(failed))
}

func (m *Metrics) SetGatewayOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.PaymentGatewayOpen.Set(1)
		return
	}
	m.PaymentGatewayOpen.Set(0)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

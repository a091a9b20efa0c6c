package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const namespace = "tillpoint"

// POSMetrics tracks checkout volume, ledger activity and drawer variance.
// A nil *POSMetrics is a no-op so services can run without a registry.
type POSMetrics struct {
	checkouts     *prometheus.CounterVec
	saleAmount    *prometheus.HistogramVec
	ledgerAppends *prometheus.CounterVec
	variance      *prometheus.HistogramVec
	refunds       *prometheus.CounterVec
	outboxPending prometheus.Gauge
	outboxPublish *prometheus.CounterVec
	deadLetters   *prometheus.GaugeVec
	staleOpen     prometheus.Gauge
}

func NewPOSMetrics(reg prometheus.Registerer) *POSMetrics {
	if reg == nil {
		return nil
	}
	m := &POSMetrics{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Completed checkouts by payment method.",
		}, []string{"payment_method"}),
		saleAmount: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sale_amount",
			Help:      "Sale totals in store currency.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"currency"}),
		ledgerAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_appends_total",
			Help:      "Register ledger entries appended by type.",
		}, []string{"type"}),
		variance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "register_close_variance",
			Help:      "Absolute counted minus expected cash at register close.",
			Buckets:   []float64{0.01, 0.5, 1, 5, 10, 50, 100},
		}, []string{"status"}),
		refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refunds_total",
			Help:      "Refunds by final status.",
		}, []string{"status"}),
		outboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending_events",
			Help:      "Outbox rows waiting to be published.",
		}),
		outboxPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_total",
			Help:      "Outbox rows handled by the publisher by outcome.",
		}, []string{"event_type", "outcome"}),
		deadLetters: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_dead_letters",
			Help:      "Rows in outbox_dlq by reason and event type.",
		}, []string{"reason", "event_type"}),
		staleOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registers_open_too_long",
			Help:      "Registers open longer than the configured shift limit.",
		}),
	}
	reg.MustRegister(m.checkouts, m.saleAmount, m.ledgerAppends, m.variance, m.refunds, m.outboxPending, m.outboxPublish, m.deadLetters, m.staleOpen)
	return m
}

func (m *POSMetrics) ObserveCheckout(paymentMethod, currency string, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
	m.saleAmount.WithLabelValues(normalizeLabel(currency)).Observe(total.InexactFloat64())
}

func (m *POSMetrics) IncLedgerAppend(txType string) {
	if m == nil {
		return
	}
	m.ledgerAppends.WithLabelValues(normalizeLabel(txType)).Inc()
}

func (m *POSMetrics) ObserveCloseVariance(status string, difference decimal.Decimal) {
	if m == nil {
		return
	}
	m.variance.WithLabelValues(normalizeLabel(status)).Observe(difference.Abs().InexactFloat64())
}

func (m *POSMetrics) IncRefund(status string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *POSMetrics) SetOutboxPending(count int64) {
	if m == nil {
		return
	}
	m.outboxPending.Set(float64(count))
}

// IncOutboxPublish counts one publisher decision: published, retry or dead_letter.
func (m *POSMetrics) IncOutboxPublish(eventType, outcome string) {
	if m == nil {
		return
	}
	m.outboxPublish.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *POSMetrics) SetOutboxDeadLetters(reason, eventType string, count int64) {
	if m == nil {
		return
	}
	m.deadLetters.WithLabelValues(normalizeLabel(reason), normalizeLabel(eventType)).Set(float64(count))
}

func (m *POSMetrics) SetStaleRegisters(count int) {
	if m == nil {
		return
	}
	m.staleOpen.Set(float64(count))
}

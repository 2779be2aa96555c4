// Package metrics exposes Prometheus collectors for reward fulfillment.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fulfillment sources.
const (
	SourcePayment = "payment"
	SourceVoucher = "voucher"
)

// Fulfillment outcomes.
const (
	OutcomeFulfilled = "fulfilled"
	OutcomeFailed    = "failed"
	OutcomeRejected  = "rejected"
	OutcomeReplayed  = "replayed"
)

// FulfillmentMetrics records fulfillment results and RCON command latency.
// A nil *FulfillmentMetrics is valid and records nothing.
type FulfillmentMetrics struct {
	fulfillments *prometheus.CounterVec
	commands     *prometheus.HistogramVec
	unmarked     prometheus.Counter
}

// NewFulfillmentMetrics registers the collectors on reg. A nil registerer
// yields a no-op instance.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}

	fulfillments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fulfillments_total",
		Help: "Fulfillment attempts by source and outcome.",
	}, []string{"source", "outcome"})
	commands := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rcon_dispatch_duration_seconds",
		Help:    "Time spent dispatching a reward's RCON commands.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	unmarked := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vouchers_unmarked_total",
		Help: "Vouchers granted in game that could not be marked redeemed.",
	})
	reg.MustRegister(fulfillments, commands, unmarked)

	return &FulfillmentMetrics{
		fulfillments: fulfillments,
		commands:     commands,
		unmarked:     unmarked,
	}
}

// IncFulfillment counts one fulfillment attempt.
func (m *FulfillmentMetrics) IncFulfillment(source, outcome string) {
	if m == nil || m.fulfillments == nil {
		return
	}
	m.fulfillments.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// ObserveDispatch records how long a dispatch took.
func (m *FulfillmentMetrics) ObserveDispatch(d time.Duration, err error) {
	if m == nil || m.commands == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}
	m.commands.WithLabelValues(result).Observe(d.Seconds())
}

// IncUnmarked counts a voucher left unmarked after a successful grant.
func (m *FulfillmentMetrics) IncUnmarked() {
	if m == nil || m.unmarked == nil {
		return
	}
	m.unmarked.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}

// Package metrics holds the Prometheus collectors of the gateway.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

const namespace = "liqpay_gateway"

var (
	// Reconciliations counts reconciliation outcomes.
	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciliations_total",
		Help:      "Order reconciliations by outcome.",
	}, []string{"outcome"})

	// ReconcileErrors counts reconciliations that failed and left the order unchanged.
	ReconcileErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconcile_errors_total",
		Help:      "Reconciliations aborted by a store error.",
	})

	// SignatureMismatches counts inbound notifications with a wrong signature.
	SignatureMismatches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signature_mismatches_total",
		Help:      "Inbound notifications rejected because of a signature mismatch.",
	})

	// InvalidNotifications counts notifications rejected for any other validation reason.
	InvalidNotifications = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_notifications_total",
		Help:      "Inbound notifications rejected as malformed or incomplete.",
	})

	// APIRequestDuration observes outbound processor API calls.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Outbound processor API call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action", "result"})

	// BreakerState is the state of the processor API circuit breaker.
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
	}, []string{"name"})
)

// ObserveAPIRequest records an outbound API call.
// It matches liqpay.RequestObserver.
func ObserveAPIRequest(action string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	APIRequestDuration.WithLabelValues(action, result).Observe(took.Seconds())
}

// ObserveBreakerState records a circuit breaker state change.
func ObserveBreakerState(name string, _, to gobreaker.State) {
	BreakerState.WithLabelValues(name).Set(float64(to))
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Gateway call outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeDeclined = "declined"
	OutcomeError    = "error"
)

// GatewayMetrics counts and times outbound payment gateway calls.
type GatewayMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Payment gateway calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Latency of payment gateway calls in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"operation"})
	reg.MustRegister(requests, duration)
	return &GatewayMetrics{
		requests: requests,
		duration: duration,
	}
}

// Observe records one gateway call.
func (g *GatewayMetrics) Observe(operation, outcome string, elapsed time.Duration) {
	if g == nil || g.requests == nil || g.duration == nil {
		return
	}
	op := normalizeLabel(operation)
	g.requests.WithLabelValues(op, normalizeLabel(outcome)).Inc()
	g.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestGatewayMetricsObserve(t *testing.T) {
	m := NewGatewayMetrics(prometheus.NewRegistry())
	m.Observe("verify", OutcomeSuccess, 120*time.Millisecond)
	m.Observe("verify", OutcomeDeclined, 80*time.Millisecond)
	m.Observe("", OutcomeError, time.Second)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("verify", OutcomeDeclined)); got != 1 {
		t.Fatalf("expected declined=1, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unknown", OutcomeError)); got != 1 {
		t.Fatalf("expected blank operation to map to unknown, got %v", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Fatalf("expected duration series per operation, got %d", got)
	}
}

func TestGatewayMetricsNilSafe(t *testing.T) {
	var m *GatewayMetrics
	m.Observe("initialize", OutcomeError, time.Second)
	NewGatewayMetrics(nil).Observe("initialize", OutcomeError, time.Second)
}

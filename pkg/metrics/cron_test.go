package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCronJobMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "payment-reconcile"

	m.Record(job, 250*time.Millisecond, nil)
	m.Record(job, time.Second, errors.New("gateway down"))
	m.Record(job, 100*time.Millisecond, nil)

	if got := testutil.ToFloat64(m.runs.WithLabelValues(job, CronSucceeded)); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.runs.WithLabelValues(job, CronFailed)); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues(job)); got <= 0 {
		t.Fatalf("expected last success timestamp, got %v", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 1 {
		t.Fatalf("expected one duration series, got %d", got)
	}
}

func TestCronJobMetricsFailureLeavesLastSuccessUnset(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.Record("outbox-retention", time.Second, errors.New("db down"))

	if got := testutil.CollectAndCount(m.lastSuccess); got != 0 {
		t.Fatalf("expected no last-success series after a failure, got %d", got)
	}
}

func TestCronJobMetricsNilSafe(t *testing.T) {
	var m *CronJobMetrics
	m.Record("job", time.Second, nil)
	NewCronJobMetrics(nil).Record("job", time.Second, errors.New("x"))
}

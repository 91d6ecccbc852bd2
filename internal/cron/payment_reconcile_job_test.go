package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/storefront-labs/storefront-backend/internal/payments"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

type fakeReconciler struct {
	params payments.ReconcileParams
	report payments.ReconcileReport
	err    error
	calls  int
}

func (f *fakeReconciler) Reconcile(_ context.Context, params payments.ReconcileParams) (payments.ReconcileReport, error) {
	f.calls++
	f.params = params
	return f.report, f.err
}

func TestPaymentReconcileJobAppliesDefaults(t *testing.T) {
	reconciler := &fakeReconciler{report: payments.ReconcileReport{Checked: 3, Finalized: 1, Pending: 2}}
	job, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Payments:  reconciler,
		BatchSize: 25,
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if job.Name() != "payment-reconcile" {
		t.Fatalf("unexpected name %q", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if reconciler.calls != 1 {
		t.Fatalf("expected one reconcile, got %d", reconciler.calls)
	}
	want := payments.ReconcileParams{GracePeriod: defaultReconcileGrace, MaxAge: defaultReconcileAge, BatchSize: 25}
	if reconciler.params != want {
		t.Fatalf("expected params %+v, got %+v", want, reconciler.params)
	}
}

func TestPaymentReconcileJobRejectsInvertedWindow(t *testing.T) {
	_, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Payments:    &fakeReconciler{},
		GracePeriod: time.Hour,
		MaxAge:      time.Minute,
	})
	if err == nil {
		t.Fatal("expected max age shorter than grace period to fail")
	}
}

func TestPaymentReconcileJobSurfacesErrors(t *testing.T) {
	job, err := NewPaymentReconcileJob(PaymentReconcileJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Payments: &fakeReconciler{err: errors.New("verify SF-1: gateway unavailable")},
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected reconcile error")
	}
}

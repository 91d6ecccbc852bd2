package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront-labs/storefront-backend/internal/payments"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

const (
	defaultReconcileGrace = 15 * time.Minute
	defaultReconcileAge   = 72 * time.Hour
)

type paymentReconciler interface {
	Reconcile(ctx context.Context, params payments.ReconcileParams) (payments.ReconcileReport, error)
}

type PaymentReconcileJobParams struct {
	Logger      *logger.Logger
	Payments    paymentReconciler
	GracePeriod time.Duration
	MaxAge      time.Duration
	BatchSize   int
}

// NewPaymentReconcileJob verifies card payments whose customer never returned
// from the gateway, so paid carts still become orders.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments service required")
	}
	grace := params.GracePeriod
	if grace <= 0 {
		grace = defaultReconcileGrace
	}
	maxAge := params.MaxAge
	if maxAge <= 0 {
		maxAge = defaultReconcileAge
	}
	if maxAge < grace {
		return nil, fmt.Errorf("max age %s must not be shorter than grace period %s", maxAge, grace)
	}
	return &paymentReconcileJob{
		logg:     params.Logger,
		payments: params.Payments,
		params: payments.ReconcileParams{
			GracePeriod: grace,
			MaxAge:      maxAge,
			BatchSize:   params.BatchSize,
		},
	}, nil
}

type paymentReconcileJob struct {
	logg     *logger.Logger
	payments paymentReconciler
	params   payments.ReconcileParams
}

func (j *paymentReconcileJob) Name() string { return "payment-reconcile" }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	report, err := j.payments.Reconcile(ctx, j.params)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked":   report.Checked,
		"finalized": report.Finalized,
		"failed":    report.Failed,
		"abandoned": report.Abandoned,
		"pending":   report.Pending,
	})
	if err != nil {
		return fmt.Errorf("payment reconcile: %w", err)
	}
	j.logg.Info(logCtx, "payment reconcile complete")
	return nil
}

package paystackwebhook

import (
	"context"
	"fmt"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/paystack"
)

// chargeConfirmer finalizes a payment through the same idempotent path as verify.
type chargeConfirmer interface {
	ConfirmCharge(ctx context.Context, reference string) (*models.Order, bool, error)
}

type ServiceParams struct {
	Payments chargeConfirmer
	Logger   *logger.Logger
}

type Service struct {
	payments chargeConfirmer
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{payments: params.Payments, logg: params.Logger}, nil
}

// HandleEvent acts on charge.success and acknowledges everything else.
func (s *Service) HandleEvent(ctx context.Context, event *paystack.Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "paystack event required")
	}

	switch event.Event {
	case paystack.EventChargeSuccess:
		if event.Data.Reference == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "transaction reference missing")
		}
		ctx = s.logg.WithReference(ctx, event.Data.Reference)
		order, created, err := s.payments.ConfirmCharge(ctx, event.Data.Reference)
		if err != nil {
			return s.acknowledgeTerminal(ctx, err)
		}
		if created {
			s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created from webhook")
		}
		return nil
	default:
		s.logg.Info(ctx, fmt.Sprintf("paystack event %s ignored", event.Event))
		return nil
	}
}

// acknowledgeTerminal swallows outcomes a redelivery cannot change so Paystack
// stops retrying; anything else is returned and the delivery is retried.
func (s *Service) acknowledgeTerminal(ctx context.Context, err error) error {
	typed := pkgerrors.As(err)
	if typed == nil {
		return err
	}
	switch typed.Code() {
	case pkgerrors.CodeNotFound:
		// Charges started outside this storefront share the account's webhook.
		s.logg.Warn(ctx, "charge.success for unknown reference ignored")
	case pkgerrors.CodeStateConflict, pkgerrors.CodeGateway:
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"code":  typed.Code(),
			"error": err.Error(),
		}), "charge.success cannot settle; acknowledged for manual review")
	default:
		return err
	}
	return nil
}

package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	"github.com/storefront-labs/storefront-backend/internal/pricing"
	"github.com/storefront-labs/storefront-backend/pkg/checkout"
	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
	"github.com/storefront-labs/storefront-backend/pkg/paystack"
	"github.com/storefront-labs/storefront-backend/pkg/types"
	"github.com/storefront-labs/storefront-backend/pkg/visibility"
)

// ReferencePrefix marks server-generated card payment references.
const ReferencePrefix = "SF-"

// Gateway is the subset of the Paystack client the service drives.
type Gateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*paystack.Verification, error)
}

type quoter interface {
	Quote(ctx context.Context, input cart.QuoteInput) (*pricing.Quote, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the card payment lifecycle.
type Service interface {
	Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error)
	Verify(ctx context.Context, reference string, viewer visibility.Viewer) (*VerifyResult, error)
	// EnsureOrder returns the order for a confirmed payment, verifying with the
	// gateway first when the payment has not been finalized yet.
	EnsureOrder(ctx context.Context, reference string, viewer visibility.Viewer) (*models.Order, bool, error)
	// ConfirmCharge finalizes a payment reported by a trusted source such as the webhook.
	ConfirmCharge(ctx context.Context, reference string) (*models.Order, bool, error)
	Reconcile(ctx context.Context, params ReconcileParams) (ReconcileReport, error)
}

// ServiceParams groups payment service dependencies.
type ServiceParams struct {
	Repo        Repository
	OrdersRepo  orders.Repository
	Writer      *orders.Writer
	Tx          txRunner
	Outbox      outboxPublisher
	Gateway     Gateway
	Quoter      quoter
	Logger      *logger.Logger
	Currency    string
	CallbackURL string
	Now         func() time.Time
}

type service struct {
	repo        Repository
	ordersRepo  orders.Repository
	writer      *orders.Writer
	tx          txRunner
	outbox      outboxPublisher
	gateway     Gateway
	quoter      quoter
	logg        *logger.Logger
	currency    string
	callbackURL string
	now         func() time.Time
}

// NewService builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("payments repository required")
	case params.OrdersRepo == nil:
		return nil, fmt.Errorf("orders repository required")
	case params.Writer == nil:
		return nil, fmt.Errorf("order writer required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case params.Quoter == nil:
		return nil, fmt.Errorf("quoter required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "NGN"
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repo,
		ordersRepo:  params.OrdersRepo,
		writer:      params.Writer,
		tx:          params.Tx,
		outbox:      params.Outbox,
		gateway:     params.Gateway,
		quoter:      params.Quoter,
		logg:        params.Logger,
		currency:    currency,
		callbackURL: params.CallbackURL,
		now:         now,
	}, nil
}

func (s *service) Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Checkout.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout items are required")
	}
	if err := input.Checkout.Address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}
	method := strings.TrimSpace(input.Checkout.PaymentMethod)
	if method != "" && method != enums.PaymentMethodPaystack.String() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "initialize-payment only supports paystack; save cash on delivery orders directly")
	}

	reference := strings.TrimSpace(input.Reference)
	if strings.HasPrefix(strings.ToUpper(reference), orders.CashOnDeliveryReferencePrefix) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference prefix "+orders.CashOnDeliveryReferencePrefix+" is reserved for cash on delivery")
	}
	if reference != "" {
		ctx = s.logg.WithReference(ctx, reference)
		existing, err := s.repo.FindByReference(ctx, reference)
		switch {
		case err == nil:
			return s.replayInitialize(existing, email, input.Viewer)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
	} else {
		reference = newReference()
		ctx = s.logg.WithReference(ctx, reference)
	}

	items := checkout.MergeLines(input.Checkout.Items)
	quote, err := s.quoter.Quote(ctx, cart.QuoteInput{
		Items:          items,
		CouponCode:     input.Checkout.CouponCode,
		ShippingOption: input.Checkout.ShippingOption,
	})
	if err != nil {
		return nil, err
	}
	if !quote.Total.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order total must be greater than zero for card payments")
	}
	if input.Amount != nil && !input.Amount.Round(2).Equal(quote.Total) {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"client_amount": input.Amount.String(),
			"server_amount": quote.Total.StringFixed(2),
		}), "client amount differs from server quote; charging server amount")
	}

	var userID *uuid.UUID
	if input.Viewer.UserID != uuid.Nil {
		id := input.Viewer.UserID
		userID = &id
	}
	totals := orders.TotalsFromQuote(quote)
	snapshot := types.CheckoutSnapshot{
		Items:          items,
		CouponCode:     strings.TrimSpace(input.Checkout.CouponCode),
		ShippingOption: strings.TrimSpace(input.Checkout.ShippingOption),
		Address:        input.Checkout.Address,
		PaymentMethod:  enums.PaymentMethodPaystack.String(),
		UserID:         userID,
		Totals:         &totals,
	}

	metadata := map[string]any{}
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata["reference"] = reference
	metadata["cart_total"] = quote.Total.StringFixed(2)
	if userID != nil {
		metadata["user_id"] = userID.String()
	}

	init, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       email,
		Amount:      quote.Total,
		Reference:   reference,
		Currency:    s.currency,
		CallbackURL: s.callbackURL,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}
	if init.Reference != "" && init.Reference != reference {
		reference = init.Reference
	}

	now := s.now().UTC()
	txn := &models.PaymentTransaction{
		ID:               uuid.New(),
		Reference:        reference,
		Email:            email,
		Status:           enums.PaymentStatusInitialized,
		Currency:         s.currency,
		ExpectedAmount:   quote.Total,
		AuthorizationURL: init.AuthorizationURL,
		AccessCode:       init.AccessCode,
		Checkout:         snapshot,
		Metadata:         types.JSONMap(metadata),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		if db.IsUniqueViolation(err, "ux_payment_transactions_reference") {
			existing, findErr := s.repo.FindByReference(ctx, reference)
			if findErr == nil {
				return s.replayInitialize(existing, email, input.Viewer)
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
	}

	s.logg.Info(ctx, "payment initialized")
	return &InitializeResult{
		AuthorizationURL: txn.AuthorizationURL,
		AccessCode:       txn.AccessCode,
		Reference:        txn.Reference,
		Amount:           txn.ExpectedAmount,
		Currency:         txn.Currency,
		Quote:            quote,
	}, nil
}

func (s *service) replayInitialize(existing *models.PaymentTransaction, email string, viewer visibility.Viewer) (*InitializeResult, error) {
	if !strings.EqualFold(existing.Email, email) || !ownsCheckout(existing, viewer) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "reference already used")
	}
	if existing.Status != enums.PaymentStatusInitialized {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payment %s is already %s", existing.Reference, existing.Status))
	}
	return &InitializeResult{
		AuthorizationURL: existing.AuthorizationURL,
		AccessCode:       existing.AccessCode,
		Reference:        existing.Reference,
		Amount:           existing.ExpectedAmount,
		Currency:         existing.Currency,
		Replayed:         true,
	}, nil
}

func (s *service) Verify(ctx context.Context, reference string, viewer visibility.Viewer) (*VerifyResult, error) {
	txn, err := s.loadOwned(ctx, reference, viewer)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithReference(ctx, txn.Reference)

	if txn.Status == enums.PaymentStatusSuccess && txn.OrderID != nil {
		order, err := s.ordersRepo.FindByID(ctx, *txn.OrderID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		return storedResult(txn, order), nil
	}

	verification, err := s.gateway.Verify(ctx, txn.Reference)
	if err != nil {
		return nil, err
	}
	order, _, err := s.settle(ctx, txn, verification)
	if err != nil {
		return nil, err
	}

	paid := verification.Amount
	result := &VerifyResult{
		Status:     enums.PaymentStatusSuccess,
		Reference:  txn.Reference,
		Amount:     paid,
		Currency:   verification.Currency,
		Customer:   &verification.Customer,
		Metadata:   verification.Metadata,
		VerifiedAt: verification.PaidAt,
		Order:      orders.ToDTO(order),
	}
	return result, nil
}

func (s *service) EnsureOrder(ctx context.Context, reference string, viewer visibility.Viewer) (*models.Order, bool, error) {
	txn, err := s.loadOwned(ctx, reference, viewer)
	if err != nil {
		return nil, false, err
	}
	return s.ensure(s.logg.WithReference(ctx, txn.Reference), txn)
}

func (s *service) ConfirmCharge(ctx context.Context, reference string) (*models.Order, bool, error) {
	txn, err := s.load(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	return s.ensure(s.logg.WithReference(ctx, txn.Reference), txn)
}

func (s *service) ensure(ctx context.Context, txn *models.PaymentTransaction) (*models.Order, bool, error) {
	if txn.OrderID != nil {
		order, err := s.ordersRepo.FindByID(ctx, *txn.OrderID)
		if err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		return order, false, nil
	}
	verification, err := s.gateway.Verify(ctx, txn.Reference)
	if err != nil {
		return nil, false, err
	}
	return s.settle(ctx, txn, verification)
}

// settle applies a gateway verification to the transaction. Only a successful
// charge for at least the expected amount creates an order.
func (s *service) settle(ctx context.Context, txn *models.PaymentTransaction, v *paystack.Verification) (*models.Order, bool, error) {
	if !v.Successful() {
		if err := s.recordUnsuccessful(ctx, txn, v); err != nil {
			return nil, false, err
		}
		return nil, false, pkgerrors.New(pkgerrors.CodeGateway, "payment was not successful").WithDetails(map[string]any{
			"status":           v.Status,
			"gateway_response": v.GatewayResponse,
		})
	}

	if !strings.EqualFold(v.Currency, txn.Currency) || v.Amount.LessThan(txn.ExpectedAmount) {
		note := fmt.Sprintf("amount mismatch: paid %s %s, expected %s %s", v.Amount.StringFixed(2), v.Currency, txn.ExpectedAmount.StringFixed(2), txn.Currency)
		if err := s.repo.Update(ctx, txn.ID, map[string]any{
			"status":           enums.PaymentStatusFailed,
			"paid_amount":      v.Amount,
			"gateway_response": note,
		}); err != nil {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment mismatch")
		}
		s.logg.Warn(ctx, note)
		return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "paid amount does not match the order total")
	}

	if txn.Checkout.Totals == nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeInternal, "payment is missing its checkout snapshot")
	}

	var (
		order   *models.Order
		created bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.repo.WithTx(tx).LockByReference(ctx, txn.Reference)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock payment")
		}
		if locked.OrderID != nil {
			order, err = s.ordersRepo.WithTx(tx).FindByID(ctx, *locked.OrderID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
			}
			return nil
		}

		built := orders.Build(orders.BuildInput{
			Reference:     locked.Reference,
			PaymentMethod: enums.PaymentMethodPaystack,
			UserID:        locked.Checkout.UserID,
			Address:       locked.Checkout.Address,
			Totals:        *locked.Checkout.Totals,
			Now:           s.now(),
		})
		order, created, err = s.writer.CreateTx(ctx, tx, built, locked.Email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
		}
		if !created && !settles(order, locked) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_id":       order.ID.String(),
				"payment_method": order.PaymentMethod,
				"order_total":    order.Total.StringFixed(2),
			}), "reference already holds an order this payment cannot settle")
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment reference is already bound to a different order")
		}

		verifiedAt := s.now().UTC()
		if v.PaidAt != nil {
			verifiedAt = v.PaidAt.UTC()
		}
		updates := map[string]any{
			"status":      enums.PaymentStatusSuccess,
			"paid_amount": v.Amount,
			"order_id":    order.ID,
			"verified_at": verifiedAt,
		}
		if v.GatewayResponse != "" {
			updates["gateway_response"] = v.GatewayResponse
		}
		if err := s.repo.WithTx(tx).Update(ctx, locked.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment verified")
		}

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentVerified,
			AggregateType: enums.AggregatePaymentTransaction,
			AggregateID:   locked.ID,
			Data: payloads.PaymentVerifiedEvent{
				TransactionID: locked.ID,
				Reference:     locked.Reference,
				OrderID:       order.ID,
				Amount:        v.Amount.StringFixed(2),
				Currency:      v.Currency,
				VerifiedAt:    verifiedAt,
			},
		})
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order created from verified payment")
	}
	return order, created, nil
}

// settles reports whether an order that already exists under the reference is
// the one this card payment would have created.
func settles(order *models.Order, txn *models.PaymentTransaction) bool {
	if order.PaymentMethod != enums.PaymentMethodPaystack || !order.Total.Equal(txn.Checkout.Totals.Total) {
		return false
	}
	want := txn.Checkout.UserID
	switch {
	case order.UserID == nil || want == nil:
		return order.UserID == nil && want == nil
	default:
		return *order.UserID == *want
	}
}

func (s *service) recordUnsuccessful(ctx context.Context, txn *models.PaymentTransaction, v *paystack.Verification) error {
	status, ok := statusFromGateway(v.Status)
	updates := map[string]any{}
	if v.GatewayResponse != "" {
		updates["gateway_response"] = v.GatewayResponse
	}
	if ok && txn.Status != enums.PaymentStatusSuccess {
		updates["status"] = status
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.Update(ctx, txn.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment status")
	}
	return nil
}

// statusFromGateway maps terminal gateway outcomes. In-flight statuses such as
// "ongoing" or "pending" leave the transaction initialized.
func statusFromGateway(status string) (enums.PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "failed", "reversed":
		return enums.PaymentStatusFailed, true
	case "abandoned":
		return enums.PaymentStatusAbandoned, true
	default:
		return "", false
	}
}

func (s *service) Reconcile(ctx context.Context, params ReconcileParams) (ReconcileReport, error) {
	var report ReconcileReport
	now := s.now().UTC()
	rows, err := s.repo.ListInitializedBefore(ctx, now.Add(-params.GracePeriod), params.BatchSize)
	if err != nil {
		return report, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pending payments")
	}

	var errs error
	for i := range rows {
		txn := &rows[i]
		report.Checked++
		rowCtx := s.logg.WithReference(ctx, txn.Reference)
		stale := params.MaxAge > 0 && now.Sub(txn.CreatedAt) > params.MaxAge

		verification, err := s.gateway.Verify(rowCtx, txn.Reference)
		if err != nil {
			if stale {
				errs = multierr.Append(errs, s.abandon(rowCtx, txn, "gateway verify failed after max age"))
				report.Abandoned++
				continue
			}
			errs = multierr.Append(errs, fmt.Errorf("verify %s: %w", txn.Reference, err))
			continue
		}

		if verification.Successful() {
			if _, _, err := s.settle(rowCtx, txn, verification); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("settle %s: %w", txn.Reference, err))
				continue
			}
			report.Finalized++
			continue
		}

		if status, ok := statusFromGateway(verification.Status); ok && status == enums.PaymentStatusFailed {
			if err := s.recordUnsuccessful(rowCtx, txn, verification); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			report.Failed++
			continue
		}

		if stale {
			errs = multierr.Append(errs, s.abandon(rowCtx, txn, verification.GatewayResponse))
			report.Abandoned++
			continue
		}
		report.Pending++
	}
	return report, errs
}

func (s *service) abandon(ctx context.Context, txn *models.PaymentTransaction, note string) error {
	updates := map[string]any{"status": enums.PaymentStatusAbandoned}
	if note != "" {
		updates["gateway_response"] = note
	}
	if err := s.repo.Update(ctx, txn.ID, updates); err != nil {
		return fmt.Errorf("abandon %s: %w", txn.Reference, err)
	}
	s.logg.Info(ctx, "stale payment marked abandoned")
	return nil
}

func (s *service) load(ctx context.Context, reference string) (*models.PaymentTransaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required")
	}
	txn, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return txn, nil
}

func (s *service) loadOwned(ctx context.Context, reference string, viewer visibility.Viewer) (*models.PaymentTransaction, error) {
	txn, err := s.load(ctx, reference)
	if err != nil {
		return nil, err
	}
	if !ownsCheckout(txn, viewer) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return txn, nil
}

func ownsCheckout(txn *models.PaymentTransaction, viewer visibility.Viewer) bool {
	if viewer.IsAdmin() || txn.Checkout.UserID == nil {
		return true
	}
	return *txn.Checkout.UserID == viewer.UserID
}

func storedResult(txn *models.PaymentTransaction, order *models.Order) *VerifyResult {
	amount := txn.ExpectedAmount
	if txn.PaidAmount != nil {
		amount = *txn.PaidAmount
	}
	return &VerifyResult{
		Status:     txn.Status,
		Reference:  txn.Reference,
		Amount:     amount,
		Currency:   txn.Currency,
		Metadata:   map[string]any(txn.Metadata),
		VerifiedAt: txn.VerifiedAt,
		Order:      orders.ToDTO(order),
	}
}

func newReference() string {
	return ReferencePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

var _ orders.PaymentFinalizer = (*service)(nil)

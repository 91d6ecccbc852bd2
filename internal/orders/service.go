package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/pricing"
	"github.com/storefront-labs/storefront-backend/pkg/checkout"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
	"github.com/storefront-labs/storefront-backend/pkg/visibility"
)

// CashOnDeliveryReferencePrefix marks COD references. Card payments may never
// use it, so the two reference spaces cannot collide.
const CashOnDeliveryReferencePrefix = "COD-"

type quoter interface {
	Quote(ctx context.Context, input cart.QuoteInput) (*pricing.Quote, error)
}

// PaymentFinalizer turns a verified card payment into its order. It returns the
// existing order when the reference was already finalized.
type PaymentFinalizer interface {
	EnsureOrder(ctx context.Context, reference string, viewer visibility.Viewer) (*models.Order, bool, error)
}

// Service defines order operations exposed over HTTP.
type Service interface {
	SaveOrder(ctx context.Context, input SaveOrderInput) (*SaveOrderResult, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	List(ctx context.Context, viewer visibility.Viewer, filters ListFilters, params pagination.Params) (*pagination.Page[OrderDTO], error)
	Get(ctx context.Context, viewer visibility.Viewer, id uuid.UUID) (*OrderDTO, error)
}

// ServiceParams groups order service dependencies.
type ServiceParams struct {
	Repo      Repository
	Tx        txRunner
	Outbox    outboxPublisher
	Writer    *Writer
	Quoter    quoter
	Finalizer PaymentFinalizer
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	writer    *Writer
	quoter    quoter
	finalizer PaymentFinalizer
	logg      *logger.Logger
	now       func() time.Time
}

// NewService builds the order service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Writer == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if params.Quoter == nil {
		return nil, fmt.Errorf("quoter required")
	}
	if params.Finalizer == nil {
		return nil, fmt.Errorf("payment finalizer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		writer:    params.Writer,
		quoter:    params.Quoter,
		finalizer: params.Finalizer,
		logg:      params.Logger,
		now:       now,
	}, nil
}

func (s *service) SaveOrder(ctx context.Context, input SaveOrderInput) (*SaveOrderResult, error) {
	if input.Viewer.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	switch input.PaymentMethod {
	case enums.PaymentMethodPaystack:
		reference := strings.TrimSpace(input.Reference)
		if reference == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference is required for paystack orders")
		}
		order, created, err := s.finalizer.EnsureOrder(ctx, reference, input.Viewer)
		if err != nil {
			return nil, err
		}
		return &SaveOrderResult{Order: ToDTO(order), Created: created}, nil
	case enums.PaymentMethodCashOnDelivery:
		return s.saveCashOnDelivery(ctx, input)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment_method must be paystack or cod")
	}
}

func (s *service) saveCashOnDelivery(ctx context.Context, input SaveOrderInput) (*SaveOrderResult, error) {
	if err := input.Address.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid address")
	}

	reference := strings.TrimSpace(input.Reference)
	switch {
	case reference == "":
		reference = CashOnDeliveryReferencePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	case !strings.HasPrefix(reference, CashOnDeliveryReferencePrefix):
		// card references belong to payment_transactions and settle through the gateway
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cash on delivery reference must start with "+CashOnDeliveryReferencePrefix)
	}
	ctx = s.logg.WithReference(ctx, reference)

	existing, err := s.repo.FindByReference(ctx, reference)
	switch {
	case err == nil:
		if existing.UserID == nil || *existing.UserID != input.Viewer.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "reference already used")
		}
		return &SaveOrderResult{Order: ToDTO(existing), Created: false}, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	quote, err := s.quoter.Quote(ctx, cart.QuoteInput{
		Items:          checkout.MergeLines(input.Items),
		CouponCode:     input.CouponCode,
		ShippingOption: input.ShippingOption,
	})
	if err != nil {
		return nil, err
	}

	userID := input.Viewer.UserID
	order := Build(BuildInput{
		Reference:     reference,
		PaymentMethod: enums.PaymentMethodCashOnDelivery,
		UserID:        &userID,
		Address:       input.Address,
		Totals:        TotalsFromQuote(quote),
		Now:           s.now(),
	})

	var (
		saved   *models.Order
		created bool
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		saved, created, err = s.writer.CreateTx(ctx, tx, order, input.Address.Email)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order")
	}
	if saved.UserID == nil || *saved.UserID != input.Viewer.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "reference already used")
	}
	if created {
		s.logg.Info(s.logg.WithOrderID(ctx, saved.ID.String()), "cash on delivery order saved")
	}
	return &SaveOrderResult{Order: ToDTO(saved), Created: created}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.Status == input.Status {
			return nil
		}
		if !order.Status.CanTransitionTo(input.Status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, input.Status)).
				WithDetails(map[string]any{"current_status": order.Status, "requested_status": input.Status})
		}

		if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:        order.ID,
				PreviousStatus: order.Status,
				Status:         input.Status,
				ChangedAt:      s.now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
	}
	return ToDTO(order), nil
}

func (s *service) List(ctx context.Context, viewer visibility.Viewer, filters ListFilters, params pagination.Params) (*pagination.Page[OrderDTO], error) {
	owner, err := visibility.OwnerFilter(viewer)
	if err != nil {
		return nil, err
	}
	if owner != nil {
		filters.UserID = owner
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	dtos := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *ToDTO(&rows[i]))
	}
	page := pagination.Trim(dtos, params.Limit, func(o OrderDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &page, nil
}

func (s *service) Get(ctx context.Context, viewer visibility.Viewer, id uuid.UUID) (*OrderDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := visibility.EnsureOrderVisible(order, viewer); err != nil {
		return nil, err
	}
	return ToDTO(order), nil
}

package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/payloads"
)

// Writer persists orders idempotently by payment reference. It is shared by the
// cash-on-delivery path and payment finalization so both honor the same key.
type Writer struct {
	repo   Repository
	outbox outboxPublisher
}

// NewWriter builds the order writer.
func NewWriter(repo Repository, outbox outboxPublisher) (*Writer, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Writer{repo: repo, outbox: outbox}, nil
}

// CreateTx inserts order inside tx unless its reference is already taken, in which
// case the stored order is returned with created=false. order_created is queued in
// the same transaction as the insert.
func (w *Writer) CreateTx(ctx context.Context, tx *gorm.DB, order *models.Order, email string) (*models.Order, bool, error) {
	repo := w.repo.WithTx(tx)

	inserted, err := repo.InsertIfAbsent(ctx, order)
	if err != nil {
		return nil, false, err
	}
	if !inserted {
		existing, err := repo.FindByReference(ctx, order.PaymentReference)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCreatedEvent{
			OrderID:          order.ID,
			UserID:           order.UserID,
			PaymentReference: order.PaymentReference,
			PaymentMethod:    order.PaymentMethod,
			Email:            email,
			Total:            order.Total.StringFixed(2),
			Status:           order.Status,
		},
	}
	if order.UserID != nil {
		event.Actor = &outbox.ActorRef{UserID: *order.UserID, Role: string(enums.UserRoleCustomer)}
	}
	if err := w.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
		return nil, false, err
	}
	return order, true, nil
}

package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// OrderCreatedEvent is published once per persisted order so mailers can send a receipt.
type OrderCreatedEvent struct {
	OrderID          uuid.UUID           `json:"order_id"`
	UserID           *uuid.UUID          `json:"user_id,omitempty"`
	PaymentReference string              `json:"payment_reference"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	Email            string              `json:"email"`
	Total            string              `json:"total"`
	Status           enums.OrderStatus   `json:"status"`
}

// OrderStatusChangedEvent is emitted after an admin moves an order to a new status.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	Status         enums.OrderStatus `json:"status"`
	ChangedAt      time.Time         `json:"changed_at"`
}

// PaymentVerifiedEvent records a gateway-confirmed charge.
type PaymentVerifiedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Reference     string    `json:"reference"`
	OrderID       uuid.UUID `json:"order_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	VerifiedAt    time.Time `json:"verified_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

// PaymentTransaction records one gateway initialize/verify cycle keyed by its
// payment reference.
type PaymentTransaction struct {
	ID               uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference        string                 `gorm:"column:reference;not null;uniqueIndex"`
	Email            string                 `gorm:"column:email;not null"`
	Status           enums.PaymentStatus    `gorm:"column:status;type:text;not null;default:'initialized'"`
	Currency         string                 `gorm:"column:currency;not null"`
	ExpectedAmount   decimal.Decimal        `gorm:"column:expected_amount;type:numeric(12,2);not null"`
	PaidAmount       *decimal.Decimal       `gorm:"column:paid_amount;type:numeric(12,2)"`
	AuthorizationURL string                 `gorm:"column:authorization_url;not null"`
	AccessCode       string                 `gorm:"column:access_code;not null"`
	GatewayResponse  *string                `gorm:"column:gateway_response"`
	Checkout         types.CheckoutSnapshot `gorm:"column:checkout;type:jsonb;not null"`
	Metadata         types.JSONMap          `gorm:"column:metadata;type:jsonb"`
	OrderID          *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	VerifiedAt       *time.Time             `gorm:"column:verified_at"`
	CreatedAt        time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

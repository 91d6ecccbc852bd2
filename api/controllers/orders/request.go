package orders

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/internal/payments"
	"github.com/storefront-labs/storefront-backend/pkg/types"
	"github.com/storefront-labs/storefront-backend/pkg/visibility"
)

// InitializePaymentRequest starts a Paystack checkout. Amount is what the client
// displayed; the charged amount always comes from the server quote.
type InitializePaymentRequest struct {
	Email          string               `json:"email,omitempty" validate:"omitempty,email"`
	Amount         *decimal.Decimal     `json:"amount,omitempty" validate:"omitempty,money"`
	Reference      string               `json:"reference,omitempty" validate:"omitempty,max=100"`
	Metadata       map[string]any       `json:"metadata,omitempty"`
	Items          []types.CheckoutLine `json:"items" validate:"required,min=1,dive"`
	CouponCode     string               `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	ShippingOption string               `json:"shipping_option,omitempty" validate:"omitempty,oneof=standard express"`
	Address        *types.Address       `json:"address" validate:"required"`
	PaymentMethod  string               `json:"payment_method,omitempty" validate:"omitempty,oneof=paystack"`
}

// VerifyPaymentRequest confirms the charge behind a reference.
type VerifyPaymentRequest struct {
	Reference string `json:"reference" validate:"required,max=100"`
}

// SaveOrderRequest persists an order. Paystack orders only need the reference.
type SaveOrderRequest struct {
	PaymentMethod  string               `json:"payment_method" validate:"required,oneof=paystack cod"`
	Reference      string               `json:"reference,omitempty" validate:"omitempty,max=100"`
	Items          []types.CheckoutLine `json:"items,omitempty" validate:"omitempty,dive"`
	CouponCode     string               `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	ShippingOption string               `json:"shipping_option,omitempty" validate:"omitempty,oneof=standard express"`
	Address        *types.Address       `json:"address,omitempty" validate:"omitempty"`
}

// UpdateStatusRequest is the admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing delivered cancel"`
}

func (req InitializePaymentRequest) toInput(fallbackEmail string, viewer visibility.Viewer) payments.InitializeInput {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = fallbackEmail
	}
	return payments.InitializeInput{
		Email:     email,
		Amount:    req.Amount,
		Reference: strings.TrimSpace(req.Reference),
		Metadata:  req.Metadata,
		Checkout: payments.CheckoutInput{
			Items:          req.Items,
			CouponCode:     strings.TrimSpace(req.CouponCode),
			ShippingOption: strings.TrimSpace(req.ShippingOption),
			Address:        *req.Address,
			PaymentMethod:  req.PaymentMethod,
		},
		Viewer: viewer,
	}
}

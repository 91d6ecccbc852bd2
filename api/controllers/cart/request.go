package cart

import (
	"strings"

	cartsvc "github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

// QuoteRequest is the cart intent posted by the storefront. Prices are looked up
// server-side, so the payload carries only product ids and quantities.
type QuoteRequest struct {
	Items          []types.CheckoutLine `json:"items" validate:"required,min=1,dive"`
	CouponCode     string               `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	ShippingOption string               `json:"shipping_option,omitempty" validate:"omitempty,oneof=standard express"`
}

// ApplyCouponRequest requires a coupon code on top of the cart.
type ApplyCouponRequest struct {
	Items          []types.CheckoutLine `json:"items" validate:"required,min=1,dive"`
	CouponCode     string               `json:"coupon_code" validate:"required,max=64"`
	ShippingOption string               `json:"shipping_option,omitempty" validate:"omitempty,oneof=standard express"`
}

func (q QuoteRequest) toInput() cartsvc.QuoteInput {
	return cartsvc.QuoteInput{
		Items:          q.Items,
		CouponCode:     strings.TrimSpace(q.CouponCode),
		ShippingOption: strings.TrimSpace(q.ShippingOption),
	}
}

func (a ApplyCouponRequest) toInput() cartsvc.QuoteInput {
	return QuoteRequest(a).toInput()
}

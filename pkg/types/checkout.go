package types

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutLine is a requested product and quantity. Prices are never taken from
// the client; they are resolved from the catalog when the quote is computed.
type CheckoutLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// CheckoutSnapshot is the checkout payload captured when a payment is initialized
// so the order can be rebuilt server-side once the gateway confirms the charge.
type CheckoutSnapshot struct {
	Items          []CheckoutLine  `json:"items"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	ShippingOption string          `json:"shipping_option,omitempty"`
	Address        Address         `json:"address"`
	PaymentMethod  string          `json:"payment_method"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	Totals         *CheckoutTotals `json:"totals,omitempty"`
}

// PricedLine is a cart line as it was priced when the customer was charged.
type PricedLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Title       string          `json:"title"`
	ProductType string          `json:"product_type"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// CheckoutTotals freezes the server quote so the order matches the amount charged
// even if catalog prices or coupons change before the payment is confirmed.
type CheckoutTotals struct {
	Lines          []PricedLine    `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	ShippingOption string          `json:"shipping_option,omitempty"`
	CouponCode     string          `json:"coupon_code,omitempty"`
}

// Value serializes the snapshot to JSON.
func (c CheckoutSnapshot) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan decodes JSONB into the snapshot.
func (c *CheckoutSnapshot) Scan(value any) error {
	*c = CheckoutSnapshot{}
	return scanJSON(value, c)
}

// Package pricing computes checkout totals. It is pure: every input, including the
// free-shipping threshold and the clock, is passed in by the caller.
package pricing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

// Coupon rejection reasons surfaced to clients.
const (
	RejectExpired      = "expired"
	RejectBelowMinimum = "below_minimum"
	RejectInactive     = "inactive"
	RejectNotStarted   = "not_started"
	RejectUnknownCode  = "not_found"
)

const amountPlaces = 2

// Line is a cart line priced from an authoritative catalog snapshot.
type Line struct {
	ProductID   uuid.UUID
	Title       string
	ProductType string
	UnitPrice   decimal.Decimal
	Quantity    int
}

// Fees are the flat shipping charges per option.
type Fees struct {
	Standard decimal.Decimal
	Express  decimal.Decimal
}

// For returns the fee for an option, or false for an unknown option.
func (f Fees) For(option enums.ShippingOption) (decimal.Decimal, bool) {
	switch option {
	case enums.ShippingOptionStandard:
		return f.Standard, true
	case enums.ShippingOptionExpress:
		return f.Express, true
	default:
		return decimal.Zero, false
	}
}

// Input is everything a quote depends on.
type Input struct {
	Lines          []Line
	Coupon         *models.Coupon
	ShippingOption enums.ShippingOption
	Threshold      decimal.Decimal
	Fees           Fees
	Now            time.Time
	// DeferShipping lets a quote without a shipping option succeed with shipping left
	// out of the total. Checkout never sets it.
	DeferShipping bool
}

// QuotedLine is a priced line in the result.
type QuotedLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Title       string          `json:"title"`
	ProductType string          `json:"product_type"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Discounted  bool            `json:"discounted"`
}

// Quote is the computed breakdown. Total is always Subtotal + ShippingCost - Discount.
type Quote struct {
	Lines                []QuotedLine          `json:"lines"`
	Subtotal             decimal.Decimal       `json:"subtotal"`
	Discount             decimal.Decimal       `json:"discount"`
	ShippingCost         decimal.Decimal       `json:"shipping_cost"`
	Total                decimal.Decimal       `json:"total"`
	FreeShipping         bool                  `json:"free_shipping"`
	FreeShippingAt       decimal.Decimal       `json:"free_shipping_threshold"`
	AmountToFreeShipping decimal.Decimal       `json:"amount_to_free_shipping"`
	ShippingOption       *enums.ShippingOption `json:"shipping_option,omitempty"`
	CouponCode           *string               `json:"coupon_code,omitempty"`
	CouponRejection      string                `json:"coupon_rejection,omitempty"`
	ShippingPending      bool                  `json:"shipping_pending,omitempty"`
}

// CouponApplied reports whether the coupon contributed to this quote.
func (q *Quote) CouponApplied() bool {
	return q.CouponCode != nil
}

// Calculate prices the cart. An empty cart, a negative threshold, or a missing
// shipping option when shipping is not free are validation errors.
func Calculate(in Input) (*Quote, error) {
	if len(in.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if in.Threshold.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free shipping threshold must not be negative")
	}

	quote := &Quote{
		Lines:          make([]QuotedLine, 0, len(in.Lines)),
		Subtotal:       decimal.Zero,
		Discount:       decimal.Zero,
		ShippingCost:   decimal.Zero,
		FreeShippingAt: round(in.Threshold),
	}

	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
		}
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		quote.Subtotal = quote.Subtotal.Add(total)
		quote.Lines = append(quote.Lines, QuotedLine{
			ProductID:   line.ProductID,
			Title:       line.Title,
			ProductType: line.ProductType,
			UnitPrice:   round(line.UnitPrice),
			Quantity:    line.Quantity,
			LineTotal:   round(total),
		})
	}
	quote.Subtotal = round(quote.Subtotal)

	if in.Coupon != nil {
		if reason := CouponRejection(in.Coupon, quote.Subtotal, in.Now); reason != "" {
			quote.CouponRejection = reason
		} else {
			quote.Discount = applyCoupon(quote, in.Coupon)
			code := in.Coupon.Code
			quote.CouponCode = &code
		}
	}

	if quote.Subtotal.GreaterThanOrEqual(quote.FreeShippingAt) {
		quote.FreeShipping = true
		quote.AmountToFreeShipping = decimal.Zero
		if in.ShippingOption != "" {
			opt := in.ShippingOption
			quote.ShippingOption = &opt
		}
	} else {
		quote.AmountToFreeShipping = quote.FreeShippingAt.Sub(quote.Subtotal)
		fee, ok := in.Fees.For(in.ShippingOption)
		switch {
		case !ok && in.ShippingOption == "" && in.DeferShipping:
			quote.ShippingPending = true
		case !ok:
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping option required").WithDetails(map[string]any{
				"amount_to_free_shipping": quote.AmountToFreeShipping.StringFixed(amountPlaces),
			})
		default:
			opt := in.ShippingOption
			quote.ShippingOption = &opt
			quote.ShippingCost = round(fee)
		}
	}

	quote.Total = quote.Subtotal.Add(quote.ShippingCost).Sub(quote.Discount)
	return quote, nil
}

// CouponRejection returns why a coupon cannot apply to a subtotal at now, or "" when it can.
func CouponRejection(coupon *models.Coupon, subtotal decimal.Decimal, now time.Time) string {
	switch {
	case coupon.Status != "" && coupon.Status != enums.CouponStatusActive:
		return RejectInactive
	case !now.Before(coupon.EndTime):
		return RejectExpired
	case !coupon.StartTime.IsZero() && now.Before(coupon.StartTime):
		return RejectNotStarted
	case subtotal.LessThan(coupon.MinimumAmount):
		return RejectBelowMinimum
	default:
		return ""
	}
}

func applyCoupon(quote *Quote, coupon *models.Coupon) decimal.Decimal {
	eligible := decimal.Zero
	for i := range quote.Lines {
		if !strings.EqualFold(quote.Lines[i].ProductType, coupon.ProductType) {
			continue
		}
		quote.Lines[i].Discounted = true
		eligible = eligible.Add(quote.Lines[i].LineTotal)
	}
	return round(eligible.Mul(coupon.DiscountPercentage).Div(decimal.NewFromInt(100)))
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(amountPlaces)
}

// Package cart prices carts on the server from authoritative catalog data.
package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/internal/pricing"
	"github.com/storefront-labs/storefront-backend/pkg/checkout"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type couponLoader interface {
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type thresholdLoader interface {
	FreeShippingThreshold(ctx context.Context) (decimal.Decimal, error)
}

// QuoteInput is the client's cart intent. Prices are never taken from the client.
type QuoteInput struct {
	Items          []types.CheckoutLine
	CouponCode     string
	ShippingOption string
}

// Service computes quotes for the cart page, coupon application and checkout.
type Service interface {
	// Preview tolerates a missing shipping option so the cart page can render before
	// the customer chooses one.
	Preview(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
	// Quote is the strict form used when money is about to move.
	Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
	// ApplyCoupon fails unless the coupon actually applies.
	ApplyCoupon(ctx context.Context, input QuoteInput) (*pricing.Quote, error)
}

// ServiceParams groups the quote dependencies.
type ServiceParams struct {
	Products productLoader
	Coupons  couponLoader
	Settings thresholdLoader
	Fees     pricing.Fees
	Now      func() time.Time
}

type service struct {
	products productLoader
	coupons  couponLoader
	settings thresholdLoader
	fees     pricing.Fees
	now      func() time.Time
}

// NewService builds the quote service.
func NewService(params ServiceParams) (Service, error) {
	if params.Products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon loader required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings loader required")
	}
	if params.Fees.Standard.IsNegative() || params.Fees.Express.IsNegative() {
		return nil, fmt.Errorf("shipping fees must not be negative")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		products: params.Products,
		coupons:  params.Coupons,
		settings: params.Settings,
		fees:     params.Fees,
		now:      now,
	}, nil
}

func (s *service) Preview(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	return s.calculate(ctx, input, true)
}

func (s *service) Quote(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	return s.calculate(ctx, input, false)
}

func (s *service) ApplyCoupon(ctx context.Context, input QuoteInput) (*pricing.Quote, error) {
	if strings.TrimSpace(input.CouponCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	quote, err := s.calculate(ctx, input, true)
	if err != nil {
		return nil, err
	}
	if !quote.CouponApplied() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, couponMessage(quote.CouponRejection)).WithDetails(map[string]any{
			"reason": quote.CouponRejection,
		})
	}
	return quote, nil
}

func (s *service) calculate(ctx context.Context, input QuoteInput, deferShipping bool) (*pricing.Quote, error) {
	lines := checkout.MergeLines(input.Items)
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	catalog, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	view := make(map[uuid.UUID]checkout.LineProduct, len(catalog))
	for id, p := range catalog {
		view[id] = checkout.LineProduct{ID: p.ID, Title: p.Title, IsActive: p.IsActive}
	}
	if err := checkout.ValidateLines(lines, view); err != nil {
		return nil, err
	}

	priced := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		product := catalog[line.ProductID]
		priced = append(priced, pricing.Line{
			ProductID:   product.ID,
			Title:       product.Title,
			ProductType: product.ProductType,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
		})
	}

	threshold, err := s.settings.FreeShippingThreshold(ctx)
	if err != nil {
		return nil, err
	}

	var option enums.ShippingOption
	if raw := strings.TrimSpace(input.ShippingOption); raw != "" {
		parsed, err := enums.ParseShippingOption(strings.ToLower(raw))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping option")
		}
		option = parsed
	}

	coupon, unknownCode, err := s.lookupCoupon(ctx, input.CouponCode)
	if err != nil {
		return nil, err
	}

	quote, err := pricing.Calculate(pricing.Input{
		Lines:          priced,
		Coupon:         coupon,
		ShippingOption: option,
		Threshold:      threshold,
		Fees:           s.fees,
		Now:            s.now().UTC(),
		DeferShipping:  deferShipping,
	})
	if err != nil {
		return nil, err
	}
	if unknownCode {
		quote.CouponRejection = pricing.RejectUnknownCode
	}
	return quote, nil
}

// lookupCoupon treats an unknown code as a dropped coupon rather than a failed quote.
func (s *service) lookupCoupon(ctx context.Context, code string) (*models.Coupon, bool, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, false, nil
	}
	coupon, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, true, nil
		}
		return nil, false, err
	}
	return coupon, false, nil
}

func couponMessage(reason string) string {
	switch reason {
	case pricing.RejectExpired:
		return "coupon has expired"
	case pricing.RejectBelowMinimum:
		return "order total is below the coupon minimum"
	case pricing.RejectInactive:
		return "coupon is not active"
	case pricing.RejectNotStarted:
		return "coupon is not valid yet"
	case pricing.RejectUnknownCode:
		return "coupon not found"
	default:
		return "coupon cannot be applied"
	}
}

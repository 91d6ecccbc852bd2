package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/internal/pricing"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

type stubProducts struct {
	items map[uuid.UUID]models.Product
	err   error
}

func (s stubProducts) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if p, ok := s.items[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type stubCoupons map[string]*models.Coupon

func (s stubCoupons) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	if c, ok := s[code]; ok {
		return c, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
}

type stubSettings decimal.Decimal

func (s stubSettings) FreeShippingThreshold(context.Context) (decimal.Decimal, error) {
	return decimal.Decimal(s), nil
}

func newTestService(t *testing.T, products map[uuid.UUID]models.Product, coupons stubCoupons) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Products: stubProducts{items: products},
		Coupons:  coupons,
		Settings: stubSettings(decimal.NewFromInt(200)),
		Fees:     pricing.Fees{Standard: decimal.NewFromInt(20), Express: decimal.NewFromInt(60)},
		Now:      func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func product(price string, productType string) models.Product {
	return models.Product{ID: uuid.New(), Title: productType, ProductType: productType, Price: decimal.RequireFromString(price), IsActive: true}
}

func catalogOf(ps ...models.Product) map[uuid.UUID]models.Product {
	out := map[uuid.UUID]models.Product{}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out
}

func TestQuoteUsesCatalogPricesAndMergesLines(t *testing.T) {
	shoes := product("60", "shoes")
	svc := newTestService(t, catalogOf(shoes), nil)

	quote, err := svc.Quote(context.Background(), QuoteInput{
		Items: []types.CheckoutLine{
			{ProductID: shoes.ID, Quantity: 2},
			{ProductID: shoes.ID, Quantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quote.Lines) != 1 || quote.Lines[0].Quantity != 4 {
		t.Fatalf("expected merged line of 4, got %+v", quote.Lines)
	}
	if !quote.Total.Equal(decimal.NewFromInt(240)) || !quote.FreeShipping {
		t.Fatalf("unexpected totals %s free=%v", quote.Total, quote.FreeShipping)
	}
}

func TestQuoteRequiresShippingBelowThreshold(t *testing.T) {
	hat := product("180", "hats")
	svc := newTestService(t, catalogOf(hat), nil)
	input := QuoteInput{Items: []types.CheckoutLine{{ProductID: hat.ID, Quantity: 1}}}

	if _, err := svc.Quote(context.Background(), input); err == nil {
		t.Fatal("strict quote must require a shipping option")
	}

	preview, err := svc.Preview(context.Background(), input)
	if err != nil {
		t.Fatalf("preview should defer shipping: %v", err)
	}
	if !preview.ShippingPending {
		t.Fatal("expected shipping pending on preview")
	}

	input.ShippingOption = "Standard"
	quote, err := svc.Quote(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.ShippingOption == nil || *quote.ShippingOption != enums.ShippingOptionStandard {
		t.Fatalf("expected standard shipping, got %v", quote.ShippingOption)
	}
	if !quote.Total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected 200 total, got %s", quote.Total)
	}

	input.ShippingOption = "overnight"
	_, err = svc.Quote(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown option, got %v", err)
	}
}

func TestQuoteRejectsUnknownProducts(t *testing.T) {
	svc := newTestService(t, nil, nil)
	_, err := svc.Quote(context.Background(), QuoteInput{Items: []types.CheckoutLine{{ProductID: uuid.New(), Quantity: 1}}})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestQuoteDropsUnknownCoupon(t *testing.T) {
	shoes := product("250", "shoes")
	svc := newTestService(t, catalogOf(shoes), stubCoupons{})

	quote, err := svc.Quote(context.Background(), QuoteInput{
		Items:      []types.CheckoutLine{{ProductID: shoes.ID, Quantity: 1}},
		CouponCode: "NOPE",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.CouponApplied() || quote.CouponRejection != pricing.RejectUnknownCode {
		t.Fatalf("expected unknown coupon rejection, got %+v", quote)
	}
}

func TestApplyCoupon(t *testing.T) {
	shoes := product("100", "shoes")
	coupons := stubCoupons{
		"TEN": {Code: "TEN", DiscountPercentage: decimal.NewFromInt(10), MinimumAmount: decimal.NewFromInt(100), ProductType: "shoes",
			StartTime: fixedNow.Add(-time.Hour), EndTime: fixedNow.Add(time.Hour), Status: enums.CouponStatusActive},
		"OLD": {Code: "OLD", DiscountPercentage: decimal.NewFromInt(10), ProductType: "shoes",
			StartTime: fixedNow.Add(-48 * time.Hour), EndTime: fixedNow.Add(-time.Hour), Status: enums.CouponStatusActive},
	}
	svc := newTestService(t, catalogOf(shoes), coupons)
	items := []types.CheckoutLine{{ProductID: shoes.ID, Quantity: 1}}

	quote, err := svc.ApplyCoupon(context.Background(), QuoteInput{Items: items, CouponCode: "TEN", ShippingOption: "express"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Discount.Equal(decimal.NewFromInt(10)) || !quote.Total.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("unexpected discount %s total %s", quote.Discount, quote.Total)
	}

	_, err = svc.ApplyCoupon(context.Background(), QuoteInput{Items: items, CouponCode: "OLD"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation || typed.Message() != "coupon has expired" {
		t.Fatalf("expected expired coupon error, got %v", err)
	}

	if _, err := svc.ApplyCoupon(context.Background(), QuoteInput{Items: items}); err == nil {
		t.Fatal("expected error when code missing")
	}
}

func TestQuotePropagatesLoaderErrors(t *testing.T) {
	svc, err := NewService(ServiceParams{
		Products: stubProducts{err: errors.New("db down")},
		Coupons:  stubCoupons{},
		Settings: stubSettings(decimal.Zero),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.Quote(context.Background(), QuoteInput{Items: []types.CheckoutLine{{ProductID: uuid.New(), Quantity: 1}}}); err == nil {
		t.Fatal("expected loader error")
	}
}

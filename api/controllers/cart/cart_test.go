package cart

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	cartsvc "github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/pricing"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
)

type stubCartService struct {
	previewed *cartsvc.QuoteInput
	applied   *cartsvc.QuoteInput
	applyErr  error
}

func (s *stubCartService) Preview(_ context.Context, input cartsvc.QuoteInput) (*pricing.Quote, error) {
	s.previewed = &input
	return &pricing.Quote{Subtotal: decimal.NewFromInt(180), Total: decimal.NewFromInt(180)}, nil
}

func (s *stubCartService) Quote(_ context.Context, input cartsvc.QuoteInput) (*pricing.Quote, error) {
	return s.Preview(context.Background(), input)
}

func (s *stubCartService) ApplyCoupon(_ context.Context, input cartsvc.QuoteInput) (*pricing.Quote, error) {
	s.applied = &input
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return &pricing.Quote{}, nil
}

func newLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestQuoteForwardsCart(t *testing.T) {
	svc := &stubCartService{}
	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":2}],"coupon_code":" SAVE10 "}`
	rec := httptest.NewRecorder()
	Quote(svc, newLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/quote", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.previewed == nil || svc.previewed.CouponCode != "SAVE10" || len(svc.previewed.Items) != 1 {
		t.Fatalf("unexpected input %+v", svc.previewed)
	}
	if !strings.Contains(rec.Body.String(), `"subtotal":"180"`) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestQuoteRejectsClientPrices(t *testing.T) {
	svc := &stubCartService{}
	body := `{"items":[{"product_id":"` + uuid.NewString() + `","quantity":1,"price":"1"}]}`
	rec := httptest.NewRecorder()
	Quote(svc, newLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/cart/quote", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if svc.previewed != nil {
		t.Fatal("service must not see bodies carrying prices")
	}
}

func TestApplyCoupon(t *testing.T) {
	svc := &stubCartService{}
	line := `[{"product_id":"` + uuid.NewString() + `","quantity":1}]`

	rec := httptest.NewRecorder()
	ApplyCoupon(svc, newLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/coupons/apply", strings.NewReader(`{"items":`+line+`}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without coupon code got %d", rec.Code)
	}

	svc.applyErr = pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	rec = httptest.NewRecorder()
	ApplyCoupon(svc, newLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/coupons/apply", strings.NewReader(`{"items":`+line+`,"coupon_code":"OLD"}`)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "coupon has expired") {
		t.Fatalf("expected coupon rejection, got %d (%s)", rec.Code, rec.Body.String())
	}
	if svc.applied == nil || svc.applied.CouponCode != "OLD" {
		t.Fatalf("unexpected input %+v", svc.applied)
	}
}

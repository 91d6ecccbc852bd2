package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-backend/pkg/db/dbtest"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

func validInput(code string) CreateCouponInput {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return CreateCouponInput{
		Code:               code,
		DiscountPercentage: decimal.NewFromInt(15),
		MinimumAmount:      decimal.NewFromInt(100),
		ProductType:        "shoes",
		StartTime:          start,
		EndTime:            start.AddDate(0, 1, 0),
	}
}

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)
	return svc
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func TestCreateAndFindByExactCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput("SPRING15"))
	require.NoError(t, err)
	assert.Equal(t, enums.CouponStatusActive, created.Status)

	found, err := svc.FindByCode(ctx, "SPRING15")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.True(t, found.DiscountPercentage.Equal(decimal.NewFromInt(15)))

	_, err = svc.FindByCode(ctx, "spring15")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, validInput("DUP"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, validInput("DUP"))
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := map[string]func(*CreateCouponInput){
		"zero percent":     func(in *CreateCouponInput) { in.DiscountPercentage = decimal.Zero },
		"over 100 percent": func(in *CreateCouponInput) { in.DiscountPercentage = decimal.NewFromInt(101) },
		"negative minimum": func(in *CreateCouponInput) { in.MinimumAmount = decimal.NewFromInt(-5) },
		"inverted window":  func(in *CreateCouponInput) { in.EndTime = in.StartTime.Add(-time.Hour) },
		"bad status":       func(in *CreateCouponInput) { in.Status = "paused" },
		"blank code":       func(in *CreateCouponInput) { in.Code = "  " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput("X")
			mutate(&in)
			_, err := svc.Create(ctx, in)
			requireCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestListPages(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, code := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, validInput(code))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	page, err := svc.List(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "C", page.Items[0].Code)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.List(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, "A", rest.Items[0].Code)
}

package settings

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-backend/pkg/db/dbtest"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t)), decimal.NewFromInt(200))
	require.NoError(t, err)
	return svc
}

func TestGetSeedsDefaultOnFirstRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, got.FreeShippingThreshold.Equal(decimal.NewFromInt(200)))

	again, err := svc.FreeShippingThreshold(ctx)
	require.NoError(t, err)
	assert.True(t, again.Equal(decimal.NewFromInt(200)))
}

func TestUpdateChangesThreshold(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	updated, err := svc.Update(ctx, UpdateInput{FreeShippingThreshold: decimal.RequireFromString("150.5")})
	require.NoError(t, err)
	assert.Equal(t, "150.50", updated.FreeShippingThreshold.StringFixed(2))

	threshold, err := svc.FreeShippingThreshold(ctx)
	require.NoError(t, err)
	assert.True(t, threshold.Equal(decimal.RequireFromString("150.5")))
}

func TestUpdateRejectsNegativeThreshold(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Update(context.Background(), UpdateInput{FreeShippingThreshold: decimal.NewFromInt(-1)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestNewServiceRequiresRepo(t *testing.T) {
	_, err := NewService(nil, decimal.Zero)
	require.Error(t, err)
}

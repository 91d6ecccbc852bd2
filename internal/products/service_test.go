package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/storefront-backend/pkg/db/dbtest"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

func seedProduct(t *testing.T, repo *Repository, title string, active bool, createdAt time.Time) models.Product {
	t.Helper()
	p := models.Product{
		ID:          uuid.New(),
		Title:       title,
		ProductType: "apparel",
		Price:       decimal.RequireFromString("25.50"),
		IsActive:    active,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), &p))
	return p
}

func TestCreateValidatesAndPersists(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateProductInput{Title: " ", ProductType: "apparel"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())

	_, err = svc.Create(context.Background(), CreateProductInput{Title: "Cap", ProductType: "hats", Price: decimal.NewFromInt(-1)})
	require.Error(t, err)

	created, err := svc.Create(context.Background(), CreateProductInput{Title: "Cap", ProductType: "hats", Price: decimal.RequireFromString("12.345")})
	require.NoError(t, err)
	assert.Equal(t, "12.35", created.Price.StringFixed(2))
	assert.True(t, created.IsActive)

	found, err := svc.FindByIDs(context.Background(), []uuid.UUID{created.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cap", found[created.ID].Title)
}

func TestCreateKeepsInactiveProductsOffTheList(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)
	ctx := context.Background()

	inactive := false
	draft, err := svc.Create(ctx, CreateProductInput{Title: "Draft tee", ProductType: "apparel", Price: decimal.NewFromInt(30), IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, draft.IsActive)

	stored, err := svc.FindByIDs(ctx, []uuid.UUID{draft.ID})
	require.NoError(t, err)
	assert.False(t, stored[draft.ID].IsActive)

	page, err := svc.List(ctx, ListFilters{}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListPaginatesActiveProducts(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	svc, err := NewService(repo)
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	newest := seedProduct(t, repo, "newest", true, base.Add(3*time.Minute))
	middle := seedProduct(t, repo, "middle", true, base.Add(2*time.Minute))
	seedProduct(t, repo, "hidden", false, base.Add(90*time.Second))
	oldest := seedProduct(t, repo, "oldest", true, base.Add(time.Minute))

	first, err := svc.List(context.Background(), ListFilters{}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, newest.ID, first.Items[0].ID)
	assert.Equal(t, middle.ID, first.Items[1].ID)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.List(context.Background(), ListFilters{}, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, oldest.ID, second.Items[0].ID)
	assert.Empty(t, second.NextCursor)
}

func TestListRejectsBadCursor(t *testing.T) {
	svc, err := NewService(NewRepository(dbtest.Open(t)))
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListFilters{}, pagination.Params{Cursor: "%%%"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

package validators

import (
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

func TestParsePaginationDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/products?cursor=%20abc%20", nil)
	params, err := ParsePagination(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Limit != pagination.DefaultLimit || params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", params)
	}
}

func TestQueryIntRejectsBadValues(t *testing.T) {
	bounds := IntRange{Default: 50, Min: 1, Max: 500}
	for _, raw := range []string{"0", "501", "ten"} {
		req := httptest.NewRequest("GET", "/?limit="+raw, nil)
		_, err := QueryInt(req, "limit", bounds)
		if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("limit=%s: expected validation error, got %v", raw, err)
		}
	}

	got, err := QueryInt(httptest.NewRequest("GET", "/?limit=500", nil), "limit", bounds)
	if err != nil || got != 500 {
		t.Fatalf("expected 500, got %d %v", got, err)
	}
}

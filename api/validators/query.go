package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

// IntRange bounds a numeric query parameter. Default is used when the
// parameter is absent or blank.
type IntRange struct {
	Default, Min, Max int
}

var pageLimits = IntRange{Default: pagination.DefaultLimit, Min: 1, Max: pagination.MaxLimit}

// QueryInt reads key from the query string and rejects values outside bounds.
func QueryInt(r *http.Request, key string, bounds IntRange) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return bounds.Default, nil
	}
	details := map[string]any{"field": key}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a whole number").WithDetails(details)
	}
	if value < bounds.Min || value > bounds.Max {
		details["min"], details["max"] = bounds.Min, bounds.Max
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").WithDetails(details)
	}
	return value, nil
}

// ParsePagination reads the limit and cursor query parameters.
func ParsePagination(r *http.Request) (pagination.Params, error) {
	limit, err := QueryInt(r, "limit", pageLimits)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

// MaxLineQuantity bounds a single cart line.
const MaxLineQuantity = 1000

// LineProduct is the catalog view a cart line is validated against.
type LineProduct struct {
	ID       uuid.UUID
	Title    string
	IsActive bool
}

// LineViolation describes a rejected cart line.
type LineViolation struct {
	ProductID uuid.UUID `json:"product_id"`
	Title     string    `json:"title,omitempty"`
	Reason    string    `json:"reason"`
	Quantity  int       `json:"quantity,omitempty"`
}

const (
	ReasonNotFound        = "not_found"
	ReasonInactive        = "inactive"
	ReasonInvalidQuantity = "invalid_quantity"
)

// MergeLines folds repeated product ids into one line, preserving first-seen order.
func MergeLines(lines []types.CheckoutLine) []types.CheckoutLine {
	merged := make([]types.CheckoutLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// ValidateLines checks every line has a sane quantity and refers to an active product.
func ValidateLines(lines []types.CheckoutLine, catalog map[uuid.UUID]LineProduct) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	var violations []LineViolation
	for _, line := range lines {
		if line.Quantity <= 0 || line.Quantity > MaxLineQuantity {
			violations = append(violations, LineViolation{
				ProductID: line.ProductID,
				Reason:    ReasonInvalidQuantity,
				Quantity:  line.Quantity,
			})
			continue
		}
		product, ok := catalog[line.ProductID]
		if !ok {
			violations = append(violations, LineViolation{ProductID: line.ProductID, Reason: ReasonNotFound})
			continue
		}
		if !product.IsActive {
			violations = append(violations, LineViolation{ProductID: line.ProductID, Title: product.Title, Reason: ReasonInactive})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%d cart item(s) cannot be purchased", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}

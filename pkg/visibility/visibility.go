package visibility

import (
	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

// Viewer is the authenticated caller a read is evaluated for.
type Viewer struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// IsAdmin reports whether the viewer can see every customer's data.
func (v Viewer) IsAdmin() bool {
	return v.Role == enums.UserRoleAdmin
}

// EnsureOrderVisible hides orders from customers who do not own them. Missing and
// foreign orders look identical so ids cannot be probed.
func EnsureOrderVisible(order *models.Order, viewer Viewer) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if viewer.IsAdmin() {
		return nil
	}
	if viewer.UserID == uuid.Nil || order.UserID == nil || *order.UserID != viewer.UserID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

// OwnerFilter returns the user id a listing must be scoped to, or nil for admins.
func OwnerFilter(viewer Viewer) (*uuid.UUID, error) {
	if viewer.IsAdmin() {
		return nil, nil
	}
	if viewer.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id := viewer.UserID
	return &id, nil
}

package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/types"
	"github.com/storefront-labs/storefront-backend/pkg/visibility"
)

// ListFilters narrow the orders list. UserID is forced for customers.
type ListFilters struct {
	UserID        *uuid.UUID
	Status        *enums.OrderStatus
	PaymentMethod *enums.PaymentMethod
}

// OrderItemDTO is a line of a saved order.
type OrderItemDTO struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Title       string          `json:"title"`
	ProductType string          `json:"product_type"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID               uuid.UUID           `json:"id"`
	UserID           *uuid.UUID          `json:"user_id,omitempty"`
	PaymentReference string              `json:"payment_reference"`
	PaymentMethod    enums.PaymentMethod `json:"payment_method"`
	ShippingOption   *string             `json:"shipping_option,omitempty"`
	CouponCode       *string             `json:"coupon_code,omitempty"`
	Address          types.Address       `json:"address"`
	Subtotal         decimal.Decimal     `json:"subtotal"`
	ShippingCost     decimal.Decimal     `json:"shipping_cost"`
	Discount         decimal.Decimal     `json:"discount"`
	Total            decimal.Decimal     `json:"total"`
	Status           enums.OrderStatus   `json:"status"`
	Items            []OrderItemDTO      `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// SaveOrderInput is the saveOrder payload. Paystack orders only need the reference;
// the rest is rebuilt from the checkout captured at initialize.
type SaveOrderInput struct {
	PaymentMethod  enums.PaymentMethod
	Reference      string
	Items          []types.CheckoutLine
	CouponCode     string
	ShippingOption string
	Address        types.Address
	Viewer         visibility.Viewer
}

// SaveOrderResult reports whether this call created the order.
type SaveOrderResult struct {
	Order   *OrderDTO `json:"order"`
	Created bool      `json:"created"`
}

// UpdateStatusInput is the admin status change request.
type UpdateStatusInput struct {
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Actor   visibility.Viewer
}

// ToDTO converts a persisted order.
func ToDTO(order *models.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID:   item.ProductID,
			Title:       item.Title,
			ProductType: item.ProductType,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal,
		})
	}
	return &OrderDTO{
		ID:               order.ID,
		UserID:           order.UserID,
		PaymentReference: order.PaymentReference,
		PaymentMethod:    order.PaymentMethod,
		ShippingOption:   order.ShippingOption,
		CouponCode:       order.CouponCode,
		Address:          order.Address,
		Subtotal:         order.Subtotal,
		ShippingCost:     order.ShippingCost,
		Discount:         order.Discount,
		Total:            order.Total,
		Status:           order.Status,
		Items:            items,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

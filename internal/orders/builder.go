package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/storefront-backend/internal/pricing"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/types"
)

// TotalsFromQuote freezes a quote into the snapshot stored with payments and orders.
func TotalsFromQuote(q *pricing.Quote) types.CheckoutTotals {
	lines := make([]types.PricedLine, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, types.PricedLine{
			ProductID:   l.ProductID,
			Title:       l.Title,
			ProductType: l.ProductType,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		})
	}
	totals := types.CheckoutTotals{
		Lines:        lines,
		Subtotal:     q.Subtotal,
		ShippingCost: q.ShippingCost,
		Discount:     q.Discount,
		Total:        q.Total,
	}
	if q.ShippingOption != nil {
		totals.ShippingOption = q.ShippingOption.String()
	}
	if q.CouponCode != nil {
		totals.CouponCode = *q.CouponCode
	}
	return totals
}

// BuildInput is what an order is assembled from.
type BuildInput struct {
	Reference     string
	PaymentMethod enums.PaymentMethod
	UserID        *uuid.UUID
	Address       types.Address
	Totals        types.CheckoutTotals
	Now           time.Time
}

// Build assembles a pending order with fresh ids. Nothing is persisted.
func Build(in BuildInput) *models.Order {
	now := in.Now.UTC()
	order := &models.Order{
		ID:               uuid.New(),
		UserID:           in.UserID,
		PaymentReference: strings.TrimSpace(in.Reference),
		PaymentMethod:    in.PaymentMethod,
		Address:          in.Address,
		Subtotal:         in.Totals.Subtotal,
		ShippingCost:     in.Totals.ShippingCost,
		Discount:         in.Totals.Discount,
		Total:            in.Totals.Total,
		Status:           enums.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.Totals.ShippingOption != "" {
		opt := in.Totals.ShippingOption
		order.ShippingOption = &opt
	}
	if in.Totals.CouponCode != "" {
		code := in.Totals.CouponCode
		order.CouponCode = &code
	}
	order.Items = make([]models.OrderItem, 0, len(in.Totals.Lines))
	for _, line := range in.Totals.Lines {
		order.Items = append(order.Items, models.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			Title:       line.Title,
			ProductType: line.ProductType,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			CreatedAt:   now,
		})
	}
	return order
}

package coupons

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// CouponDTO is the admin view of a coupon.
type CouponDTO struct {
	ID                 uuid.UUID          `json:"id"`
	Code               string             `json:"code"`
	DiscountPercentage decimal.Decimal    `json:"discount_percentage"`
	MinimumAmount      decimal.Decimal    `json:"minimum_amount"`
	ProductType        string             `json:"product_type"`
	StartTime          time.Time          `json:"start_time"`
	EndTime            time.Time          `json:"end_time"`
	Status             enums.CouponStatus `json:"status"`
	CreatedAt          time.Time          `json:"created_at"`
}

// CreateCouponInput is the admin payload for new coupons.
type CreateCouponInput struct {
	Code               string          `json:"code" validate:"required,max=64"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	MinimumAmount      decimal.Decimal `json:"minimum_amount" validate:"money"`
	ProductType        string          `json:"product_type" validate:"required,max=100"`
	StartTime          time.Time       `json:"start_time" validate:"required"`
	EndTime            time.Time       `json:"end_time" validate:"required"`
	Status             string          `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

func toDTO(c models.Coupon) CouponDTO {
	return CouponDTO{
		ID:                 c.ID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		MinimumAmount:      c.MinimumAmount.Round(2),
		ProductType:        c.ProductType,
		StartTime:          c.StartTime,
		EndTime:            c.EndTime,
		Status:             c.Status,
		CreatedAt:          c.CreatedAt,
	}
}

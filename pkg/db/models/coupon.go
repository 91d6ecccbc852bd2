package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/enums"
)

// Coupon is a percentage discount scoped to one product type and gated by a
// minimum subtotal and a validity window.
type Coupon struct {
	ID                 uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string             `gorm:"column:code;not null;uniqueIndex"`
	DiscountPercentage decimal.Decimal    `gorm:"column:discount_percentage;type:numeric(5,2);not null"`
	MinimumAmount      decimal.Decimal    `gorm:"column:minimum_amount;type:numeric(12,2);not null;default:0"`
	ProductType        string             `gorm:"column:product_type;not null"`
	StartTime          time.Time          `gorm:"column:start_time;not null"`
	EndTime            time.Time          `gorm:"column:end_time;not null"`
	Status             enums.CouponStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt          time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

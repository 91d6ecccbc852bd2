package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettingsSingletonID is the primary key of the only settings row.
const SettingsSingletonID = 1

// Settings holds storefront-wide values read at checkout.
type Settings struct {
	ID                    int             `gorm:"column:id;primaryKey"`
	FreeShippingThreshold decimal.Decimal `gorm:"column:free_shipping_threshold;type:numeric(12,2);not null"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Settings) TableName() string {
	return "settings"
}

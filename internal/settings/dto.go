package settings

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
)

// SettingsDTO is the public view of the settings singleton.
type SettingsDTO struct {
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

// UpdateInput carries admin changes.
type UpdateInput struct {
	FreeShippingThreshold decimal.Decimal
}

func toDTO(row *models.Settings) *SettingsDTO {
	return &SettingsDTO{
		FreeShippingThreshold: row.FreeShippingThreshold.Round(2),
		UpdatedAt:             row.UpdatedAt,
	}
}

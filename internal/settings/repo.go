package settings

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront-labs/storefront-backend/internal/repo"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
)

// Repository persists the settings singleton.
type Repository struct {
	repo.Base
}

// NewRepository binds the repository to a GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// GetOrCreate returns the singleton row, inserting it with defaultThreshold when absent.
// Concurrent first reads race on the primary key; the loser's insert is a no-op.
func (r *Repository) GetOrCreate(ctx context.Context, defaultThreshold decimal.Decimal) (*models.Settings, error) {
	seed := models.Settings{ID: models.SettingsSingletonID, FreeShippingThreshold: defaultThreshold}
	if err := r.DB(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}

	var row models.Settings
	if err := r.DB(ctx).First(&row, "id = ?", models.SettingsSingletonID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateThreshold overwrites the free-shipping threshold on the singleton row.
func (r *Repository) UpdateThreshold(ctx context.Context, threshold decimal.Decimal) error {
	return r.DB(ctx).Model(&models.Settings{}).
		Where("id = ?", models.SettingsSingletonID).
		Updates(map[string]any{
			"free_shipping_threshold": threshold,
			"updated_at":              time.Now().UTC(),
		}).Error
}

package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
)

type repository interface {
	GetOrCreate(ctx context.Context, defaultThreshold decimal.Decimal) (*models.Settings, error)
	UpdateThreshold(ctx context.Context, threshold decimal.Decimal) error
}

// Service reads and updates storefront settings.
type Service interface {
	Get(ctx context.Context) (*SettingsDTO, error)
	FreeShippingThreshold(ctx context.Context) (decimal.Decimal, error)
	Update(ctx context.Context, input UpdateInput) (*SettingsDTO, error)
}

type service struct {
	repo             repository
	defaultThreshold decimal.Decimal
}

// NewService wires the settings service. defaultThreshold seeds the row on first read.
func NewService(repo repository, defaultThreshold decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if defaultThreshold.IsNegative() {
		return nil, fmt.Errorf("default free shipping threshold must not be negative")
	}
	return &service{repo: repo, defaultThreshold: defaultThreshold}, nil
}

func (s *service) Get(ctx context.Context) (*SettingsDTO, error) {
	row, err := s.repo.GetOrCreate(ctx, s.defaultThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	return toDTO(row), nil
}

func (s *service) FreeShippingThreshold(ctx context.Context) (decimal.Decimal, error) {
	dto, err := s.Get(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return dto.FreeShippingThreshold, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*SettingsDTO, error) {
	if input.FreeShippingThreshold.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "free shipping threshold must not be negative")
	}
	// ensure the row exists before updating it
	if _, err := s.repo.GetOrCreate(ctx, s.defaultThreshold); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load settings")
	}
	if err := s.repo.UpdateThreshold(ctx, input.FreeShippingThreshold.Round(2)); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update settings")
	}
	return s.Get(ctx)
}

package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/db/models"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	pkgerrors "github.com/storefront-labs/storefront-backend/pkg/errors"
	"github.com/storefront-labs/storefront-backend/pkg/pagination"
)

type repository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	List(ctx context.Context, params pagination.Params) ([]models.Coupon, error)
}

// Service manages coupons. Checkout only reads them.
type Service interface {
	Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[CouponDTO], error)
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

type service struct {
	repo repository
	now  func() time.Time
}

// NewService wires the coupon service.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupons repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

var hundred = decimal.NewFromInt(100)

func (s *service) Create(ctx context.Context, input CreateCouponInput) (*CouponDTO, error) {
	code := strings.TrimSpace(input.Code)
	productType := strings.TrimSpace(input.ProductType)
	switch {
	case code == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	case productType == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_type is required")
	case !input.DiscountPercentage.IsPositive() || input.DiscountPercentage.GreaterThan(hundred):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be between 0 and 100")
	case input.MinimumAmount.IsNegative():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum_amount must not be negative")
	case !input.EndTime.After(input.StartTime):
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end_time must be after start_time")
	}

	status := enums.CouponStatusActive
	if input.Status != "" {
		parsed, err := enums.ParseCouponStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		status = parsed
	}

	now := s.now().UTC()
	coupon := &models.Coupon{
		ID:                 uuid.New(),
		Code:               code,
		DiscountPercentage: input.DiscountPercentage,
		MinimumAmount:      input.MinimumAmount.Round(2),
		ProductType:        productType,
		StartTime:          input.StartTime.UTC(),
		EndTime:            input.EndTime.UTC(),
		Status:             status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if db.IsUniqueViolation(err, "ux_coupons_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	dto := toDTO(*coupon)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[CouponDTO], error) {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	dtos := make([]CouponDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, toDTO(row))
	}
	page := pagination.Trim(dtos, params.Limit, func(c CouponDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	return &page, nil
}

func (s *service) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

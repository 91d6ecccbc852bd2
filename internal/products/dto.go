package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-labs/storefront-backend/pkg/db/models"
)

// ProductDTO is the public catalog view.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	ProductType string          `json:"product_type"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateProductInput is the admin payload for new catalog entries.
type CreateProductInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	ProductType string          `json:"product_type" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"money"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

func toDTO(p models.Product) ProductDTO {
	return ProductDTO{
		ID:          p.ID,
		Title:       p.Title,
		ProductType: p.ProductType,
		Price:       p.Price.Round(2),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

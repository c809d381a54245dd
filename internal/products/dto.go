package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

// Actor identifies who is editing the catalog.
type Actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

// CreateProductRequest adds a catalog entry.
type CreateProductRequest struct {
	SKU         string           `json:"sku" validate:"required,max=64"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Unit        string           `json:"unit,omitempty" validate:"omitempty,max=32"`
	DefaultCost *decimal.Decimal `json:"default_cost,omitempty"`
}

// UpdateProductRequest edits a catalog entry. Version must match the stored
// row or the update is rejected as a conflict.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Unit        *string          `json:"unit,omitempty" validate:"omitempty,max=32"`
	DefaultCost *decimal.Decimal `json:"default_cost,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	Version     int              `json:"version" validate:"required,gt=0"`
}

// ListQuery filters a product listing.
type ListQuery struct {
	ActiveOnly bool
	Page       pagination.Params
}

// ListPage is one page of products.
type ListPage struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

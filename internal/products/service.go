package products

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/logger"
)

// Service implements catalog management.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Create adds a product to the tenant's catalog.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateProductRequest) (*models.Product, error) {
	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}
	cost := decimal.Zero
	if req.DefaultCost != nil {
		cost = *req.DefaultCost
	}
	product := models.Product{
		ID:          uuid.New(),
		TenantID:    actor.TenantID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Unit:        unit,
		DefaultCost: cost,
		IsActive:    true,
		Version:     1,
	}
	if err := s.repo.Create(ctx, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update edits a product under optimistic concurrency. The caller must send
// the version it read; a stale version is rejected as a conflict.
func (s *Service) Update(ctx context.Context, actor Actor, productID uuid.UUID, req UpdateProductRequest) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, actor.TenantID, productID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Unit != nil {
		product.Unit = *req.Unit
	}
	if req.DefaultCost != nil {
		product.DefaultCost = *req.DefaultCost
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	if err := s.repo.UpdateVersioned(ctx, product, req.Version); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now().UTC()
	return product, nil
}

// Deactivate retires a product from the catalog without deleting it; lots and
// ledger history keep referencing it.
func (s *Service) Deactivate(ctx context.Context, actor Actor, productID uuid.UUID, version int) (*models.Product, error) {
	inactive := false
	return s.Update(ctx, actor, productID, UpdateProductRequest{IsActive: &inactive, Version: version})
}

// Get loads one product.
func (s *Service) Get(ctx context.Context, actor Actor, productID uuid.UUID) (*models.Product, error) {
	return s.repo.FindByID(ctx, actor.TenantID, productID)
}

// List returns a page of the tenant's catalog.
func (s *Service) List(ctx context.Context, actor Actor, q ListQuery) (*ListPage, error) {
	return s.repo.List(ctx, actor.TenantID, q)
}

// Package branches manages a tenant's warehouse and retail locations.
package branches

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/mercatura-tech/stockflow-backend/pkg/db"
	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
)

// Actor identifies who is editing branches.
type Actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

// CreateBranchRequest adds a location.
type CreateBranchRequest struct {
	Code    string  `json:"code" validate:"required,max=32"`
	Name    string  `json:"name" validate:"required,max=255"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// UpdateBranchRequest edits a location.
type UpdateBranchRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Service implements branch management.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create adds a branch. Codes are unique within a tenant.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateBranchRequest) (*models.Branch, error) {
	branch := models.Branch{
		ID:       uuid.New(),
		TenantID: actor.TenantID,
		Code:     req.Code,
		Name:     req.Name,
		Address:  req.Address,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(&branch).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_branches_tenant_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "branch code already exists")
		}
		return nil, fmt.Errorf("creating branch: %w", err)
	}
	return &branch, nil
}

// Get loads one branch scoped to the tenant.
func (s *Service) Get(ctx context.Context, actor Actor, branchID uuid.UUID) (*models.Branch, error) {
	var branch models.Branch
	err := s.db.WithContext(ctx).First(&branch, "id = ? AND tenant_id = ?", branchID, actor.TenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading branch: %w", err)
	}
	return &branch, nil
}

// Update edits a branch.
func (s *Service) Update(ctx context.Context, actor Actor, branchID uuid.UUID, req UpdateBranchRequest) (*models.Branch, error) {
	branch, err := s.Get(ctx, actor, branchID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		branch.Name = *req.Name
	}
	if req.Address != nil {
		branch.Address = req.Address
	}
	if req.IsActive != nil {
		branch.IsActive = *req.IsActive
	}
	if err := s.db.WithContext(ctx).Save(branch).Error; err != nil {
		return nil, fmt.Errorf("saving branch: %w", err)
	}
	return branch, nil
}

// List returns the tenant's branches ordered by code.
func (s *Service) List(ctx context.Context, actor Actor) ([]models.Branch, error) {
	var rows []models.Branch
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", actor.TenantID).
		Order("code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}
	return rows, nil
}

package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/mercatura-tech/stockflow-backend/pkg/db"
	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

// Repository persists catalog products.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a product. Duplicate SKUs within a tenant conflict.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_products_tenant_sku") {
			return pkgerrors.New(pkgerrors.CodeConflict, "sku already exists")
		}
		return fmt.Errorf("creating product: %w", err)
	}
	return nil
}

// FindByID loads a product scoped to the tenant.
func (r *Repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading product: %w", err)
	}
	return &product, nil
}

// UpdateVersioned writes the product only if the stored version still matches
// expectedVersion, bumping the version on success. A miss means a concurrent
// edit won.
func (r *Repository) UpdateVersioned(ctx context.Context, product *models.Product, expectedVersion int) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ? AND version = ?", product.ID, product.TenantID, expectedVersion).
		Updates(map[string]any{
			"name":         product.Name,
			"description":  product.Description,
			"unit":         product.Unit,
			"default_cost": product.DefaultCost,
			"is_active":    product.IsActive,
			"version":      expectedVersion + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("updating product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "product was modified concurrently")
	}
	product.Version = expectedVersion + 1
	return nil
}

// List returns a cursor page of the tenant's products, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, q ListQuery) (*ListPage, error) {
	cursor, err := pagination.Parse(q.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(q.Page.Limit)

	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if q.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.Product
	err = query.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Page.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	page := &ListPage{Products: rows}
	if len(rows) > limit {
		page.Products = rows[:limit]
		last := page.Products[limit-1]
		page.NextCursor = pagination.NextToken(true, last.CreatedAt, last.ID)
	}
	return page, nil
}

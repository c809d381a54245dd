package transfers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

// Repository persists transfers and their items.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a transfer with its items.
func (r *Repository) Create(ctx context.Context, transfer *models.Transfer) error {
	if err := r.db.WithContext(ctx).Create(transfer).Error; err != nil {
		return fmt.Errorf("creating transfer: %w", err)
	}
	return nil
}

// FindByID loads a transfer with items, scoped to the tenant. Takes a row
// lock on Postgres so concurrent transitions serialize.
func (r *Repository) FindByID(ctx context.Context, tenantID, id uuid.UUID, forUpdate bool) (*models.Transfer, error) {
	q := r.db.WithContext(ctx).Preload("Items")
	if forUpdate && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var transfer models.Transfer
	err := q.First(&transfer, "id = ? AND tenant_id = ?", id, tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transfer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading transfer: %w", err)
	}
	return &transfer, nil
}

// Save writes transfer header changes. Items are persisted separately via
// SaveItem so a header save never clobbers batch history.
func (r *Repository) Save(ctx context.Context, transfer *models.Transfer) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(transfer).Error; err != nil {
		return fmt.Errorf("saving transfer: %w", err)
	}
	return nil
}

// SaveItem writes item changes, including its shipment batch JSON.
func (r *Repository) SaveItem(ctx context.Context, item *models.TransferItem) error {
	if err := r.db.WithContext(ctx).Save(item).Error; err != nil {
		return fmt.Errorf("saving transfer item: %w", err)
	}
	return nil
}

// List returns a cursor page of the tenant's transfers, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, q ListQuery) (*ListPage, error) {
	cursor, err := pagination.Parse(q.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(q.Page.Limit)

	query := r.db.WithContext(ctx).Preload("Items").Where("tenant_id = ?", tenantID)
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.BranchID != nil {
		query = query.Where("source_branch_id = ? OR destination_branch_id = ?", *q.BranchID, *q.BranchID)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.Transfer
	err = query.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Page.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}

	page := &ListPage{Transfers: rows}
	if len(rows) > limit {
		page.Transfers = rows[:limit]
		last := page.Transfers[limit-1]
		page.NextCursor = pagination.NextToken(true, last.CreatedAt, last.ID)
	}
	return page, nil
}

// BranchExists checks a branch belongs to the tenant.
func (r *Repository) BranchExists(ctx context.Context, tenantID, branchID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("id = ? AND tenant_id = ?", branchID, tenantID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking branch: %w", err)
	}
	return count > 0, nil
}

// ProductExists checks a product belongs to the tenant.
func (r *Repository) ProductExists(ctx context.Context, tenantID, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking product: %w", err)
	}
	return count > 0, nil
}

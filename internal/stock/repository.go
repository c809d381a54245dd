package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

// Repository covers the read side of stock data plus scope checks used by the
// write path.
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

// EnsureScope verifies the branch and product exist inside the tenant.
// Cross-tenant references surface as not-found.
func (r *Repository) EnsureScope(ctx context.Context, tenantID, branchID, productID uuid.UUID) error {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Branch{}).
		Where("id = ? AND tenant_id = ?", branchID, tenantID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("checking branch: %w", err)
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
	}

	err = r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND tenant_id = ?", productID, tenantID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("checking product: %w", err)
	}
	if count == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

// GetProductStock loads the cached aggregate row, returning a zero-quantity
// row when the scope has never held stock.
func (r *Repository) GetProductStock(ctx context.Context, tenantID, branchID, productID uuid.UUID) (*models.BranchStock, error) {
	var row models.BranchStock
	err := r.db.WithContext(ctx).
		First(&row, "tenant_id = ? AND branch_id = ? AND product_id = ?", tenantID, branchID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.BranchStock{TenantID: tenantID, BranchID: branchID, ProductID: productID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading branch stock: %w", err)
	}
	return &row, nil
}

// ListBranchStock lists every cached aggregate for one branch.
func (r *Repository) ListBranchStock(ctx context.Context, tenantID, branchID uuid.UUID) ([]models.BranchStock, error) {
	var rows []models.BranchStock
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ?", tenantID, branchID).
		Order("product_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing branch stock: %w", err)
	}
	return rows, nil
}

// ListLots returns lots for a scope in FIFO order.
func (r *Repository) ListLots(ctx context.Context, tenantID uuid.UUID, q LotsQuery) ([]models.StockLot, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ? AND product_id = ?", tenantID, q.BranchID, q.ProductID)
	if q.OpenOnly {
		query = query.Where("qty_remaining > 0")
	}
	var rows []models.StockLot
	if err := query.Order("received_at ASC").Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}
	return rows, nil
}

// ListLedger returns a cursor page of ledger entries for a scope, newest
// first.
func (r *Repository) ListLedger(ctx context.Context, tenantID uuid.UUID, q LedgerQuery) (*LedgerPage, error) {
	cursor, err := pagination.Parse(q.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(q.Page.Limit)

	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND branch_id = ? AND product_id = ?", tenantID, q.BranchID, q.ProductID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.Timestamp, cursor.Timestamp, cursor.ID,
		)
	}

	var rows []models.StockLedgerEntry
	err = query.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(q.Page.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("listing ledger: %w", err)
	}

	page := &LedgerPage{Entries: rows}
	if len(rows) > limit {
		page.Entries = rows[:limit]
		last := page.Entries[limit-1]
		page.NextCursor = pagination.NextToken(true, last.CreatedAt, last.ID)
	}
	return page, nil
}

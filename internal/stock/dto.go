package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

// ReceiveStockRequest is the decoded body for receiveStock calls. Tenant and
// actor come from the auth context, never from the body.
type ReceiveStockRequest struct {
	BranchID   uuid.UUID       `json:"branch_id" validate:"required"`
	ProductID  uuid.UUID       `json:"product_id" validate:"required"`
	Qty        int             `json:"qty" validate:"required,gt=0"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	SourceRef  *string         `json:"source_ref,omitempty" validate:"omitempty,max=255"`
	Reason     *string         `json:"reason,omitempty" validate:"omitempty,max=500"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"`
}

// ConsumeStockRequest is the decoded body for consumeStock calls.
type ConsumeStockRequest struct {
	BranchID   uuid.UUID  `json:"branch_id" validate:"required"`
	ProductID  uuid.UUID  `json:"product_id" validate:"required"`
	Qty        int        `json:"qty" validate:"required,gt=0"`
	Reason     *string    `json:"reason,omitempty" validate:"omitempty,max=500"`
	OccurredAt *time.Time `json:"occurred_at,omitempty"`
}

// AdjustStockRequest is the decoded body for adjustStock calls. A positive
// delta requires a unit cost; a negative delta depletes FIFO.
type AdjustStockRequest struct {
	BranchID   uuid.UUID        `json:"branch_id" validate:"required"`
	ProductID  uuid.UUID        `json:"product_id" validate:"required"`
	QtyDelta   int              `json:"qty_delta" validate:"required"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason     *string          `json:"reason,omitempty" validate:"omitempty,max=500"`
	OccurredAt *time.Time       `json:"occurred_at,omitempty"`
}

// Actor identifies who is performing a stock mutation.
type Actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

// MovementResult is the uniform response shape for stock mutations. Lot is
// set for lot-creating operations, Affected for lot-depleting ones.
type MovementResult struct {
	Lot           *models.StockLot          `json:"lot,omitempty"`
	Affected      []models.LotConsumption   `json:"affected,omitempty"`
	LedgerEntries []models.StockLedgerEntry `json:"ledger_entries"`
	ProductStock  models.BranchStock        `json:"product_stock"`
}

// LedgerQuery filters a ledger listing.
type LedgerQuery struct {
	BranchID  uuid.UUID
	ProductID uuid.UUID
	Page      pagination.Params
}

// LedgerPage is one page of ledger entries.
type LedgerPage struct {
	Entries    []models.StockLedgerEntry `json:"entries"`
	NextCursor string                    `json:"next_cursor,omitempty"`
}

// LotsQuery filters a lot listing.
type LotsQuery struct {
	BranchID  uuid.UUID
	ProductID uuid.UUID
	OpenOnly  bool
}

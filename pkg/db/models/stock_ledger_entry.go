package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
)

// StockLedgerEntry records one quantity change against one lot. The ledger is
// append-only: rows are never updated or deleted, and an operation spanning N
// lots writes N entries.
type StockLedgerEntry struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID             `gorm:"column:tenant_id;type:uuid;not null;index:idx_ledger_scope" json:"tenant_id"`
	BranchID    uuid.UUID             `gorm:"column:branch_id;type:uuid;not null;index:idx_ledger_scope" json:"branch_id"`
	ProductID   uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index:idx_ledger_scope" json:"product_id"`
	LotID       uuid.UUID             `gorm:"column:lot_id;type:uuid;not null;index" json:"lot_id"`
	Kind        enums.LedgerEntryKind `gorm:"column:kind;type:ledger_entry_kind_enum;not null" json:"kind"`
	QtyDelta    int                   `gorm:"column:qty_delta;not null" json:"qty_delta"`
	Reason      *string               `gorm:"column:reason" json:"reason,omitempty"`
	ActorUserID uuid.UUID             `gorm:"column:actor_user_id;type:uuid;not null" json:"actor_user_id"`
	OccurredAt  time.Time             `gorm:"column:occurred_at;not null" json:"occurred_at"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

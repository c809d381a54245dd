package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLot is a batch of stock received at a point in time with one unit
// cost. Lots are depleted FIFO and never deleted; qty_remaining is the only
// mutable quantity field. The monotonic seq column fixes FIFO ordering when
// two lots share the same received_at.
type StockLot struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Seq          int64           `gorm:"column:seq;autoIncrement;uniqueIndex" json:"-"`
	TenantID     uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index:idx_stock_lots_scope" json:"tenant_id"`
	BranchID     uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;index:idx_stock_lots_scope" json:"branch_id"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index:idx_stock_lots_scope" json:"product_id"`
	QtyReceived  int             `gorm:"column:qty_received;not null" json:"qty_received"`
	QtyRemaining int             `gorm:"column:qty_remaining;not null" json:"qty_remaining"`
	UnitCost     decimal.Decimal `gorm:"column:unit_cost;type:numeric(14,4);not null" json:"unit_cost"`
	SourceRef    *string         `gorm:"column:source_ref" json:"source_ref,omitempty"`
	ReceivedAt   time.Time       `gorm:"column:received_at;not null" json:"received_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

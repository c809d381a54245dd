package models

import (
	"time"

	"github.com/google/uuid"
)

// BranchStock caches on-hand/allocated quantities per (tenant, branch,
// product). It is recomputed transactionally alongside every lot mutation and
// must always equal the sum of qty_remaining over the scope's lots; the lots
// are the source of truth.
type BranchStock struct {
	TenantID     uuid.UUID `gorm:"column:tenant_id;type:uuid;primaryKey" json:"tenant_id"`
	BranchID     uuid.UUID `gorm:"column:branch_id;type:uuid;primaryKey" json:"branch_id"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey" json:"product_id"`
	QtyOnHand    int       `gorm:"column:qty_on_hand;not null;default:0" json:"qty_on_hand"`
	QtyAllocated int       `gorm:"column:qty_allocated;not null;default:0" json:"qty_allocated"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

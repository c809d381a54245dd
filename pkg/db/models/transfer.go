package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
)

// Transfer moves stock between two branches of one tenant. A reversal is a
// new Transfer row linked bidirectionally to the original; shipped/received
// history on the original is never mutated.
type Transfer struct {
	ID                    uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TenantID              uuid.UUID              `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	SourceBranchID        uuid.UUID              `gorm:"column:source_branch_id;type:uuid;not null" json:"source_branch_id"`
	DestinationBranchID   uuid.UUID              `gorm:"column:destination_branch_id;type:uuid;not null" json:"destination_branch_id"`
	Status                enums.TransferStatus   `gorm:"column:status;type:transfer_status_enum;not null" json:"status"`
	Priority              enums.TransferPriority `gorm:"column:priority;type:transfer_priority_enum;not null;default:NORMAL" json:"priority"`
	IsReversal            bool                   `gorm:"column:is_reversal;not null;default:false" json:"is_reversal"`
	ReversalOfID          *uuid.UUID             `gorm:"column:reversal_of_id;type:uuid" json:"reversal_of_id,omitempty"`
	ReversedByTransferID  *uuid.UUID             `gorm:"column:reversed_by_transfer_id;type:uuid" json:"reversed_by_transfer_id,omitempty"`
	Reason                *string                `gorm:"column:reason" json:"reason,omitempty"`
	RequestedByUserID     uuid.UUID              `gorm:"column:requested_by_user_id;type:uuid;not null" json:"requested_by_user_id"`
	ReviewedByUserID      *uuid.UUID             `gorm:"column:reviewed_by_user_id;type:uuid" json:"reviewed_by_user_id,omitempty"`
	RequestedAt           time.Time              `gorm:"column:requested_at;not null" json:"requested_at"`
	ReviewedAt            *time.Time             `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	ShippedAt             *time.Time             `gorm:"column:shipped_at" json:"shipped_at,omitempty"`
	CompletedAt           *time.Time             `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items []TransferItem `gorm:"foreignKey:TransferID" json:"items,omitempty"`
}

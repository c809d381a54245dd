package transfers

import (
	"github.com/google/uuid"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

// Actor identifies who is driving a transfer transition.
type Actor struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

// CreateTransferItemRequest is one product line on a new transfer.
type CreateTransferItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Qty       int       `json:"qty" validate:"required,gt=0"`
}

// CreateTransferRequest opens a transfer in REQUESTED state.
type CreateTransferRequest struct {
	SourceBranchID      uuid.UUID                   `json:"source_branch_id" validate:"required"`
	DestinationBranchID uuid.UUID                   `json:"destination_branch_id" validate:"required"`
	Priority            string                      `json:"priority,omitempty"`
	Reason              *string                     `json:"reason,omitempty" validate:"omitempty,max=500"`
	Items               []CreateTransferItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ReviewItemDecision sets the approved quantity for one item. Zero means "do
// not ship this item".
type ReviewItemDecision struct {
	ItemID      uuid.UUID `json:"item_id" validate:"required"`
	QtyApproved int       `json:"qty_approved" validate:"gte=0"`
}

// ReviewTransferRequest approves or rejects a REQUESTED transfer.
type ReviewTransferRequest struct {
	Approve bool                 `json:"approve"`
	Items   []ReviewItemDecision `json:"items,omitempty" validate:"omitempty,dive"`
	Reason  *string              `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ShipItemRequest ships part or all of one item's approved quantity.
type ShipItemRequest struct {
	ItemID    uuid.UUID `json:"item_id" validate:"required"`
	QtyToShip int       `json:"qty_to_ship" validate:"required,gt=0"`
}

// ShipTransferRequest records one shipment batch across one or more items.
type ShipTransferRequest struct {
	Items []ShipItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ReceiveItemRequest books arrived quantity against one item.
type ReceiveItemRequest struct {
	ItemID      uuid.UUID `json:"item_id" validate:"required"`
	QtyReceived int       `json:"qty_received" validate:"required,gt=0"`
}

// ReceiveTransferRequest books one arrival, possibly partial.
type ReceiveTransferRequest struct {
	Items []ReceiveItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CancelTransferRequest cancels a REQUESTED transfer.
type CancelTransferRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// ReverseTransferRequest synthesizes a compensating transfer.
type ReverseTransferRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// UpdatePriorityRequest reprioritizes an open transfer.
type UpdatePriorityRequest struct {
	Priority string `json:"priority" validate:"required"`
}

// ListQuery filters a transfer listing.
type ListQuery struct {
	Status   *enums.TransferStatus
	BranchID *uuid.UUID
	Page     pagination.Params
}

// ListPage is one page of transfers.
type ListPage struct {
	Transfers  []models.Transfer `json:"transfers"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

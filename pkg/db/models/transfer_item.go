package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LotConsumption records how much a single shipment batch drew from one lot.
// Replaying these rows exactly is what makes lot-level reversal possible.
type LotConsumption struct {
	LotID    uuid.UUID       `json:"lot_id"`
	Qty      int             `json:"qty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// ShipmentBatch is one partial-shipment event within a transfer item.
type ShipmentBatch struct {
	BatchNumber     int              `json:"batch_number"`
	Qty             int              `json:"qty"`
	ShippedAt       time.Time        `json:"shipped_at"`
	ShippedByUserID uuid.UUID        `json:"shipped_by_user_id"`
	LotsConsumed    []LotConsumption `json:"lots_consumed"`
}

// ShipmentBatchList is stored as a typed JSONB column on transfer_items.
type ShipmentBatchList []ShipmentBatch

// TotalQty sums the quantity across all batches.
func (l ShipmentBatchList) TotalQty() int {
	total := 0
	for _, batch := range l {
		total += batch.Qty
	}
	return total
}

// WeightedAverageCost returns the quantity-weighted mean unit cost over every
// lot the batches consumed. Zero when nothing has shipped.
func (l ShipmentBatchList) WeightedAverageCost() decimal.Decimal {
	totalQty := decimal.Zero
	totalCost := decimal.Zero
	for _, batch := range l {
		for _, lot := range batch.LotsConsumed {
			qty := decimal.NewFromInt(int64(lot.Qty))
			totalQty = totalQty.Add(qty)
			totalCost = totalCost.Add(lot.UnitCost.Mul(qty))
		}
	}
	if totalQty.IsZero() {
		return decimal.Zero
	}
	return totalCost.Div(totalQty).Round(4)
}

// TransferItem is one product line on a transfer. qty_shipped always equals
// the sum of batch quantities in shipment_batches.
type TransferItem struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	TransferID      uuid.UUID         `gorm:"column:transfer_id;type:uuid;not null;index" json:"transfer_id"`
	ProductID       uuid.UUID         `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	QtyRequested    int               `gorm:"column:qty_requested;not null" json:"qty_requested"`
	QtyApproved     int               `gorm:"column:qty_approved;not null;default:0" json:"qty_approved"`
	QtyShipped      int               `gorm:"column:qty_shipped;not null;default:0" json:"qty_shipped"`
	QtyReceived     int               `gorm:"column:qty_received;not null;default:0" json:"qty_received"`
	ShipmentBatches ShipmentBatchList `gorm:"column:shipment_batches;type:jsonb;serializer:json" json:"shipment_batches"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// Package allocation implements the FIFO lot engine. Every function operates
// inside a caller-supplied transaction so multi-step operations (transfer
// ships, reversals) stay atomic across branches.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
)

// Scope pins an operation to one (tenant, branch, product). Every query in
// this package filters on the full scope; nothing reads across tenants.
type Scope struct {
	TenantID  uuid.UUID
	BranchID  uuid.UUID
	ProductID uuid.UUID
}

func (s Scope) validate() error {
	if s.TenantID == uuid.Nil || s.BranchID == uuid.Nil || s.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant, branch, and product are required")
	}
	return nil
}

// ReceiveInput describes a new lot entering a branch.
type ReceiveInput struct {
	Scope       Scope
	Qty         int
	UnitCost    decimal.Decimal
	SourceRef   *string
	Reason      *string
	ActorUserID uuid.UUID
	OccurredAt  time.Time
	Kind        enums.LedgerEntryKind
}

// ConsumeInput describes a FIFO drawdown against a branch's lots.
type ConsumeInput struct {
	Scope       Scope
	Qty         int
	Reason      *string
	ActorUserID uuid.UUID
	OccurredAt  time.Time
	Kind        enums.LedgerEntryKind
}

// RestoreInput puts quantity back onto the exact lots named in Lots. Used by
// transfer reversal only; receivedAt and unitCost on the lots are untouched.
type RestoreInput struct {
	Scope       Scope
	Lots        []models.LotConsumption
	Reason      *string
	ActorUserID uuid.UUID
	OccurredAt  time.Time
}

// ReceiveLot creates one lot, one ledger entry, and bumps the aggregate, all
// on the caller's transaction.
func ReceiveLot(ctx context.Context, tx *gorm.DB, in ReceiveInput) (*models.StockLot, *models.StockLedgerEntry, error) {
	if tx == nil {
		return nil, nil, errors.New("transaction required")
	}
	if err := in.Scope.validate(); err != nil {
		return nil, nil, err
	}
	if in.Qty <= 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if in.UnitCost.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "unit cost cannot be negative")
	}
	if in.Kind != enums.LedgerEntryKindReceipt && in.Kind != enums.LedgerEntryKindAdjustment && in.Kind != enums.LedgerEntryKindReversal {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("kind %s cannot create a lot", in.Kind))
	}
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	lot := models.StockLot{
		ID:           uuid.New(),
		TenantID:     in.Scope.TenantID,
		BranchID:     in.Scope.BranchID,
		ProductID:    in.Scope.ProductID,
		QtyReceived:  in.Qty,
		QtyRemaining: in.Qty,
		UnitCost:     in.UnitCost,
		SourceRef:    in.SourceRef,
		ReceivedAt:   occurredAt,
	}
	if err := tx.WithContext(ctx).Create(&lot).Error; err != nil {
		return nil, nil, fmt.Errorf("creating lot: %w", err)
	}

	entry := models.StockLedgerEntry{
		ID:          uuid.New(),
		TenantID:    in.Scope.TenantID,
		BranchID:    in.Scope.BranchID,
		ProductID:   in.Scope.ProductID,
		LotID:       lot.ID,
		Kind:        in.Kind,
		QtyDelta:    in.Qty,
		Reason:      in.Reason,
		ActorUserID: in.ActorUserID,
		OccurredAt:  occurredAt,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, nil, fmt.Errorf("creating ledger entry: %w", err)
	}

	if err := bumpAggregate(ctx, tx, in.Scope, in.Qty); err != nil {
		return nil, nil, err
	}
	return &lot, &entry, nil
}

// ConsumeFIFO deducts qty from the scope's open lots, oldest receivedAt first,
// ties broken by insertion order. When the open lots cannot cover qty the call
// fails with a conflict and writes nothing. Returns the per-lot drawdown so
// callers that need traceability (transfer shipping) can retain it.
func ConsumeFIFO(ctx context.Context, tx *gorm.DB, in ConsumeInput) ([]models.LotConsumption, []models.StockLedgerEntry, error) {
	if tx == nil {
		return nil, nil, errors.New("transaction required")
	}
	if err := in.Scope.validate(); err != nil {
		return nil, nil, err
	}
	if in.Qty <= 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if in.Kind != enums.LedgerEntryKindConsumption && in.Kind != enums.LedgerEntryKindAdjustment && in.Kind != enums.LedgerEntryKindReversal {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("kind %s cannot consume a lot", in.Kind))
	}
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var lots []models.StockLot
	if err := scopedLots(ctx, tx, in.Scope).
		Where("qty_remaining > 0").
		Order("received_at ASC").
		Order("seq ASC").
		Find(&lots).Error; err != nil {
		return nil, nil, fmt.Errorf("loading lots: %w", err)
	}

	available := 0
	for _, lot := range lots {
		available += lot.QtyRemaining
	}
	if available < in.Qty {
		return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
			WithDetails(map[string]any{"requested": in.Qty, "available": available})
	}

	remaining := in.Qty
	consumed := make([]models.LotConsumption, 0, len(lots))
	entries := make([]models.StockLedgerEntry, 0, len(lots))
	for i := range lots {
		if remaining == 0 {
			break
		}
		lot := &lots[i]
		take := lot.QtyRemaining
		if take > remaining {
			take = remaining
		}
		if err := tx.WithContext(ctx).
			Model(&models.StockLot{}).
			Where("id = ?", lot.ID).
			Update("qty_remaining", gorm.Expr("qty_remaining - ?", take)).Error; err != nil {
			return nil, nil, fmt.Errorf("depleting lot %s: %w", lot.ID, err)
		}
		consumed = append(consumed, models.LotConsumption{
			LotID:    lot.ID,
			Qty:      take,
			UnitCost: lot.UnitCost,
		})
		entries = append(entries, models.StockLedgerEntry{
			ID:          uuid.New(),
			TenantID:    in.Scope.TenantID,
			BranchID:    in.Scope.BranchID,
			ProductID:   in.Scope.ProductID,
			LotID:       lot.ID,
			Kind:        in.Kind,
			QtyDelta:    -take,
			Reason:      in.Reason,
			ActorUserID: in.ActorUserID,
			OccurredAt:  occurredAt,
		})
		remaining -= take
	}

	if err := tx.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, nil, fmt.Errorf("creating ledger entries: %w", err)
	}
	if err := bumpAggregate(ctx, tx, in.Scope, -in.Qty); err != nil {
		return nil, nil, err
	}
	return consumed, entries, nil
}

// RestoreLots adds quantity back onto the exact lots a prior consumption drew
// from. The lot rows keep their original receivedAt and unitCost, which is
// what preserves FIFO age across a reversal.
func RestoreLots(ctx context.Context, tx *gorm.DB, in RestoreInput) ([]models.StockLedgerEntry, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if err := in.Scope.validate(); err != nil {
		return nil, err
	}
	if len(in.Lots) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no lots to restore")
	}
	occurredAt := in.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	total := 0
	entries := make([]models.StockLedgerEntry, 0, len(in.Lots))
	for _, restore := range in.Lots {
		if restore.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "restore quantity must be positive")
		}
		var lot models.StockLot
		if err := scopedLots(ctx, tx, in.Scope).
			Where("id = ?", restore.LotID).
			First(&lot).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("lot %s not found", restore.LotID))
			}
			return nil, fmt.Errorf("loading lot %s: %w", restore.LotID, err)
		}
		if lot.QtyRemaining+restore.Qty > lot.QtyReceived {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("restoring %d would exceed lot %s capacity", restore.Qty, restore.LotID))
		}
		if err := tx.WithContext(ctx).
			Model(&models.StockLot{}).
			Where("id = ?", lot.ID).
			Update("qty_remaining", gorm.Expr("qty_remaining + ?", restore.Qty)).Error; err != nil {
			return nil, fmt.Errorf("restoring lot %s: %w", lot.ID, err)
		}
		entries = append(entries, models.StockLedgerEntry{
			ID:          uuid.New(),
			TenantID:    in.Scope.TenantID,
			BranchID:    in.Scope.BranchID,
			ProductID:   in.Scope.ProductID,
			LotID:       lot.ID,
			Kind:        enums.LedgerEntryKindReversal,
			QtyDelta:    restore.Qty,
			Reason:      in.Reason,
			ActorUserID: in.ActorUserID,
			OccurredAt:  occurredAt,
		})
		total += restore.Qty
	}

	if err := tx.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, fmt.Errorf("creating ledger entries: %w", err)
	}
	if err := bumpAggregate(ctx, tx, in.Scope, total); err != nil {
		return nil, err
	}
	return entries, nil
}

// scopedLots builds the base lot query for a scope, taking row locks on
// Postgres so concurrent consumers serialize on the same lots.
func scopedLots(ctx context.Context, tx *gorm.DB, scope Scope) *gorm.DB {
	q := tx.WithContext(ctx).
		Model(&models.StockLot{}).
		Where("tenant_id = ? AND branch_id = ? AND product_id = ?", scope.TenantID, scope.BranchID, scope.ProductID)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

// bumpAggregate applies a signed delta to the cached on-hand quantity,
// creating the row on first touch.
func bumpAggregate(ctx context.Context, tx *gorm.DB, scope Scope, delta int) error {
	res := tx.WithContext(ctx).
		Model(&models.BranchStock{}).
		Where("tenant_id = ? AND branch_id = ? AND product_id = ?", scope.TenantID, scope.BranchID, scope.ProductID).
		Update("qty_on_hand", gorm.Expr("qty_on_hand + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("updating branch stock: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	if delta < 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
	}
	row := models.BranchStock{
		TenantID:  scope.TenantID,
		BranchID:  scope.BranchID,
		ProductID: scope.ProductID,
		QtyOnHand: delta,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("creating branch stock: %w", err)
	}
	return nil
}

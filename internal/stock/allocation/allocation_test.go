package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:allocation_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.StockLot{}, &models.StockLedgerEntry{}, &models.BranchStock{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newScope() Scope {
	return Scope{TenantID: uuid.New(), BranchID: uuid.New(), ProductID: uuid.New()}
}

func seedLot(t *testing.T, db *gorm.DB, scope Scope, seq int64, qty int, cost string, receivedAt time.Time) models.StockLot {
	t.Helper()
	lot := models.StockLot{
		ID:           uuid.New(),
		Seq:          seq,
		TenantID:     scope.TenantID,
		BranchID:     scope.BranchID,
		ProductID:    scope.ProductID,
		QtyReceived:  qty,
		QtyRemaining: qty,
		UnitCost:     decimal.RequireFromString(cost),
		ReceivedAt:   receivedAt,
	}
	if err := db.Create(&lot).Error; err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	if err := bumpAggregate(context.Background(), db, scope, qty); err != nil {
		t.Fatalf("seed aggregate: %v", err)
	}
	return lot
}

func loadAggregate(t *testing.T, db *gorm.DB, scope Scope) models.BranchStock {
	t.Helper()
	var row models.BranchStock
	err := db.First(&row, "tenant_id = ? AND branch_id = ? AND product_id = ?",
		scope.TenantID, scope.BranchID, scope.ProductID).Error
	if err != nil {
		t.Fatalf("load aggregate: %v", err)
	}
	return row
}

func sumRemaining(t *testing.T, db *gorm.DB, scope Scope) int {
	t.Helper()
	var lots []models.StockLot
	err := db.Find(&lots, "tenant_id = ? AND branch_id = ? AND product_id = ?",
		scope.TenantID, scope.BranchID, scope.ProductID).Error
	if err != nil {
		t.Fatalf("load lots: %v", err)
	}
	total := 0
	for _, lot := range lots {
		total += lot.QtyRemaining
	}
	return total
}

func TestReceiveLot(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()
	actor := uuid.New()

	var lot *models.StockLot
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		lot, _, terr = ReceiveLot(ctx, tx, ReceiveInput{
			Scope:       scope,
			Qty:         50,
			UnitCost:    decimal.RequireFromString("100"),
			ActorUserID: actor,
			Kind:        enums.LedgerEntryKindReceipt,
		})
		return terr
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if lot.QtyReceived != 50 || lot.QtyRemaining != 50 {
		t.Fatalf("unexpected lot state: %+v", lot)
	}

	agg := loadAggregate(t, db, scope)
	if agg.QtyOnHand != 50 {
		t.Fatalf("expected on-hand 50, got %d", agg.QtyOnHand)
	}

	var entries []models.StockLedgerEntry
	if err := db.Find(&entries, "lot_id = ?", lot.ID).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(entries))
	}
	if entries[0].Kind != enums.LedgerEntryKindReceipt || entries[0].QtyDelta != 50 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestReceiveLotRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()

	_, _, err := ReceiveLot(ctx, db, ReceiveInput{
		Scope: scope, Qty: 0, UnitCost: decimal.Zero,
		ActorUserID: uuid.New(), Kind: enums.LedgerEntryKindReceipt,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, _, err = ReceiveLot(ctx, db, ReceiveInput{
		Scope: scope, Qty: 5, UnitCost: decimal.RequireFromString("1"),
		ActorUserID: uuid.New(), Kind: enums.LedgerEntryKindConsumption,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for kind, got %v", err)
	}
}

func TestConsumeFIFOOrdersByAge(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	oldest := seedLot(t, db, scope, 1, 100, "100", base)
	middle := seedLot(t, db, scope, 2, 100, "200", base.Add(time.Hour))
	newest := seedLot(t, db, scope, 3, 100, "300", base.Add(2*time.Hour))

	var consumed []models.LotConsumption
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		consumed, _, terr = ConsumeFIFO(ctx, tx, ConsumeInput{
			Scope: scope, Qty: 150,
			ActorUserID: uuid.New(), Kind: enums.LedgerEntryKindConsumption,
		})
		return terr
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(consumed) != 2 {
		t.Fatalf("expected 2 lots consumed, got %d", len(consumed))
	}
	if consumed[0].LotID != oldest.ID || consumed[0].Qty != 100 {
		t.Fatalf("expected oldest lot fully drained first: %+v", consumed[0])
	}
	if consumed[1].LotID != middle.ID || consumed[1].Qty != 50 {
		t.Fatalf("expected middle lot partially drained: %+v", consumed[1])
	}
	if !consumed[0].UnitCost.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("unexpected unit cost: %s", consumed[0].UnitCost)
	}

	var untouched models.StockLot
	if err := db.First(&untouched, "id = ?", newest.ID).Error; err != nil {
		t.Fatalf("load newest lot: %v", err)
	}
	if untouched.QtyRemaining != 100 {
		t.Fatalf("newest lot should be untouched, got %d", untouched.QtyRemaining)
	}

	agg := loadAggregate(t, db, scope)
	if agg.QtyOnHand != 150 {
		t.Fatalf("expected on-hand 150, got %d", agg.QtyOnHand)
	}
	if agg.QtyOnHand != sumRemaining(t, db, scope) {
		t.Fatal("aggregate diverged from lot remainders")
	}
}

func TestConsumeFIFOTieBreaksOnInsertionOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()
	receivedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := seedLot(t, db, scope, 1, 10, "100", receivedAt)
	seedLot(t, db, scope, 2, 10, "200", receivedAt)

	var consumed []models.LotConsumption
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		consumed, _, terr = ConsumeFIFO(ctx, tx, ConsumeInput{
			Scope: scope, Qty: 5,
			ActorUserID: uuid.New(), Kind: enums.LedgerEntryKindConsumption,
		})
		return terr
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(consumed) != 1 || consumed[0].LotID != first.ID {
		t.Fatalf("expected first-inserted lot drained on timestamp tie: %+v", consumed)
	}
}

func TestConsumeFIFOInsufficientStockIsAllOrNothing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedLot(t, db, scope, 1, 10, "100", base)
	seedLot(t, db, scope, 2, 5, "200", base.Add(time.Hour))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, terr := ConsumeFIFO(ctx, tx, ConsumeInput{
			Scope: scope, Qty: 16,
			ActorUserID: uuid.New(), Kind: enums.LedgerEntryKindConsumption,
		})
		return terr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}

	if got := sumRemaining(t, db, scope); got != 15 {
		t.Fatalf("lots modified on failed consume: remaining %d", got)
	}
	var count int64
	if err := db.Model(&models.StockLedgerEntry{}).Where("tenant_id = ?", scope.TenantID).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected zero ledger entries after failed consume, got %d", count)
	}
	agg := loadAggregate(t, db, scope)
	if agg.QtyOnHand != 15 {
		t.Fatalf("aggregate modified on failed consume: %d", agg.QtyOnHand)
	}
}

func TestRestoreLotsPreservesLotIdentity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()
	actor := uuid.New()
	receivedAt := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	lot := seedLot(t, db, scope, 1, 50, "100", receivedAt)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, _, terr := ConsumeFIFO(ctx, tx, ConsumeInput{
			Scope: scope, Qty: 10, ActorUserID: actor, Kind: enums.LedgerEntryKindConsumption,
		})
		return terr
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		_, terr := RestoreLots(ctx, tx, RestoreInput{
			Scope:       scope,
			Lots:        []models.LotConsumption{{LotID: lot.ID, Qty: 10, UnitCost: lot.UnitCost}},
			ActorUserID: actor,
		})
		return terr
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	var restored models.StockLot
	if err := db.First(&restored, "id = ?", lot.ID).Error; err != nil {
		t.Fatalf("load lot: %v", err)
	}
	if restored.QtyRemaining != 50 {
		t.Fatalf("expected remaining 50, got %d", restored.QtyRemaining)
	}
	if !restored.ReceivedAt.Equal(receivedAt) {
		t.Fatalf("receivedAt changed: %s", restored.ReceivedAt)
	}

	var reversals []models.StockLedgerEntry
	err = db.Find(&reversals, "lot_id = ? AND kind = ?", lot.ID, enums.LedgerEntryKindReversal).Error
	if err != nil {
		t.Fatalf("load reversal entries: %v", err)
	}
	if len(reversals) != 1 || reversals[0].QtyDelta != 10 {
		t.Fatalf("unexpected reversal entries: %+v", reversals)
	}

	agg := loadAggregate(t, db, scope)
	if agg.QtyOnHand != 50 {
		t.Fatalf("expected on-hand 50, got %d", agg.QtyOnHand)
	}
}

func TestRestoreLotsRejectsOverfill(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()

	lot := seedLot(t, db, scope, 1, 20, "100", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := RestoreLots(ctx, tx, RestoreInput{
			Scope:       scope,
			Lots:        []models.LotConsumption{{LotID: lot.ID, Qty: 1, UnitCost: lot.UnitCost}},
			ActorUserID: uuid.New(),
		})
		return terr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict on overfill, got %v", err)
	}
}

func TestRestoreLotsScopedToTenant(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	scope := newScope()
	other := newScope()

	lot := seedLot(t, db, scope, 1, 20, "100", time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := RestoreLots(ctx, tx, RestoreInput{
			Scope:       other,
			Lots:        []models.LotConsumption{{LotID: lot.ID, Qty: 5, UnitCost: lot.UnitCost}},
			ActorUserID: uuid.New(),
		})
		return terr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found across tenants, got %v", err)
	}
}

package stock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbpkg "github.com/mercatura-tech/stockflow-backend/pkg/db"
	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

type testEnv struct {
	db      *gorm.DB
	service *Service
	actor   Actor
	branch  models.Branch
	product models.Product
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Branch{}, &models.Product{},
		&models.StockLot{}, &models.StockLedgerEntry{}, &models.BranchStock{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tenantID := uuid.New()
	branch := models.Branch{ID: uuid.New(), TenantID: tenantID, Code: "WH-1", Name: "Main Warehouse", IsActive: true}
	if err := conn.Create(&branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	product := models.Product{ID: uuid.New(), TenantID: tenantID, SKU: "SKU-1", Name: "Widget", IsActive: true, Version: 1}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	client := dbpkg.FromGorm(conn)
	service := NewService(client, NewRepository(conn), nil, nil, nil)
	return &testEnv{
		db:      conn,
		service: service,
		actor:   Actor{TenantID: tenantID, UserID: uuid.New(), Role: "manager"},
		branch:  branch,
		product: product,
	}
}

func TestReceiveThenConsumeKeepsAggregateConsistent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	received, err := env.service.Receive(ctx, env.actor, ReceiveStockRequest{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		Qty:       30,
		UnitCost:  decimal.RequireFromString("12.50"),
	})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if received.Lot == nil || received.Lot.QtyRemaining != 30 {
		t.Fatalf("unexpected lot: %+v", received.Lot)
	}
	if received.ProductStock.QtyOnHand != 30 {
		t.Fatalf("expected on-hand 30, got %d", received.ProductStock.QtyOnHand)
	}

	consumed, err := env.service.Consume(ctx, env.actor, ConsumeStockRequest{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		Qty:       12,
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if consumed.ProductStock.QtyOnHand != 18 {
		t.Fatalf("expected on-hand 18, got %d", consumed.ProductStock.QtyOnHand)
	}
	if len(consumed.Affected) != 1 || consumed.Affected[0].Qty != 12 {
		t.Fatalf("unexpected consumption: %+v", consumed.Affected)
	}

	lots, err := env.service.ListLots(ctx, env.actor, LotsQuery{BranchID: env.branch.ID, ProductID: env.product.ID})
	if err != nil {
		t.Fatalf("list lots: %v", err)
	}
	total := 0
	for _, lot := range lots {
		total += lot.QtyRemaining
	}
	if total != consumed.ProductStock.QtyOnHand {
		t.Fatalf("aggregate %d diverged from lot total %d", consumed.ProductStock.QtyOnHand, total)
	}
}

func TestConsumeUnknownBranchIsNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.service.Consume(context.Background(), env.actor, ConsumeStockRequest{
		BranchID:  uuid.New(),
		ProductID: env.product.ID,
		Qty:       1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConsumeCrossTenantProductIsNotFound(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	foreign := env.actor
	foreign.TenantID = uuid.New()
	_, err := env.service.Consume(context.Background(), foreign, ConsumeStockRequest{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		Qty:       1,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAdjustPositiveRequiresUnitCost(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, err := env.service.Adjust(context.Background(), env.actor, AdjustStockRequest{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		QtyDelta:  5,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAdjustWritesAdjustmentEntries(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	cost := decimal.RequireFromString("7.25")

	up, err := env.service.Adjust(ctx, env.actor, AdjustStockRequest{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		QtyDelta:  20,
		UnitCost:  &cost,
	})
	if err != nil {
		t.Fatalf("adjust up: %v", err)
	}
	if up.Lot == nil || up.LedgerEntries[0].Kind != enums.LedgerEntryKindAdjustment {
		t.Fatalf("unexpected adjust-up result: %+v", up)
	}

	down, err := env.service.Adjust(ctx, env.actor, AdjustStockRequest{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		QtyDelta:  -8,
	})
	if err != nil {
		t.Fatalf("adjust down: %v", err)
	}
	if len(down.Affected) != 1 || down.LedgerEntries[0].QtyDelta != -8 {
		t.Fatalf("unexpected adjust-down result: %+v", down)
	}
	if down.ProductStock.QtyOnHand != 12 {
		t.Fatalf("expected on-hand 12, got %d", down.ProductStock.QtyOnHand)
	}
}

func TestLedgerPagination(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.service.Receive(ctx, env.actor, ReceiveStockRequest{
			BranchID:  env.branch.ID,
			ProductID: env.product.ID,
			Qty:       10 + i,
			UnitCost:  decimal.RequireFromString("1"),
		})
		if err != nil {
			t.Fatalf("receive %d: %v", i, err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	first, err := env.service.ListLedger(ctx, env.actor, LedgerQuery{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		Page:      pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("list ledger: %v", err)
	}
	if len(first.Entries) != 2 || first.NextCursor == "" {
		t.Fatalf("expected full first page with cursor, got %d entries", len(first.Entries))
	}

	second, err := env.service.ListLedger(ctx, env.actor, LedgerQuery{
		BranchID:  env.branch.ID,
		ProductID: env.product.ID,
		Page:      pagination.Params{Limit: 2, Cursor: first.NextCursor},
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Entries) != 1 || second.NextCursor != "" {
		t.Fatalf("expected final page of 1, got %d entries", len(second.Entries))
	}
}

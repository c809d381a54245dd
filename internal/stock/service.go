package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercatura-tech/stockflow-backend/internal/stock/allocation"
	"github.com/mercatura-tech/stockflow-backend/pkg/db"
	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
	"github.com/mercatura-tech/stockflow-backend/pkg/logger"
	"github.com/mercatura-tech/stockflow-backend/pkg/metrics"
	"github.com/mercatura-tech/stockflow-backend/pkg/outbox"
)

// Service implements the stock movement operations. Each mutation runs as one
// transaction covering lot, ledger, aggregate, and outbox writes.
type Service struct {
	client  *db.Client
	repo    *Repository
	outbox  *outbox.Service
	metrics *metrics.StockMetrics
	logg    *logger.Logger
}

func NewService(client *db.Client, repo *Repository, ob *outbox.Service, m *metrics.StockMetrics, logg *logger.Logger) *Service {
	return &Service{client: client, repo: repo, outbox: ob, metrics: m, logg: logg}
}

// movementAudit is the before/after snapshot shipped to the audit stream.
type movementAudit struct {
	BranchID  uuid.UUID                 `json:"branchId"`
	ProductID uuid.UUID                 `json:"productId"`
	Before    models.BranchStock        `json:"before"`
	After     models.BranchStock        `json:"after"`
	Entries   []models.StockLedgerEntry `json:"entries"`
}

// Receive creates a new lot at the branch.
func (s *Service) Receive(ctx context.Context, actor Actor, req ReceiveStockRequest) (*MovementResult, error) {
	var result MovementResult
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureScope(ctx, actor.TenantID, req.BranchID, req.ProductID); err != nil {
			return err
		}
		before, err := repo.GetProductStock(ctx, actor.TenantID, req.BranchID, req.ProductID)
		if err != nil {
			return err
		}

		lot, entry, err := allocation.ReceiveLot(ctx, tx, allocation.ReceiveInput{
			Scope:       s.scope(actor, req.BranchID, req.ProductID),
			Qty:         req.Qty,
			UnitCost:    req.UnitCost,
			SourceRef:   req.SourceRef,
			Reason:      req.Reason,
			ActorUserID: actor.UserID,
			OccurredAt:  derefTime(req.OccurredAt),
			Kind:        enums.LedgerEntryKindReceipt,
		})
		if err != nil {
			return err
		}

		after, err := repo.GetProductStock(ctx, actor.TenantID, req.BranchID, req.ProductID)
		if err != nil {
			return err
		}
		result = MovementResult{
			Lot:           lot,
			LedgerEntries: []models.StockLedgerEntry{*entry},
			ProductStock:  *after,
		}
		return s.emit(ctx, tx, actor, enums.EventStockReceived, lot.ID, movementAudit{
			BranchID:  req.BranchID,
			ProductID: req.ProductID,
			Before:    *before,
			After:     *after,
			Entries:   result.LedgerEntries,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncMovement(enums.LedgerEntryKindReceipt.String())
	return &result, nil
}

// Consume depletes the branch's lots FIFO.
func (s *Service) Consume(ctx context.Context, actor Actor, req ConsumeStockRequest) (*MovementResult, error) {
	started := time.Now()
	var result MovementResult
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureScope(ctx, actor.TenantID, req.BranchID, req.ProductID); err != nil {
			return err
		}
		before, err := repo.GetProductStock(ctx, actor.TenantID, req.BranchID, req.ProductID)
		if err != nil {
			return err
		}

		consumed, entries, err := allocation.ConsumeFIFO(ctx, tx, allocation.ConsumeInput{
			Scope:       s.scope(actor, req.BranchID, req.ProductID),
			Qty:         req.Qty,
			Reason:      req.Reason,
			ActorUserID: actor.UserID,
			OccurredAt:  derefTime(req.OccurredAt),
			Kind:        enums.LedgerEntryKindConsumption,
		})
		if err != nil {
			return err
		}

		after, err := repo.GetProductStock(ctx, actor.TenantID, req.BranchID, req.ProductID)
		if err != nil {
			return err
		}
		result = MovementResult{
			Affected:      consumed,
			LedgerEntries: entries,
			ProductStock:  *after,
		}
		return s.emit(ctx, tx, actor, enums.EventStockConsumed, req.ProductID, movementAudit{
			BranchID:  req.BranchID,
			ProductID: req.ProductID,
			Before:    *before,
			After:     *after,
			Entries:   entries,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncMovement(enums.LedgerEntryKindConsumption.String())
	s.metrics.ObserveAllocation("consume", time.Since(started))
	return &result, nil
}

// Adjust corrects stock. A positive delta creates a lot like a receipt, a
// negative delta depletes FIFO like a consumption; both tag the ledger
// entries ADJUSTMENT.
func (s *Service) Adjust(ctx context.Context, actor Actor, req AdjustStockRequest) (*MovementResult, error) {
	if req.QtyDelta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty_delta cannot be zero")
	}
	if req.QtyDelta > 0 && req.UnitCost == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit_cost is required for a positive adjustment")
	}

	var result MovementResult
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.EnsureScope(ctx, actor.TenantID, req.BranchID, req.ProductID); err != nil {
			return err
		}
		before, err := repo.GetProductStock(ctx, actor.TenantID, req.BranchID, req.ProductID)
		if err != nil {
			return err
		}

		scope := s.scope(actor, req.BranchID, req.ProductID)
		if req.QtyDelta > 0 {
			lot, entry, aerr := allocation.ReceiveLot(ctx, tx, allocation.ReceiveInput{
				Scope:       scope,
				Qty:         req.QtyDelta,
				UnitCost:    *req.UnitCost,
				Reason:      req.Reason,
				ActorUserID: actor.UserID,
				OccurredAt:  derefTime(req.OccurredAt),
				Kind:        enums.LedgerEntryKindAdjustment,
			})
			if aerr != nil {
				return aerr
			}
			result.Lot = lot
			result.LedgerEntries = []models.StockLedgerEntry{*entry}
		} else {
			consumed, entries, aerr := allocation.ConsumeFIFO(ctx, tx, allocation.ConsumeInput{
				Scope:       scope,
				Qty:         -req.QtyDelta,
				Reason:      req.Reason,
				ActorUserID: actor.UserID,
				OccurredAt:  derefTime(req.OccurredAt),
				Kind:        enums.LedgerEntryKindAdjustment,
			})
			if aerr != nil {
				return aerr
			}
			result.Affected = consumed
			result.LedgerEntries = entries
		}

		after, err := repo.GetProductStock(ctx, actor.TenantID, req.BranchID, req.ProductID)
		if err != nil {
			return err
		}
		result.ProductStock = *after
		return s.emit(ctx, tx, actor, enums.EventStockAdjusted, req.ProductID, movementAudit{
			BranchID:  req.BranchID,
			ProductID: req.ProductID,
			Before:    *before,
			After:     *after,
			Entries:   result.LedgerEntries,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncMovement(enums.LedgerEntryKindAdjustment.String())
	return &result, nil
}

// GetProductStock returns the cached aggregate for one scope.
func (s *Service) GetProductStock(ctx context.Context, actor Actor, branchID, productID uuid.UUID) (*models.BranchStock, error) {
	return s.repo.GetProductStock(ctx, actor.TenantID, branchID, productID)
}

// ListBranchStock returns every cached aggregate for a branch.
func (s *Service) ListBranchStock(ctx context.Context, actor Actor, branchID uuid.UUID) ([]models.BranchStock, error) {
	return s.repo.ListBranchStock(ctx, actor.TenantID, branchID)
}

// ListLots returns the scope's lots in FIFO order.
func (s *Service) ListLots(ctx context.Context, actor Actor, q LotsQuery) ([]models.StockLot, error) {
	return s.repo.ListLots(ctx, actor.TenantID, q)
}

// ListLedger returns a page of the scope's ledger history.
func (s *Service) ListLedger(ctx context.Context, actor Actor, q LedgerQuery) (*LedgerPage, error) {
	return s.repo.ListLedger(ctx, actor.TenantID, q)
}

func (s *Service) scope(actor Actor, branchID, productID uuid.UUID) allocation.Scope {
	return allocation.Scope{TenantID: actor.TenantID, BranchID: branchID, ProductID: productID}
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, actor Actor, eventType enums.OutboxEventType, aggregateID uuid.UUID, audit movementAudit) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateBranchStock,
		AggregateID:   aggregateID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, TenantID: actor.TenantID, Role: actor.Role},
		Data:          audit,
	})
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

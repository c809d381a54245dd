package transfers

import (
	"context"
	"fmt"
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

// Service drives the transfer lifecycle. Every transition runs inside one
// transaction; stock moves are delegated to the allocation engine so a multi
// item ship or receive either lands completely or not at all.
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

// transitionAudit is the before/after snapshot shipped to the audit stream.
type transitionAudit struct {
	TransferID     uuid.UUID              `json:"transferId"`
	StatusBefore   enums.TransferStatus   `json:"statusBefore"`
	StatusAfter    enums.TransferStatus   `json:"statusAfter"`
	PriorityBefore enums.TransferPriority `json:"priorityBefore,omitempty"`
	PriorityAfter  enums.TransferPriority `json:"priorityAfter,omitempty"`
	Items          []models.TransferItem  `json:"items,omitempty"`
}

// Create opens a transfer in REQUESTED state. No stock moves yet.
func (s *Service) Create(ctx context.Context, actor Actor, req CreateTransferRequest) (*models.Transfer, error) {
	if req.SourceBranchID == req.DestinationBranchID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source and destination branches must differ")
	}
	priority := enums.TransferPriorityNormal
	if req.Priority != "" {
		parsed, err := enums.ParseTransferPriority(req.Priority)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		priority = parsed
	}

	var transfer *models.Transfer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, branchID := range []uuid.UUID{req.SourceBranchID, req.DestinationBranchID} {
			ok, err := repo.BranchExists(ctx, actor.TenantID, branchID)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "branch not found")
			}
		}

		now := time.Now().UTC()
		record := models.Transfer{
			ID:                  uuid.New(),
			TenantID:            actor.TenantID,
			SourceBranchID:      req.SourceBranchID,
			DestinationBranchID: req.DestinationBranchID,
			Status:              enums.TransferStatusRequested,
			Priority:            priority,
			Reason:              req.Reason,
			RequestedByUserID:   actor.UserID,
			RequestedAt:         now,
		}
		seen := make(map[uuid.UUID]bool, len(req.Items))
		for _, item := range req.Items {
			if seen[item.ProductID] {
				return pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in transfer items")
			}
			seen[item.ProductID] = true
			ok, err := repo.ProductExists(ctx, actor.TenantID, item.ProductID)
			if err != nil {
				return err
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			record.Items = append(record.Items, models.TransferItem{
				ID:              uuid.New(),
				TransferID:      record.ID,
				ProductID:       item.ProductID,
				QtyRequested:    item.Qty,
				ShipmentBatches: models.ShipmentBatchList{},
			})
		}
		if err := repo.Create(ctx, &record); err != nil {
			return err
		}
		transfer = &record
		return s.emit(ctx, tx, actor, enums.EventTransferCreated, record.ID, transitionAudit{
			TransferID:  record.ID,
			StatusAfter: record.Status,
			Items:       record.Items,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(transfer.Status.String())
	return transfer, nil
}

// Review approves or rejects a REQUESTED transfer. Approval pins qtyApproved
// per item; items without a decision default to their requested quantity.
func (s *Service) Review(ctx context.Context, actor Actor, transferID uuid.UUID, req ReviewTransferRequest) (*models.Transfer, error) {
	var transfer *models.Transfer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, actor.TenantID, transferID, true)
		if err != nil {
			return err
		}
		if record.Status != enums.TransferStatusRequested {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot review a %s transfer", record.Status))
		}
		before := record.Status
		now := time.Now().UTC()

		if !req.Approve {
			record.Status = enums.TransferStatusRejected
			record.ReviewedByUserID = &actor.UserID
			record.ReviewedAt = &now
			if req.Reason != nil {
				record.Reason = req.Reason
			}
			if err := repo.Save(ctx, record); err != nil {
				return err
			}
			transfer = record
			return s.emit(ctx, tx, actor, enums.EventTransferReviewed, record.ID, transitionAudit{
				TransferID: record.ID, StatusBefore: before, StatusAfter: record.Status,
			})
		}

		decisions := make(map[uuid.UUID]int, len(req.Items))
		for _, decision := range req.Items {
			decisions[decision.ItemID] = decision.QtyApproved
		}
		anyApproved := false
		for i := range record.Items {
			item := &record.Items[i]
			approved, decided := decisions[item.ID]
			if !decided {
				approved = item.QtyRequested
			}
			if approved < 0 || approved > item.QtyRequested {
				return pkgerrors.New(pkgerrors.CodeValidation, "approved quantity exceeds requested quantity")
			}
			item.QtyApproved = approved
			if approved > 0 {
				anyApproved = true
			}
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
		}
		if !anyApproved {
			return pkgerrors.New(pkgerrors.CodeValidation, "approval must leave at least one shippable item")
		}

		record.Status = enums.TransferStatusApproved
		record.ReviewedByUserID = &actor.UserID
		record.ReviewedAt = &now
		if err := repo.Save(ctx, record); err != nil {
			return err
		}
		transfer = record
		return s.emit(ctx, tx, actor, enums.EventTransferReviewed, record.ID, transitionAudit{
			TransferID: record.ID, StatusBefore: before, StatusAfter: record.Status, Items: record.Items,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(transfer.Status.String())
	return transfer, nil
}

// Ship consumes source stock FIFO for each item and appends a shipment batch
// recording exactly which lots were drawn. Repeatable for partial shipments.
func (s *Service) Ship(ctx context.Context, actor Actor, transferID uuid.UUID, req ShipTransferRequest) (*models.Transfer, error) {
	var transfer *models.Transfer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, actor.TenantID, transferID, true)
		if err != nil {
			return err
		}
		if record.Status != enums.TransferStatusApproved && record.Status != enums.TransferStatusInTransit {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot ship a %s transfer", record.Status))
		}
		if record.ReversedByTransferID != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot ship a reversed transfer")
		}
		before := record.Status
		now := time.Now().UTC()
		reason := fmt.Sprintf("transfer %s shipment", record.ID)

		itemsByID := make(map[uuid.UUID]*models.TransferItem, len(record.Items))
		for i := range record.Items {
			itemsByID[record.Items[i].ID] = &record.Items[i]
		}

		for _, ship := range req.Items {
			item, ok := itemsByID[ship.ItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transfer item not found")
			}
			if item.QtyShipped+ship.QtyToShip > item.QtyApproved {
				return pkgerrors.New(pkgerrors.CodeConflict, "cannot ship more than the approved quantity")
			}

			consumed, _, err := allocation.ConsumeFIFO(ctx, tx, allocation.ConsumeInput{
				Scope: allocation.Scope{
					TenantID:  actor.TenantID,
					BranchID:  record.SourceBranchID,
					ProductID: item.ProductID,
				},
				Qty:         ship.QtyToShip,
				Reason:      &reason,
				ActorUserID: actor.UserID,
				OccurredAt:  now,
				Kind:        enums.LedgerEntryKindConsumption,
			})
			if err != nil {
				return err
			}

			item.ShipmentBatches = append(item.ShipmentBatches, models.ShipmentBatch{
				BatchNumber:     len(item.ShipmentBatches) + 1,
				Qty:             ship.QtyToShip,
				ShippedAt:       now,
				ShippedByUserID: actor.UserID,
				LotsConsumed:    consumed,
			})
			item.QtyShipped += ship.QtyToShip
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
		}

		record.Status = enums.TransferStatusInTransit
		if record.ShippedAt == nil {
			record.ShippedAt = &now
		}
		if err := repo.Save(ctx, record); err != nil {
			return err
		}
		transfer = record
		return s.emit(ctx, tx, actor, enums.EventTransferShipped, record.ID, transitionAudit{
			TransferID: record.ID, StatusBefore: before, StatusAfter: record.Status, Items: record.Items,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(transfer.Status.String())
	return transfer, nil
}

// Receive books arrived quantity at the destination as new lots, costed at
// the weighted average of the lots the shipment actually drew from. The
// transfer completes once every item's received quantity matches its shipped
// quantity.
func (s *Service) Receive(ctx context.Context, actor Actor, transferID uuid.UUID, req ReceiveTransferRequest) (*models.Transfer, error) {
	var transfer *models.Transfer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, actor.TenantID, transferID, true)
		if err != nil {
			return err
		}
		if record.Status != enums.TransferStatusInTransit && record.Status != enums.TransferStatusPartiallyReceived {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot receive a %s transfer", record.Status))
		}
		if record.ReversedByTransferID != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cannot receive a reversed transfer")
		}
		before := record.Status
		now := time.Now().UTC()
		sourceRef := record.ID.String()

		itemsByID := make(map[uuid.UUID]*models.TransferItem, len(record.Items))
		for i := range record.Items {
			itemsByID[record.Items[i].ID] = &record.Items[i]
		}

		for _, arrival := range req.Items {
			item, ok := itemsByID[arrival.ItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transfer item not found")
			}
			if item.QtyReceived+arrival.QtyReceived > item.QtyShipped {
				return pkgerrors.New(pkgerrors.CodeConflict, "cannot receive more than the shipped quantity")
			}

			_, _, err := allocation.ReceiveLot(ctx, tx, allocation.ReceiveInput{
				Scope: allocation.Scope{
					TenantID:  actor.TenantID,
					BranchID:  record.DestinationBranchID,
					ProductID: item.ProductID,
				},
				Qty:         arrival.QtyReceived,
				UnitCost:    item.ShipmentBatches.WeightedAverageCost(),
				SourceRef:   &sourceRef,
				ActorUserID: actor.UserID,
				OccurredAt:  now,
				Kind:        enums.LedgerEntryKindReceipt,
			})
			if err != nil {
				return err
			}

			item.QtyReceived += arrival.QtyReceived
			if err := repo.SaveItem(ctx, item); err != nil {
				return err
			}
		}

		complete := true
		for i := range record.Items {
			if record.Items[i].QtyReceived != record.Items[i].QtyShipped {
				complete = false
				break
			}
		}
		if complete {
			record.Status = enums.TransferStatusCompleted
			record.CompletedAt = &now
		} else {
			record.Status = enums.TransferStatusPartiallyReceived
		}
		if err := repo.Save(ctx, record); err != nil {
			return err
		}
		transfer = record
		return s.emit(ctx, tx, actor, enums.EventTransferReceived, record.ID, transitionAudit{
			TransferID: record.ID, StatusBefore: before, StatusAfter: record.Status, Items: record.Items,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(transfer.Status.String())
	return transfer, nil
}

// Cancel is only legal before review; no stock has moved, so it is a pure
// status change.
func (s *Service) Cancel(ctx context.Context, actor Actor, transferID uuid.UUID, req CancelTransferRequest) (*models.Transfer, error) {
	var transfer *models.Transfer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, err := repo.FindByID(ctx, actor.TenantID, transferID, true)
		if err != nil {
			return err
		}
		if record.Status != enums.TransferStatusRequested {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot cancel a %s transfer", record.Status))
		}
		before := record.Status
		record.Status = enums.TransferStatusCancelled
		if req.Reason != nil {
			record.Reason = req.Reason
		}
		if err := repo.Save(ctx, record); err != nil {
			return err
		}
		transfer = record
		return s.emit(ctx, tx, actor, enums.EventTransferCancelled, record.ID, transitionAudit{
			TransferID: record.ID, StatusBefore: before, StatusAfter: record.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition(transfer.Status.String())
	return transfer, nil
}

// UpdatePriority reprioritizes an open transfer.
func (s *Service) UpdatePriority(ctx context.Context, actor Actor, transferID uuid.UUID, req UpdatePriorityRequest) (*models.Transfer, error) {
	priority, err := enums.ParseTransferPriority(req.Priority)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
	}

	var transfer *models.Transfer
	err = s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		record, terr := repo.FindByID(ctx, actor.TenantID, transferID, true)
		if terr != nil {
			return terr
		}
		if record.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot reprioritize a %s transfer", record.Status))
		}
		before := record.Priority
		record.Priority = priority
		if terr := repo.Save(ctx, record); terr != nil {
			return terr
		}
		transfer = record
		return s.emit(ctx, tx, actor, enums.EventTransferReprioritized, record.ID, transitionAudit{
			TransferID: record.ID, StatusBefore: record.Status, StatusAfter: record.Status,
			PriorityBefore: before, PriorityAfter: record.Priority,
		})
	})
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

// Get loads one transfer with items.
func (s *Service) Get(ctx context.Context, actor Actor, transferID uuid.UUID) (*models.Transfer, error) {
	return s.repo.FindByID(ctx, actor.TenantID, transferID, false)
}

// List returns a page of the tenant's transfers.
func (s *Service) List(ctx context.Context, actor Actor, q ListQuery) (*ListPage, error) {
	return s.repo.List(ctx, actor.TenantID, q)
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, actor Actor, eventType enums.OutboxEventType, aggregateID uuid.UUID, audit transitionAudit) error {
	if s.outbox == nil {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateTransfer,
		AggregateID:   aggregateID,
		Actor:         &outbox.ActorRef{UserID: actor.UserID, TenantID: actor.TenantID, Role: actor.Role},
		Data:          audit,
	})
}

package transfers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercatura-tech/stockflow-backend/internal/stock/allocation"
	"github.com/mercatura-tech/stockflow-backend/pkg/db/models"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
)

// Reverse synthesizes a compensating transfer for one that already moved
// stock. Source lots are restored to the exact rows each shipment batch drew
// from, keeping their original receivedAt and unitCost; the destination is
// depleted by its received quantity through ordinary FIFO, tagged REVERSAL.
// The whole reversal is one transaction and the new transfer is born
// COMPLETED.
func (s *Service) Reverse(ctx context.Context, actor Actor, transferID uuid.UUID, req ReverseTransferRequest) (*models.Transfer, error) {
	var reversal *models.Transfer
	err := s.client.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		original, err := repo.FindByID(ctx, actor.TenantID, transferID, true)
		if err != nil {
			return err
		}
		switch original.Status {
		case enums.TransferStatusInTransit, enums.TransferStatusPartiallyReceived, enums.TransferStatusCompleted:
		default:
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot reverse a %s transfer", original.Status))
		}
		if original.ReversedByTransferID != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "transfer has already been reversed")
		}
		if original.IsReversal {
			return pkgerrors.New(pkgerrors.CodeConflict, "a reversal cannot itself be reversed")
		}

		now := time.Now().UTC()
		record := models.Transfer{
			ID:                  uuid.New(),
			TenantID:            actor.TenantID,
			SourceBranchID:      original.DestinationBranchID,
			DestinationBranchID: original.SourceBranchID,
			Status:              enums.TransferStatusCompleted,
			Priority:            original.Priority,
			IsReversal:          true,
			ReversalOfID:        &original.ID,
			Reason:              req.Reason,
			RequestedByUserID:   actor.UserID,
			RequestedAt:         now,
			CompletedAt:         &now,
		}
		restoreReason := fmt.Sprintf("reversal of transfer %s", original.ID)

		for _, item := range original.Items {
			if item.QtyShipped == 0 {
				continue
			}

			// Every lot the shipment batches drew from gets its quantity back.
			restores := make([]models.LotConsumption, 0, len(item.ShipmentBatches))
			for _, batch := range item.ShipmentBatches {
				restores = append(restores, batch.LotsConsumed...)
			}
			_, err := allocation.RestoreLots(ctx, tx, allocation.RestoreInput{
				Scope: allocation.Scope{
					TenantID:  actor.TenantID,
					BranchID:  original.SourceBranchID,
					ProductID: item.ProductID,
				},
				Lots:        restores,
				Reason:      &restoreReason,
				ActorUserID: actor.UserID,
				OccurredAt:  now,
			})
			if err != nil {
				return err
			}

			// Quantity that actually landed at the destination leaves it
			// again by the destination's own FIFO order.
			if item.QtyReceived > 0 {
				_, _, err = allocation.ConsumeFIFO(ctx, tx, allocation.ConsumeInput{
					Scope: allocation.Scope{
						TenantID:  actor.TenantID,
						BranchID:  original.DestinationBranchID,
						ProductID: item.ProductID,
					},
					Qty:         item.QtyReceived,
					Reason:      &restoreReason,
					ActorUserID: actor.UserID,
					OccurredAt:  now,
					Kind:        enums.LedgerEntryKindReversal,
				})
				if err != nil {
					if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
						return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "destination stock already consumed; cannot reverse")
					}
					return err
				}
			}

			record.Items = append(record.Items, models.TransferItem{
				ID:              uuid.New(),
				TransferID:      record.ID,
				ProductID:       item.ProductID,
				QtyRequested:    item.QtyShipped,
				QtyApproved:     item.QtyShipped,
				QtyShipped:      item.QtyShipped,
				QtyReceived:     item.QtyShipped,
				ShipmentBatches: models.ShipmentBatchList{},
			})
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "transfer has no shipped stock to reverse")
		}

		if err := repo.Create(ctx, &record); err != nil {
			return err
		}
		original.ReversedByTransferID = &record.ID
		if err := repo.Save(ctx, original); err != nil {
			return err
		}
		reversal = &record

		return s.emit(ctx, tx, actor, enums.EventTransferReversed, original.ID, transitionAudit{
			TransferID:   original.ID,
			StatusBefore: original.Status,
			StatusAfter:  original.Status,
			Items:        record.Items,
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("REVERSED")
	return reversal, nil
}

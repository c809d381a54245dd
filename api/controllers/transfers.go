package controllers

import (
	"net/http"
	"strings"

	"github.com/mercatura-tech/stockflow-backend/api/responses"
	"github.com/mercatura-tech/stockflow-backend/api/validators"
	transfersvc "github.com/mercatura-tech/stockflow-backend/internal/transfers"
	"github.com/mercatura-tech/stockflow-backend/pkg/enums"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
	"github.com/mercatura-tech/stockflow-backend/pkg/logger"
	"github.com/mercatura-tech/stockflow-backend/pkg/pagination"
)

// CreateTransfer opens a stock movement request between two branches.
func CreateTransfer(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transfersvc.CreateTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := requireBranchAccess(r.Context(), payload.DestinationBranchID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transfer, err := svc.Create(r.Context(), transferActor(actor), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, transfer)
	}
}

// ReviewTransfer approves or rejects a requested transfer.
func ReviewTransfer(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, actor actorIdentity) (any, error) {
		transferID, err := pathUUID(r, "transferID")
		if err != nil {
			return nil, err
		}
		var payload transfersvc.ReviewTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Review(r.Context(), transferActor(actor), transferID, payload)
	})
}

// ShipTransfer records a shipment batch leaving the source branch.
func ShipTransfer(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, actor actorIdentity) (any, error) {
		transferID, err := pathUUID(r, "transferID")
		if err != nil {
			return nil, err
		}
		var payload transfersvc.ShipTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Ship(r.Context(), transferActor(actor), transferID, payload)
	})
}

// ReceiveTransfer books an arrival at the destination branch.
func ReceiveTransfer(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, actor actorIdentity) (any, error) {
		transferID, err := pathUUID(r, "transferID")
		if err != nil {
			return nil, err
		}
		var payload transfersvc.ReceiveTransferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.Receive(r.Context(), transferActor(actor), transferID, payload)
	})
}

// CancelTransfer withdraws a transfer that has not been reviewed yet.
func CancelTransfer(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, actor actorIdentity) (any, error) {
		transferID, err := pathUUID(r, "transferID")
		if err != nil {
			return nil, err
		}
		payload := transfersvc.CancelTransferRequest{}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				return nil, err
			}
		}
		return svc.Cancel(r.Context(), transferActor(actor), transferID, payload)
	})
}

// ReverseTransfer compensates a completed transfer by restoring source lots
// and depleting the destination.
func ReverseTransfer(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, actor actorIdentity) (any, error) {
		transferID, err := pathUUID(r, "transferID")
		if err != nil {
			return nil, err
		}
		payload := transfersvc.ReverseTransferRequest{}
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				return nil, err
			}
		}
		return svc.Reverse(r.Context(), transferActor(actor), transferID, payload)
	})
}

// UpdateTransferPriority reprioritizes an open transfer.
func UpdateTransferPriority(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, actor actorIdentity) (any, error) {
		transferID, err := pathUUID(r, "transferID")
		if err != nil {
			return nil, err
		}
		var payload transfersvc.UpdatePriorityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdatePriority(r.Context(), transferActor(actor), transferID, payload)
	})
}

// GetTransfer returns one transfer with its items.
func GetTransfer(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return transferTransition(logg, func(r *http.Request, actor actorIdentity) (any, error) {
		transferID, err := pathUUID(r, "transferID")
		if err != nil {
			return nil, err
		}
		return svc.Get(r.Context(), transferActor(actor), transferID)
	})
}

// ListTransfers returns the tenant's transfers, newest first, optionally
// filtered by status or branch.
func ListTransfers(svc *transfersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := transfersvc.ListQuery{}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, parseErr := enums.ParseTransferStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		branchID, err := validators.ParseQueryUUID(r, "branch_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.BranchID = branchID

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query.Page = pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}

		page, err := svc.List(r.Context(), transferActor(actor), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func transferTransition(logg *logger.Logger, fn func(*http.Request, actorIdentity) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := requireActor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := fn(r, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func transferActor(actor actorIdentity) transfersvc.Actor {
	return transfersvc.Actor{TenantID: actor.TenantID, UserID: actor.UserID, Role: actor.Role}
}

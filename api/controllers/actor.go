package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mercatura-tech/stockflow-backend/api/middleware"
	pkgerrors "github.com/mercatura-tech/stockflow-backend/pkg/errors"
)

// actorIdentity is the authenticated caller resolved from request context.
type actorIdentity struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
	Role     string
}

func requireActor(r *http.Request) (actorIdentity, error) {
	ctx := r.Context()

	userID := middleware.UserIDFromContext(ctx)
	if userID == "" {
		return actorIdentity{}, pkgerrors.New(pkgerrors.CodeAuthRequired, "user context missing")
	}
	tenantID := middleware.TenantIDFromContext(ctx)
	if tenantID == "" {
		return actorIdentity{}, pkgerrors.New(pkgerrors.CodeAuthRequired, "tenant context missing")
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return actorIdentity{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	tid, err := uuid.Parse(tenantID)
	if err != nil {
		return actorIdentity{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tenant id")
	}

	return actorIdentity{
		TenantID: tid,
		UserID:   uid,
		Role:     middleware.RoleFromContext(ctx),
	}, nil
}

// requireBranchAccess enforces per-branch write restrictions. A nil branch
// list on the token means the actor is unrestricted within the tenant.
func requireBranchAccess(ctx context.Context, branchIDs ...uuid.UUID) error {
	allowed := middleware.BranchIDsFromContext(ctx)
	if allowed == nil {
		return nil
	}
	for _, branchID := range branchIDs {
		found := false
		for _, candidate := range allowed {
			if candidate == branchID {
				found = true
				break
			}
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodePermission, "branch not permitted for actor").
				WithDetails(map[string]any{"branch_id": branchID})
		}
	}
	return nil
}

func pathUUID(r *http.Request, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a UUID").
			WithDetails(map[string]any{"field": param})
	}
	return id, nil
}

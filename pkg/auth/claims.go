package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	TenantID  uuid.UUID
	Role      string
	BranchIDs []uuid.UUID
}

// AccessTokenClaims represents the typed JWT issued to clients. BranchIDs
// lists the branches the actor may write stock for; an empty list means all
// branches of the tenant.
type AccessTokenClaims struct {
	UserID    uuid.UUID   `json:"user_id"`
	TenantID  uuid.UUID   `json:"tenant_id"`
	Role      string      `json:"role"`
	BranchIDs []uuid.UUID `json:"branch_ids,omitempty"`
	jwt.RegisteredClaims
}

// AllowsBranch reports whether the claims authorize writes for the branch.
func (c AccessTokenClaims) AllowsBranch(branchID uuid.UUID) bool {
	if len(c.BranchIDs) == 0 {
		return true
	}
	for _, id := range c.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

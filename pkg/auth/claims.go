package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/tillpoint-backend/pkg/enums"
)

// AccessTokenPayload is what the identity provider puts into a token.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	BranchID uuid.UUID
	Role     enums.StaffRole
	JTI      string
}

// AccessTokenClaims is the typed JWT the API accepts.
type AccessTokenClaims struct {
	UserID   uuid.UUID       `json:"user_id"`
	BranchID uuid.UUID       `json:"branch_id"`
	Role     enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}

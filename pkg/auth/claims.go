package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     string
	JTI      string
}

// AccessTokenClaims represents the typed JWT presented by API clients. The identity
// service issues these; this service only verifies them.
type AccessTokenClaims struct {
	UserID   uuid.UUID  `json:"user_id"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
	Role     string     `json:"role,omitempty"`
	jwt.RegisteredClaims
}

package auth

import (
	"github.com/davronbekov/taxipark-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.AdminRole
	Name   string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to dashboard clients.
type AccessTokenClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.AdminRole `json:"role"`
	Name   string          `json:"name,omitempty"`
	jwt.RegisteredClaims
}

package auth

import (
	"github.com/casadefe/iglesia-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Rol    enums.Rol
	SedeID *uuid.UUID
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Rol    enums.Rol  `json:"rol"`
	SedeID *uuid.UUID `json:"sede_id,omitempty"`
	jwt.RegisteredClaims
}

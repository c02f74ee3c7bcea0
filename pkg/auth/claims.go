package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	IsStaff  bool
	FullName string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued by the identity provider.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	IsStaff  bool      `json:"is_staff"`
	FullName string    `json:"full_name,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the acting identity handed to services.
type Principal struct {
	UserID   uuid.UUID
	IsStaff  bool
	FullName string
}

// Role names the principal for logs.
func (p Principal) Role() string {
	if p.IsStaff {
		return "staff"
	}
	return "member"
}

// CanAccessUser reports whether the principal may read or act on behalf of userID.
func (p Principal) CanAccessUser(userID uuid.UUID) bool {
	return p.IsStaff || p.UserID == userID
}

// Principal converts validated claims into the acting identity.
func (c AccessTokenClaims) Principal() Principal {
	return Principal{UserID: c.UserID, IsStaff: c.IsStaff, FullName: c.FullName}
}

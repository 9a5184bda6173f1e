package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles recognised by the access-control layer.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleMitra UserRole = "MITRA"
)

// JWTClaims represents the payload of tokens issued by the session provider.
// PartnerName is set for MITRA callers and scopes what they may read and submit.
type JWTClaims struct {
	UserID      string   `json:"user_id"`
	Role        UserRole `json:"role"`
	PartnerName string   `json:"partner_name,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller has unrestricted access.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// CanActFor reports whether the caller may read or write data owned by partnerName.
func (c *JWTClaims) CanActFor(partnerName string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleAdmin {
		return true
	}
	return c.Role == RoleMitra && c.PartnerName != "" && c.PartnerName == partnerName
}

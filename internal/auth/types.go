package auth

import (
	"errors"

	"github.com/bosves/bosves-api/internal/infrastructure/config"
)

// Role represents an authorisation tier for API clients.
type Role string

const (
	// RoleOperator records weighings: create, update and delete wagons.
	RoleOperator Role = config.RoleOperator

	// RoleReader can only query wagons and the audit trail.
	RoleReader Role = config.RoleReader
)

// ValidRoles is the set of roles a token may carry.
var ValidRoles = []Role{RoleOperator, RoleReader}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	Subject string `json:"sub"`
	Role    Role   `json:"role"`
	TokenID string `json:"jti,omitempty"`
}

// Can reports whether the principal's role grants perm.
func (p Principal) Can(perm Permission) bool {
	return HasPermission(p.Role, perm)
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrForbidden          = errors.New("insufficient permissions")
)

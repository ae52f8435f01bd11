// Package permission holds the authorization predicates. Every check is
// a pure function of (principal, resource, method) so the rules can be
// unit-tested without the HTTP layer. Authentication itself is a
// precondition handled by the middleware: an anonymous principal never
// reaches a mutation handler.
package permission

import (
	"net/http"

	"reviewhub/internal/http-api/models"
)

// Principal is the acting user as resolved from the access token.
// The zero value is the anonymous principal.
type Principal struct {
	UserID        string
	Username      string
	Role          string
	IsSuperuser   bool
	Authenticated bool
}

// FromUser builds an authenticated principal from a user record.
func FromUser(u *models.User) Principal {
	return Principal{
		UserID:        u.ID,
		Username:      u.Username,
		Role:          u.Role,
		IsSuperuser:   u.IsSuperuser,
		Authenticated: true,
	}
}

// readOnly reports whether the method cannot mutate state (the safe
// methods: GET, HEAD, OPTIONS).
func readOnly(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// CanAdminister reports whether p may manage users and the taxonomy
// (categories, genres, titles). Requires authentication and either the
// admin role or the superuser flag.
func CanAdminister(p Principal) bool {
	if !p.Authenticated {
		return false
	}
	return p.Role == models.RoleAdmin || p.IsSuperuser
}

// CanWriteOrAdmin allows any read-only method through and defers write
// methods to CanAdminister.
func CanWriteOrAdmin(p Principal, method string) bool {
	if readOnly(method) {
		return true
	}
	return CanAdminister(p)
}

// CanModifyAuthored decides whether p may apply method to a review or
// comment written by authorID. The author and admins may do anything;
// moderators may retrieve and delete but not edit; everyone may read.
func CanModifyAuthored(p Principal, authorID string, method string) bool {
	if p.Authenticated && p.UserID == authorID {
		return true
	}
	if readOnly(method) {
		return true
	}
	if p.Authenticated && p.Role == models.RoleAdmin {
		return true
	}
	if p.Authenticated && p.Role == models.RoleModerator {
		return method == http.MethodDelete
	}
	return false
}

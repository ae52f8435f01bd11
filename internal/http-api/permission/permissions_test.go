package permission

import (
	"net/http"
	"testing"

	"reviewhub/internal/http-api/models"

	"github.com/stretchr/testify/assert"
)

func principal(role string, super bool) Principal {
	return Principal{
		UserID:        "user-1",
		Username:      "someone",
		Role:          role,
		IsSuperuser:   super,
		Authenticated: true,
	}
}

func TestCanAdminister(t *testing.T) {
	assert.False(t, CanAdminister(Principal{}), "anonymous never administers")
	assert.False(t, CanAdminister(principal(models.RoleUser, false)))
	assert.False(t, CanAdminister(principal(models.RoleModerator, false)))
	assert.True(t, CanAdminister(principal(models.RoleAdmin, false)))
	assert.True(t, CanAdminister(principal(models.RoleUser, true)), "superuser flag alone suffices")
}

func TestCanWriteOrAdmin(t *testing.T) {
	anon := Principal{}
	assert.True(t, CanWriteOrAdmin(anon, http.MethodGet))
	assert.True(t, CanWriteOrAdmin(anon, http.MethodHead))
	assert.False(t, CanWriteOrAdmin(anon, http.MethodPost))

	assert.False(t, CanWriteOrAdmin(principal(models.RoleUser, false), http.MethodPost))
	assert.False(t, CanWriteOrAdmin(principal(models.RoleModerator, false), http.MethodDelete))
	assert.True(t, CanWriteOrAdmin(principal(models.RoleAdmin, false), http.MethodPost))
	assert.True(t, CanWriteOrAdmin(principal(models.RoleUser, true), http.MethodDelete))
}

// Matrix for reviews and comments: the author may do anything, admins
// may do anything, moderators may fetch and delete but not edit, other
// users only read.
func TestCanModifyAuthored(t *testing.T) {
	const authorID = "author-1"

	author := principal(models.RoleUser, false)
	author.UserID = authorID

	cases := []struct {
		name   string
		p      Principal
		method string
		want   bool
	}{
		{"author get", author, http.MethodGet, true},
		{"author patch", author, http.MethodPatch, true},
		{"author delete", author, http.MethodDelete, true},

		{"admin get", principal(models.RoleAdmin, false), http.MethodGet, true},
		{"admin patch", principal(models.RoleAdmin, false), http.MethodPatch, true},
		{"admin delete", principal(models.RoleAdmin, false), http.MethodDelete, true},

		{"moderator get", principal(models.RoleModerator, false), http.MethodGet, true},
		{"moderator patch", principal(models.RoleModerator, false), http.MethodPatch, false},
		{"moderator delete", principal(models.RoleModerator, false), http.MethodDelete, true},

		{"other user get", principal(models.RoleUser, false), http.MethodGet, true},
		{"other user patch", principal(models.RoleUser, false), http.MethodPatch, false},
		{"other user delete", principal(models.RoleUser, false), http.MethodDelete, false},

		{"anonymous get", Principal{}, http.MethodGet, true},
		{"anonymous patch", Principal{}, http.MethodPatch, false},
		{"anonymous delete", Principal{}, http.MethodDelete, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanModifyAuthored(tc.p, authorID, tc.method))
		})
	}
}

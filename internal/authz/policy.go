// Package authz holds the admin predicate and the gate on post mutations.
package authz

import (
	"journal/internal/models"
	"journal/internal/session"
)

// Action names a guarded operation.
type Action string

const (
	CreatePost Action = "create_post"
	EditPost   Action = "edit_post"
	DeletePost Action = "delete_post"
)

// ForbiddenMessage is returned for every denied action.
const ForbiddenMessage = "You don't have permission to access this page"

// Policy decides who may mutate posts. With legacyOpenEdits set, edit and
// delete are open to any caller; create always requires an admin.
type Policy struct {
	legacyOpenEdits bool
}

func NewPolicy(legacyOpenEdits bool) *Policy {
	return &Policy{legacyOpenEdits: legacyOpenEdits}
}

// IsAdmin reports whether id is an authenticated admin.
func (p *Policy) IsAdmin(id session.Identity) bool {
	return !id.IsAnonymous() && id.Role == models.RoleAdmin
}

// Authorize returns a FORBIDDEN AppError when id may not perform action.
func (p *Policy) Authorize(id session.Identity, action Action) error {
	if p.legacyOpenEdits && (action == EditPost || action == DeletePost) {
		return nil
	}
	if p.IsAdmin(id) {
		return nil
	}
	return models.NewForbiddenError(ForbiddenMessage)
}

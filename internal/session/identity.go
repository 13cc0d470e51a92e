// Package session issues, resolves and revokes login sessions.
package session

import "journal/internal/models"

// Identity is the caller as seen by request handling: either an
// authenticated user or Anonymous.
type Identity struct {
	UserID uint        `json:"id"`
	Name   string      `json:"name"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Anonymous is the identity of a caller without a valid session.
func Anonymous() Identity {
	return Identity{}
}

// IdentityOf builds the identity of an authenticated user.
func IdentityOf(u *models.User) Identity {
	return Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (i Identity) IsAnonymous() bool {
	return i.UserID == 0
}

package models

import "time"

// Session is a server-side login record. A nil ExpiresAt means the session
// lives until logout.
type Session struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired reports whether the session has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a server-side login record. Its ID is the opaque value placed in
// the auth_session cookie; presenting a valid, unexpired ID authorizes all
// actions as the owning user.
type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the session is past its expiry time.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

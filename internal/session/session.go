// Package session implements the session authority: issuing, validating and
// invalidating database-backed login sessions, and serializing the session
// cookie. A session id is an opaque random token; holding a valid, unexpired
// id is the capability to act as the owning user.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"TASKPILOT_BACK-END/internal/models"
	"TASKPILOT_BACK-END/internal/repository"
)

// CookieName is the name of the session cookie.
const CookieName = "auth_session"

// Manager creates and validates sessions.
type Manager struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
	secure   bool
}

// NewManager constructs a session Manager. secure controls the cookie's
// Secure attribute (set in production).
func NewManager(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration, secure bool) *Manager {
	return &Manager{
		sessions: sessions,
		users:    users,
		ttl:      ttl,
		secure:   secure,
	}
}

// CreateSession issues a new session for the user and stores it.
func (m *Manager) CreateSession(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	now := time.Now()
	session := &models.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// ValidateSession resolves a session id to its user and session. An absent,
// expired or orphaned session yields (nil, nil, nil) — "no session" is an
// authorization outcome, not a fault. Expired rows are deleted on detection.
func (m *Manager) ValidateSession(ctx context.Context, id string) (*models.User, *models.Session, error) {
	if id == "" {
		return nil, nil, nil
	}

	session, err := m.sessions.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, nil
	}

	if session.Expired() {
		// Best effort cleanup; the session is invalid either way.
		_ = m.sessions.Delete(ctx, session.ID)
		return nil, nil, nil
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	return user, session, nil
}

// InvalidateSession deletes the session row (logout).
func (m *Manager) InvalidateSession(ctx context.Context, id string) error {
	return m.sessions.Delete(ctx, id)
}

// Cookie serializes a session into the auth_session cookie. No Max-Age is
// set: the browser keeps it for the session, and the server-side expiry in
// the database stays authoritative.
func (m *Manager) Cookie(session *models.Session) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie returns a cookie that removes auth_session from the browser.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// generateSessionID returns a 64-hex-char opaque token from crypto/rand.
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

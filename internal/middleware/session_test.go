package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TASKPILOT_BACK-END/internal/models"
	"TASKPILOT_BACK-END/internal/repository"
	"TASKPILOT_BACK-END/internal/session"
	"TASKPILOT_BACK-END/internal/utils"
)

type fakeSessionRepo struct {
	sessions map[string]*models.Session
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *models.Session) error {
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeSessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}

func newTestSetup(t *testing.T) (*session.Manager, *models.User, *models.Session) {
	t.Helper()
	sessions := &fakeSessionRepo{sessions: make(map[string]*models.Session)}
	users := &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}

	user := &models.User{ID: uuid.New(), Email: "alice@example.com"}
	require.NoError(t, users.Create(context.Background(), user))

	manager := session.NewManager(sessions, users, time.Hour, false)
	sess, err := manager.CreateSession(context.Background(), user.ID)
	require.NoError(t, err)

	return manager, user, sess
}

func TestSessionMiddleware_ValidCookie(t *testing.T) {
	manager, user, sess := newTestSetup(t)

	var gotUser *models.User
	var gotSession *models.Session
	next := func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = utils.GetUserFromContext(r.Context())
		gotSession, _ = utils.GetSessionFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID})
	rec := httptest.NewRecorder()
	SessionMiddleware(next, manager)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotUser)
	require.NotNil(t, gotSession)
	assert.Equal(t, user.ID, gotUser.ID)
	assert.Equal(t, sess.ID, gotSession.ID)
}

func TestSessionMiddleware_MissingCookie(t *testing.T) {
	manager, _, _ := newTestSetup(t)

	called := false
	next := func(w http.ResponseWriter, r *http.Request) { called = true }

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	SessionMiddleware(next, manager)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called, "handler must not run without a session")
}

func TestSessionMiddleware_UnknownSession(t *testing.T) {
	manager, _, _ := newTestSetup(t)

	called := false
	next := func(w http.ResponseWriter, r *http.Request) { called = true }

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "forged-session-id"})
	rec := httptest.NewRecorder()
	SessionMiddleware(next, manager)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestSessionMiddleware_InvalidatedSession(t *testing.T) {
	manager, _, sess := newTestSetup(t)
	require.NoError(t, manager.InvalidateSession(context.Background(), sess.ID))

	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.ID})
	rec := httptest.NewRecorder()
	SessionMiddleware(next, manager)(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

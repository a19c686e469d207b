// Package repository contains the PostgreSQL data access layer. Every query
// that touches user-owned rows carries the owner's id in its WHERE clause, so
// cross-tenant reads are impossible by construction.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"TASKPILOT_BACK-END/internal/models"
)

// ErrNotFound is returned when a row is absent or not owned by the caller.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that already exists.
var ErrDuplicateEmail = errors.New("user already exists")

// DB is the subset of pgxpool.Pool the repositories use.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// SessionRepository persists login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

// TaskFilter selects a page of tasks. Status "all" and empty Search disable
// the respective predicates.
type TaskFilter struct {
	Status string
	Search string
	Limit  int
	Offset int
}

// TaskRepository persists tasks. All operations are scoped to the owning user.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error)
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]models.Task, int, error)
	Update(ctx context.Context, userID uuid.UUID, task *models.Task) error
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
}

// VerificationRepository persists one-time password-reset codes.
type VerificationRepository interface {
	Create(ctx context.Context, userID uuid.UUID, email, code string, expiresAt time.Time) error
	GetLatest(ctx context.Context, userID uuid.UUID, email string) (*models.Verification, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
}

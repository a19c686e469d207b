package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"TASKPILOT_BACK-END/internal/models"
)

// PostgresSessionRepository implements SessionRepository on a pgx connection pool.
type PostgresSessionRepository struct {
	db DB
}

// NewPostgresSessionRepository creates a new PostgresSessionRepository instance
func NewPostgresSessionRepository(db DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// Create inserts a session row.
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the session with the given id, or (nil, nil) when absent —
// an unknown session id is "no session", not a fault.
func (r *PostgresSessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = $1`,
		id).Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return session, nil
}

// Delete removes a session row; deleting an absent session is a no-op.
func (r *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"TASKPILOT_BACK-END/internal/models"
)

// PostgresVerificationRepository implements VerificationRepository on a pgx pool.
type PostgresVerificationRepository struct {
	db DB
}

// NewPostgresVerificationRepository creates a new PostgresVerificationRepository instance
func NewPostgresVerificationRepository(db DB) *PostgresVerificationRepository {
	return &PostgresVerificationRepository{db: db}
}

// Create stores a fresh verification code.
func (r *PostgresVerificationRepository) Create(ctx context.Context, userID uuid.UUID, email, code string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO auth_verifications (id, user_id, email, code, used, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, FALSE, $5, $6)`,
		uuid.New(), userID, email, code, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetLatest returns the newest verification row for the user/email pair.
func (r *PostgresVerificationRepository) GetLatest(ctx context.Context, userID uuid.UUID, email string) (*models.Verification, error) {
	v := &models.Verification{}
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, email, code, used, expires_at, created_at
		 FROM auth_verifications
		 WHERE user_id = $1 AND email = $2
		 ORDER BY created_at DESC LIMIT 1`,
		userID, email).Scan(&v.ID, &v.UserID, &v.Email, &v.Code, &v.Used, &v.ExpiresAt, &v.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return v, nil
}

// MarkUsed flags a code as consumed so it cannot be replayed.
func (r *PostgresVerificationRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE auth_verifications SET used = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

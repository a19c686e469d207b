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

// taskFilterPredicate is shared by List's count and page queries so that
// total_count always matches the rows the page query would return.
// $1 = owner id, $2 = status or 'all', $3 = title substring or ''.
const taskFilterPredicate = `
	  WHERE user_id = $1
	    AND ($2 = 'all' OR status::text = $2)
	    AND ($3 = '' OR title ILIKE '%' || $3 || '%')`

// PostgresTaskRepository implements TaskRepository on a pgx connection pool.
type PostgresTaskRepository struct {
	db DB
}

// NewPostgresTaskRepository creates a new PostgresTaskRepository instance
func NewPostgresTaskRepository(db DB) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db}
}

// Create inserts a task for its owning user.
func (r *PostgresTaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (id, title, description, status, image_key, user_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		task.ID, task.Title, task.Description, task.Status, task.ImageKey,
		task.UserID, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns the task only when it belongs to userID; a task owned by
// someone else is indistinguishable from an absent one (ErrNotFound).
func (r *PostgresTaskRepository) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*models.Task, error) {
	task := &models.Task{}
	err := r.db.QueryRow(ctx,
		`SELECT id, title, description, status, image_key, user_id, created_at, updated_at
		 FROM tasks WHERE user_id = $1 AND id = $2`,
		userID, taskID).Scan(&task.ID, &task.Title, &task.Description, &task.Status,
		&task.ImageKey, &task.UserID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return task, nil
}

// List returns one page of the caller's tasks plus the total row count under
// the identical filter, ordered by most recently updated first.
func (r *PostgresTaskRepository) List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]models.Task, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM tasks`+taskFilterPredicate,
		userID, filter.Status, filter.Search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, status, image_key, user_id, created_at, updated_at
		 FROM tasks`+taskFilterPredicate+`
	  ORDER BY updated_at DESC
	     LIMIT $4 OFFSET $5`,
		userID, filter.Status, filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0, filter.Limit)
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.Description, &task.Status,
			&task.ImageKey, &task.UserID, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("db error: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	return tasks, total, nil
}

// Update rewrites title, description, status and image key of the caller's
// task. ErrNotFound when the row is absent or owned by another user.
func (r *PostgresTaskRepository) Update(ctx context.Context, userID uuid.UUID, task *models.Task) error {
	task.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, status = $3, image_key = $4, updated_at = $5
		 WHERE user_id = $6 AND id = $7`,
		task.Title, task.Description, task.Status, task.ImageKey, task.UpdatedAt,
		userID, task.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the caller's task. ErrNotFound when absent or not owned.
func (r *PostgresTaskRepository) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM tasks WHERE user_id = $1 AND id = $2`,
		userID, taskID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jengzang/location-bridge-go/internal/models"
)

// TaskRepository persists registered background tasks
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Upsert registers a task or replaces the options of an existing one
func (r *TaskRepository) Upsert(ctx context.Context, name string, consumer models.ConsumerKind, options json.RawMessage) error {
	if len(options) == 0 {
		options = json.RawMessage("{}")
	}
	query := `INSERT INTO tasks (name, consumer, options) VALUES (?, ?, ?)
		ON CONFLICT(name, consumer) DO UPDATE SET options = excluded.options, updated_at = CURRENT_TIMESTAMP`

	if _, err := r.db.ExecContext(ctx, query, name, string(consumer), string(options)); err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

// Delete removes a task, reporting whether it existed
func (r *TaskRepository) Delete(ctx context.Context, name string, consumer models.ConsumerKind) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE name = ? AND consumer = ?", name, string(consumer))
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n > 0, nil
}

// Get returns one task, nil when it is not registered
func (r *TaskRepository) Get(ctx context.Context, name string, consumer models.ConsumerKind) (*models.Task, error) {
	query := `SELECT id, name, consumer, options, created_at, updated_at FROM tasks WHERE name = ? AND consumer = ?`

	t, err := scanTask(r.db.QueryRowContext(ctx, query, name, string(consumer)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// List returns every registered task, optionally limited to one consumer kind
func (r *TaskRepository) List(ctx context.Context, consumer models.ConsumerKind) ([]models.Task, error) {
	query := `SELECT id, name, consumer, options, created_at, updated_at FROM tasks`
	var args []interface{}
	if consumer != "" {
		query += " WHERE consumer = ?"
		args = append(args, string(consumer))
	}
	query += " ORDER BY name, consumer"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanTask(s rowScanner) (models.Task, error) {
	var (
		t        models.Task
		consumer string
		options  string
	)
	if err := s.Scan(&t.ID, &t.Name, &consumer, &options, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	t.Consumer = models.ConsumerKind(consumer)
	t.Options = json.RawMessage(options)
	return t, nil
}

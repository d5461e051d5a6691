package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

const selectTaskQuery = `
SELECT t.id,
       t.title,
       t.description,
       t.due_date,
       t.priority,
       t.category,
       t.status,
       t.creator_id,
       COALESCE(u.username, ''),
       t.created_at,
       t.updated_at
FROM tasks t
LEFT JOIN users u ON u.id = t.creator_id
`

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Priority,
		&task.Category,
		&task.Status,
		&task.CreatorID,
		&task.CreatorUsername,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	const insertTaskQuery = `
INSERT INTO tasks (title,
                   description,
                   due_date,
                   priority,
                   category,
                   status,
                   creator_id,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id
`
	err := s.pool.QueryRow(
		ctx,
		insertTaskQuery,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Category,
		task.Status,
		task.CreatorID,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	task, err := scanTask(s.pool.QueryRow(ctx, selectTaskQuery+"WHERE t.id = $1", taskID))
	if err != nil {
		return nil, fmt.Errorf("failed to select task: %w", mapError(err))
	}
	return task, nil
}

func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	const whereClause = `
WHERE $1::BIGINT IS NULL OR t.creator_id = $1
ORDER BY t.created_at DESC, t.id DESC
`
	rows, err := s.pool.Query(ctx, selectTaskQuery+whereClause, filter.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", mapError(err))
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    due_date = $3,
    priority = $4,
    category = $5,
    status = $6,
    updated_at = $7
WHERE id = $8
`
	tag, err := s.pool.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.DueDate,
		task.Priority,
		task.Category,
		task.Status,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update task: %w", storage.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdateTaskStatus(ctx context.Context, task *models.Task) error {
	const updateTaskStatusQuery = `
UPDATE tasks
SET status = $1,
    updated_at = $2
WHERE id = $3
`
	tag, err := s.pool.Exec(
		ctx,
		updateTaskStatusQuery,
		task.Status,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update task status: %w", storage.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, taskID int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM tasks WHERE id = $1", taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete task: %w", storage.ErrNotFound)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adanyl0v/go-task-delivery/internal/models"
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
       COALESCE(u.username, '') AS creator_username,
       t.created_at,
       t.updated_at
FROM tasks t
LEFT JOIN users u ON u.id = t.creator_id
`

type taskRow struct {
	ID              int64        `db:"id"`
	Title           string       `db:"title"`
	Description     string       `db:"description"`
	DueDate         sql.NullTime `db:"due_date"`
	Priority        string       `db:"priority"`
	Category        string       `db:"category"`
	Status          string       `db:"status"`
	CreatorID       int64        `db:"creator_id"`
	CreatorUsername string       `db:"creator_username"`
	CreatedAt       time.Time    `db:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at"`
}

func (r *taskRow) model() *models.Task {
	task := &models.Task{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Priority:        r.Priority,
		Category:        r.Category,
		Status:          r.Status,
		CreatorID:       r.CreatorID,
		CreatorUsername: r.CreatorUsername,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.DueDate.Valid {
		dueDate := r.DueDate.Time
		task.DueDate = &dueDate
	}
	return task
}

func utc(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	const insertTaskQuery = `
INSERT INTO tasks (title, description, due_date, priority, category, status, creator_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`
	err := s.db.GetContext(
		ctx,
		&task.ID,
		insertTaskQuery,
		task.Title,
		task.Description,
		utc(task.DueDate),
		task.Priority,
		task.Category,
		task.Status,
		task.CreatorID,
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", mapError(err))
	}
	return nil
}

func (s *Store) GetTask(ctx context.Context, taskID int64) (*models.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, selectTaskQuery+"WHERE t.id = ?", taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to select task: %w", mapError(err))
	}
	return row.model(), nil
}

func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	const whereClause = `
WHERE ? IS NULL OR t.creator_id = ?
ORDER BY t.created_at DESC, t.id DESC
`
	var rows []taskRow
	err := s.db.SelectContext(ctx, &rows, selectTaskQuery+whereClause, filter.CreatorID, filter.CreatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to select tasks: %w", mapError(err))
	}

	tasks := make([]*models.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].model())
	}
	return tasks, nil
}

func (s *Store) UpdateTask(ctx context.Context, task *models.Task) error {
	const updateTaskQuery = `
UPDATE tasks
SET title = ?, description = ?, due_date = ?, priority = ?, category = ?, status = ?, updated_at = ?
WHERE id = ?
`
	res, err := s.db.ExecContext(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		utc(task.DueDate),
		task.Priority,
		task.Category,
		task.Status,
		task.UpdatedAt.UTC(),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", mapError(err))
	}
	return requireAffected(res, "failed to update task")
}

func (s *Store) UpdateTaskStatus(ctx context.Context, task *models.Task) error {
	res, err := s.db.ExecContext(
		ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		task.Status,
		task.UpdatedAt.UTC(),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", mapError(err))
	}
	return requireAffected(res, "failed to update task status")
}

func (s *Store) DeleteTask(ctx context.Context, taskID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", mapError(err))
	}
	return requireAffected(res, "failed to delete task")
}

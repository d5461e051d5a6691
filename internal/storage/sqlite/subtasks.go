package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/adanyl0v/go-task-delivery/internal/models"
)

type subtaskRow struct {
	ID          int64     `db:"id"`
	TaskID      int64     `db:"task_id"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (s *Store) ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	const selectSubtasksByTaskIDQuery = `
SELECT id, task_id, description, status, created_at, updated_at
FROM subtasks
WHERE task_id = ?
ORDER BY created_at, id
`
	var rows []subtaskRow
	err := s.db.SelectContext(ctx, &rows, selectSubtasksByTaskIDQuery, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to select subtasks: %w", mapError(err))
	}

	subtasks := make([]*models.Subtask, 0, len(rows))
	for _, row := range rows {
		subtasks = append(subtasks, &models.Subtask{
			ID:          row.ID,
			TaskID:      row.TaskID,
			Description: row.Description,
			Status:      row.Status,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return subtasks, nil
}

func (s *Store) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	const insertSubtaskQuery = `
INSERT INTO subtasks (task_id, description, status, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id
`
	err := s.db.GetContext(
		ctx,
		&subtask.ID,
		insertSubtaskQuery,
		subtask.TaskID,
		subtask.Description,
		subtask.Status,
		subtask.CreatedAt.UTC(),
		subtask.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert subtask: %w", mapError(err))
	}
	return nil
}

func (s *Store) UpdateSubtask(ctx context.Context, subtask *models.Subtask) error {
	const updateSubtaskQuery = `
UPDATE subtasks
SET description = ?, status = ?, updated_at = ?
WHERE id = ? AND task_id = ?
`
	res, err := s.db.ExecContext(
		ctx,
		updateSubtaskQuery,
		subtask.Description,
		subtask.Status,
		subtask.UpdatedAt.UTC(),
		subtask.ID,
		subtask.TaskID,
	)
	if err != nil {
		return fmt.Errorf("failed to update subtask: %w", mapError(err))
	}
	err = requireAffected(res, "failed to update subtask")
	if err != nil {
		return err
	}

	// RETURNING columns carry no declared type, so the timestamp would
	// come back as text.
	err = s.db.GetContext(ctx, &subtask.CreatedAt, "SELECT created_at FROM subtasks WHERE id = ?", subtask.ID)
	if err != nil {
		return fmt.Errorf("failed to select subtask: %w", mapError(err))
	}
	return nil
}

func (s *Store) DeleteSubtask(ctx context.Context, taskID, subtaskID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ? AND task_id = ?", subtaskID, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", mapError(err))
	}
	return requireAffected(res, "failed to delete subtask")
}

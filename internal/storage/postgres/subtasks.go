package postgres

import (
	"context"
	"fmt"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

func (s *Store) ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	const selectSubtasksByTaskIDQuery = `
SELECT id,
       task_id,
       description,
       status,
       created_at,
       updated_at
FROM subtasks
WHERE task_id = $1
ORDER BY created_at, id
`
	rows, err := s.pool.Query(ctx, selectSubtasksByTaskIDQuery, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to select subtasks: %w", mapError(err))
	}
	defer rows.Close()

	subtasks := make([]*models.Subtask, 0)
	for rows.Next() {
		subtask := new(models.Subtask)
		err = rows.Scan(
			&subtask.ID,
			&subtask.TaskID,
			&subtask.Description,
			&subtask.Status,
			&subtask.CreatedAt,
			&subtask.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subtask: %w", err)
		}
		subtasks = append(subtasks, subtask)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return subtasks, nil
}

func (s *Store) CreateSubtask(ctx context.Context, subtask *models.Subtask) error {
	const insertSubtaskQuery = `
INSERT INTO subtasks (task_id,
                      description,
                      status,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`
	err := s.pool.QueryRow(
		ctx,
		insertSubtaskQuery,
		subtask.TaskID,
		subtask.Description,
		subtask.Status,
		subtask.CreatedAt,
		subtask.UpdatedAt,
	).Scan(&subtask.ID)
	if err != nil {
		return fmt.Errorf("failed to insert subtask: %w", mapError(err))
	}
	return nil
}

func (s *Store) UpdateSubtask(ctx context.Context, subtask *models.Subtask) error {
	const updateSubtaskQuery = `
UPDATE subtasks
SET description = $1,
    status = $2,
    updated_at = $3
WHERE id = $4 AND task_id = $5
RETURNING created_at
`
	err := s.pool.QueryRow(
		ctx,
		updateSubtaskQuery,
		subtask.Description,
		subtask.Status,
		subtask.UpdatedAt,
		subtask.ID,
		subtask.TaskID,
	).Scan(&subtask.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update subtask: %w", mapError(err))
	}
	return nil
}

func (s *Store) DeleteSubtask(ctx context.Context, taskID, subtaskID int64) error {
	tag, err := s.pool.Exec(
		ctx,
		"DELETE FROM subtasks WHERE id = $1 AND task_id = $2",
		subtaskID,
		taskID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete subtask: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete subtask: %w", storage.ErrNotFound)
	}
	return nil
}

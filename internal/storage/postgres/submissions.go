package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

const selectSubmissionQuery = `
SELECT s.task_id,
       s.user_id,
       u.username,
       s.submitted_at,
       s.file_reference
FROM submissions s
JOIN users u ON u.id = s.user_id
`

func scanSubmission(row pgx.Row) (*models.Submission, error) {
	var submission models.Submission
	err := row.Scan(
		&submission.TaskID,
		&submission.UserID,
		&submission.Username,
		&submission.SubmittedAt,
		&submission.FileReference,
	)
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// InsertSubmission creates a submission without touching an existing
// one. It returns storage.ErrAlreadyExists when the pair is taken.
func (s *Store) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	const insertSubmissionQuery = `
INSERT INTO submissions (task_id,
                         user_id,
                         submitted_at,
                         file_reference)
VALUES ($1, $2, $3, $4)
ON CONFLICT (task_id, user_id) DO NOTHING
RETURNING task_id
`
	var taskID int64
	err := s.pool.QueryRow(
		ctx,
		insertSubmissionQuery,
		submission.TaskID,
		submission.UserID,
		submission.SubmittedAt,
		submission.FileReference,
	).Scan(&taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to insert submission: %w", storage.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert submission: %w", mapError(err))
	}
	return nil
}

// UpsertSubmission creates or overwrites the submission of the pair and
// returns the file reference it replaced, if any.
func (s *Store) UpsertSubmission(ctx context.Context, submission *models.Submission) (*string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serializes writers of the pair. FOR UPDATE below locks nothing
	// while the row does not exist yet.
	const lockSubmissionQuery = `
SELECT pg_advisory_xact_lock(hashtextextended('submission:' || $1::BIGINT || ':' || $2::BIGINT, 0))
`
	_, err = tx.Exec(ctx, lockSubmissionQuery, submission.TaskID, submission.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock submission: %w", mapError(err))
	}

	const selectFileReferenceForUpdateQuery = `
SELECT file_reference
FROM submissions
WHERE task_id = $1 AND user_id = $2
FOR UPDATE
`
	var previous *string
	err = tx.QueryRow(
		ctx,
		selectFileReferenceForUpdateQuery,
		submission.TaskID,
		submission.UserID,
	).Scan(&previous)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to select submission: %w", mapError(err))
	}

	const upsertSubmissionQuery = `
INSERT INTO submissions (task_id,
                         user_id,
                         submitted_at,
                         file_reference)
VALUES ($1, $2, $3, $4)
ON CONFLICT (task_id, user_id) DO UPDATE
SET submitted_at = EXCLUDED.submitted_at,
    file_reference = EXCLUDED.file_reference
`
	_, err = tx.Exec(
		ctx,
		upsertSubmissionQuery,
		submission.TaskID,
		submission.UserID,
		submission.SubmittedAt,
		submission.FileReference,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert submission: %w", mapError(err))
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return previous, nil
}

func (s *Store) GetSubmission(ctx context.Context, taskID, userID int64) (*models.Submission, error) {
	submission, err := scanSubmission(s.pool.QueryRow(
		ctx,
		selectSubmissionQuery+"WHERE s.task_id = $1 AND s.user_id = $2",
		taskID,
		userID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to select submission: %w", mapError(err))
	}
	return submission, nil
}

func (s *Store) ListSubmissions(ctx context.Context, taskID int64) ([]*models.Submission, error) {
	const whereClause = `
WHERE s.task_id = $1
ORDER BY s.submitted_at, s.user_id
`
	rows, err := s.pool.Query(ctx, selectSubmissionQuery+whereClause, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to select submissions: %w", mapError(err))
	}
	defer rows.Close()

	submissions := make([]*models.Submission, 0)
	for rows.Next() {
		submission, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		submissions = append(submissions, submission)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return submissions, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

type submissionRow struct {
	TaskID        int64          `db:"task_id"`
	UserID        int64          `db:"user_id"`
	Username      string         `db:"username"`
	SubmittedAt   time.Time      `db:"submitted_at"`
	FileReference sql.NullString `db:"file_reference"`
}

func (r *submissionRow) model() *models.Submission {
	submission := &models.Submission{
		TaskID:      r.TaskID,
		UserID:      r.UserID,
		Username:    r.Username,
		SubmittedAt: r.SubmittedAt,
	}
	if r.FileReference.Valid {
		ref := r.FileReference.String
		submission.FileReference = &ref
	}
	return submission
}

// InsertSubmission creates a submission without touching an existing
// one. It returns storage.ErrAlreadyExists when the pair is taken.
func (s *Store) InsertSubmission(ctx context.Context, submission *models.Submission) error {
	const insertSubmissionQuery = `
INSERT INTO submissions (task_id, user_id, submitted_at, file_reference)
VALUES (?, ?, ?, ?)
ON CONFLICT (task_id, user_id) DO NOTHING
RETURNING task_id
`
	var taskID int64
	err := s.db.GetContext(
		ctx,
		&taskID,
		insertSubmissionQuery,
		submission.TaskID,
		submission.UserID,
		submission.SubmittedAt.UTC(),
		submission.FileReference,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to insert submission: %w", storage.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to insert submission: %w", mapError(err))
	}
	return nil
}

// UpsertSubmission creates or overwrites the submission of the pair and
// returns the file reference it replaced, if any.
func (s *Store) UpsertSubmission(ctx context.Context, submission *models.Submission) (*string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var previous sql.NullString
	err = tx.GetContext(
		ctx,
		&previous,
		"SELECT file_reference FROM submissions WHERE task_id = ? AND user_id = ?",
		submission.TaskID,
		submission.UserID,
	)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to select submission: %w", mapError(err))
	}

	const upsertSubmissionQuery = `
INSERT INTO submissions (task_id, user_id, submitted_at, file_reference)
VALUES (?, ?, ?, ?)
ON CONFLICT (task_id, user_id) DO UPDATE
SET submitted_at = excluded.submitted_at,
    file_reference = excluded.file_reference
`
	_, err = tx.ExecContext(
		ctx,
		upsertSubmissionQuery,
		submission.TaskID,
		submission.UserID,
		submission.SubmittedAt.UTC(),
		submission.FileReference,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert submission: %w", mapError(err))
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if !previous.Valid {
		return nil, nil
	}
	return &previous.String, nil
}

func (s *Store) GetSubmission(ctx context.Context, taskID, userID int64) (*models.Submission, error) {
	var row submissionRow
	err := s.db.GetContext(
		ctx,
		&row,
		selectSubmissionQuery+"WHERE s.task_id = ? AND s.user_id = ?",
		taskID,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select submission: %w", mapError(err))
	}
	return row.model(), nil
}

func (s *Store) ListSubmissions(ctx context.Context, taskID int64) ([]*models.Submission, error) {
	var rows []submissionRow
	err := s.db.SelectContext(
		ctx,
		&rows,
		selectSubmissionQuery+"WHERE s.task_id = ? ORDER BY s.submitted_at, s.user_id",
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select submissions: %w", mapError(err))
	}

	submissions := make([]*models.Submission, 0, len(rows))
	for i := range rows {
		submissions = append(submissions, rows[i].model())
	}
	return submissions, nil
}

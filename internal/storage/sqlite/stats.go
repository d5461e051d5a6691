package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/adanyl0v/go-task-delivery/internal/models"
)

// CountTasksByStatus counts tasks per status. A nil creatorID counts
// every task.
func (s *Store) CountTasksByStatus(ctx context.Context, creatorID *int64) (map[string]int, error) {
	const countTasksByStatusQuery = `
SELECT status,
       COUNT(*) AS count
FROM tasks
WHERE ? IS NULL OR creator_id = ?
GROUP BY status
`
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err := s.db.SelectContext(ctx, &rows, countTasksByStatusQuery, creatorID, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", mapError(err))
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// MemberStats aggregates submissions per member. A nil userID selects
// every member.
//
// Aggregation happens here rather than in SQL: SQLite drops the column
// type of MAX(submitted_at), so the driver would hand back raw text.
func (s *Store) MemberStats(ctx context.Context, userID *int64) ([]*models.MemberStats, error) {
	const selectMemberSubmissionsQuery = `
SELECT u.id AS user_id,
       u.username,
       s.submitted_at,
       s.file_reference
FROM users u
LEFT JOIN submissions s ON s.user_id = u.id
WHERE u.role = 'member' AND (? IS NULL OR u.id = ?)
ORDER BY u.username, u.id
`
	var rows []struct {
		UserID        int64          `db:"user_id"`
		Username      string         `db:"username"`
		SubmittedAt   sql.NullTime   `db:"submitted_at"`
		FileReference sql.NullString `db:"file_reference"`
	}
	err := s.db.SelectContext(ctx, &rows, selectMemberSubmissionsQuery, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select member stats: %w", mapError(err))
	}

	stats := make([]*models.MemberStats, 0)
	var current *models.MemberStats
	for _, row := range rows {
		if current == nil || current.UserID != row.UserID {
			current = &models.MemberStats{
				UserID:   row.UserID,
				Username: row.Username,
			}
			stats = append(stats, current)
		}
		if !row.SubmittedAt.Valid {
			continue
		}
		current.Submissions++
		if row.FileReference.Valid {
			current.Files++
		}
		if current.LastSubmittedAt == nil || row.SubmittedAt.Time.After(*current.LastSubmittedAt) {
			submittedAt := row.SubmittedAt.Time
			current.LastSubmittedAt = &submittedAt
		}
	}
	return stats, nil
}

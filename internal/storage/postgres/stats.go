package postgres

import (
	"context"
	"fmt"

	"github.com/adanyl0v/go-task-delivery/internal/models"
)

// CountTasksByStatus counts tasks per status. A nil creatorID counts
// every task.
func (s *Store) CountTasksByStatus(ctx context.Context, creatorID *int64) (map[string]int, error) {
	const countTasksByStatusQuery = `
SELECT status,
       COUNT(*)
FROM tasks
WHERE $1::BIGINT IS NULL OR creator_id = $1
GROUP BY status
`
	rows, err := s.pool.Query(ctx, countTasksByStatusQuery, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", mapError(err))
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		err = rows.Scan(&status, &count)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task count: %w", err)
		}
		counts[status] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return counts, nil
}

// MemberStats aggregates submissions per member. A nil userID selects
// every member.
func (s *Store) MemberStats(ctx context.Context, userID *int64) ([]*models.MemberStats, error) {
	const selectMemberStatsQuery = `
SELECT u.id,
       u.username,
       COUNT(s.task_id),
       COUNT(s.file_reference),
       MAX(s.submitted_at)
FROM users u
LEFT JOIN submissions s ON s.user_id = u.id
WHERE u.role = 'member' AND ($1::BIGINT IS NULL OR u.id = $1)
GROUP BY u.id, u.username
ORDER BY u.username
`
	rows, err := s.pool.Query(ctx, selectMemberStatsQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select member stats: %w", mapError(err))
	}
	defer rows.Close()

	stats := make([]*models.MemberStats, 0)
	for rows.Next() {
		member := new(models.MemberStats)
		err = rows.Scan(
			&member.UserID,
			&member.Username,
			&member.Submissions,
			&member.Files,
			&member.LastSubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member stats: %w", err)
		}
		stats = append(stats, member)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate over rows: %w", err)
	}
	return stats, nil
}

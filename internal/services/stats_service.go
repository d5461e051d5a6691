package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-delivery/internal/models"
)

type statsServiceImpl struct {
	logger zerolog.Logger
	stats  StatsRepository
}

func NewStatsService(
	logger zerolog.Logger,
	stats StatsRepository,
) StatsService {
	return &statsServiceImpl{
		logger: logger,
		stats:  stats,
	}
}

func (s *statsServiceImpl) GetStats(ctx context.Context, requester models.Identity) (*models.Stats, error) {
	var userID *int64
	if requester.Role != models.RoleAdmin {
		userID = &requester.ID
	}

	byStatus, err := s.stats.CountTasksByStatus(ctx, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count tasks by status")
		return nil, err
	}

	members, err := s.stats.MemberStats(ctx, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select member stats")
		return nil, err
	}

	stats := &models.Stats{
		TasksByStatus: make(map[string]int, len(models.TaskStatuses)),
		Members:       members,
	}
	for _, status := range models.TaskStatuses {
		stats.TasksByStatus[status] = 0
	}
	for status, count := range byStatus {
		stats.TasksByStatus[status] = count
		stats.TotalTasks += count
	}
	for _, member := range members {
		stats.TotalSubmissions += member.Submissions
	}

	s.logger.Info().
		Int64("user_id", requester.ID).
		Int("total_tasks", stats.TotalTasks).
		Msg("computed stats")
	return stats, nil
}

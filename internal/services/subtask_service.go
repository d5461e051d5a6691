package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

type subtaskServiceImpl struct {
	logger   zerolog.Logger
	tasks    TaskRepository
	subtasks SubtaskRepository
}

func NewSubtaskService(
	logger zerolog.Logger,
	tasks TaskRepository,
	subtasks SubtaskRepository,
) SubtaskService {
	return &subtaskServiceImpl{
		logger:   logger,
		tasks:    tasks,
		subtasks: subtasks,
	}
}

func (s *subtaskServiceImpl) GetSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	_, err := getTask(ctx, s.logger, s.tasks, taskID)
	if err != nil {
		return nil, err
	}

	subtasks, err := s.subtasks.ListSubtasks(ctx, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select subtasks")
		return nil, err
	}

	s.logger.Info().
		Int("count", len(subtasks)).
		Int64("task_id", taskID).
		Msg("subtasks found")
	return subtasks, nil
}

func (s *subtaskServiceImpl) CreateSubtask(ctx context.Context, params CreateSubtaskParams) (*models.Subtask, error) {
	now := time.Now()
	subtask := &models.Subtask{
		TaskID:      params.TaskID,
		Description: params.Description,
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.subtasks.CreateSubtask(ctx, subtask)
	if err != nil {
		if errors.Is(err, storage.ErrReferenceNotFound) {
			s.logger.Error().
				Int64("task_id", subtask.TaskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert subtask")
		return nil, err
	}

	s.logger.Info().
		Int64("subtask_id", subtask.ID).
		Int64("task_id", subtask.TaskID).
		Msg("created subtask")
	return subtask, nil
}

func (s *subtaskServiceImpl) UpdateSubtask(ctx context.Context, params UpdateSubtaskParams) (*models.Subtask, error) {
	if !models.IsValidTaskStatus(params.Status) {
		s.logger.Error().
			Str("status", params.Status).
			Msg("invalid subtask status")
		return nil, ErrInvalidTaskStatus
	}

	subtask := &models.Subtask{
		ID:          params.ID,
		TaskID:      params.TaskID,
		Description: params.Description,
		Status:      params.Status,
		UpdatedAt:   time.Now(),
	}
	err := s.subtasks.UpdateSubtask(ctx, subtask)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Int64("subtask_id", subtask.ID).
				Int64("task_id", subtask.TaskID).
				Msg("subtask not found")
			return nil, ErrSubtaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("subtask_id", subtask.ID).
			Msg("failed to update subtask")
		return nil, err
	}

	s.logger.Info().
		Int64("subtask_id", subtask.ID).
		Msg("updated subtask")
	return subtask, nil
}

func (s *subtaskServiceImpl) DeleteSubtask(ctx context.Context, taskID, subtaskID int64) error {
	err := s.subtasks.DeleteSubtask(ctx, taskID, subtaskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Int64("subtask_id", subtaskID).
				Int64("task_id", taskID).
				Msg("subtask not found")
			return ErrSubtaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("subtask_id", subtaskID).
			Msg("failed to delete subtask")
		return err
	}

	s.logger.Info().
		Int64("subtask_id", subtaskID).
		Msg("deleted subtask")
	return nil
}

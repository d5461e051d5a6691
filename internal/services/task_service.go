package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	tasks  TaskRepository
}

func NewTaskService(
	logger zerolog.Logger,
	tasks TaskRepository,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		tasks:  tasks,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Priority:    params.Priority,
		Category:    params.Category,
		Status:      models.StatusPending,
		CreatorID:   params.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.tasks.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Int64("task_id", task.ID).
		Msg("inserted task")

	created, err := s.getTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Int64("creator_id", task.CreatorID).
		Msg("created task")
	return created, nil
}

func (s *taskServiceImpl) GetTasks(ctx context.Context, requester models.Identity) ([]*models.Task, error) {
	var filter models.TaskFilter
	if requester.Role != models.RoleAdmin {
		filter.CreatorID = &requester.ID
	}

	tasks, err := s.tasks.ListTasks(ctx, filter)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}

	s.logger.Info().
		Int("count", len(tasks)).
		Int64("user_id", requester.ID).
		Msg("tasks found")
	return tasks, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	if params.Status != "" && !models.IsValidTaskStatus(params.Status) {
		s.logger.Error().
			Str("status", params.Status).
			Msg("invalid task status")
		return nil, ErrInvalidTaskStatus
	}

	task, err := s.getTask(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	task.Title = params.Title
	task.Description = params.Description
	task.DueDate = params.DueDate
	task.Priority = params.Priority
	task.Category = params.Category
	if params.Status != "" {
		task.Status = params.Status
	}
	task.UpdatedAt = time.Now()

	err = s.tasks.UpdateTask(ctx, task)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Int64("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Msg("updated task")
	return s.getTask(ctx, task.ID)
}

func (s *taskServiceImpl) UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error) {
	if !models.IsValidTaskStatus(params.Status) {
		s.logger.Error().
			Str("status", params.Status).
			Msg("invalid task status")
		return nil, ErrInvalidTaskStatus
	}

	task := &models.Task{
		ID:        params.ID,
		Status:    params.Status,
		UpdatedAt: time.Now(),
	}
	err := s.tasks.UpdateTaskStatus(ctx, task)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Int64("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", task.ID).
			Msg("failed to update task status")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", task.ID).
		Str("status", task.Status).
		Msg("updated task status")
	return s.getTask(ctx, task.ID)
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID int64) error {
	err := s.tasks.DeleteTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Int64("task_id", taskID).
				Msg("task not found")
			return ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to delete task")
		return err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Msg("deleted task")
	return nil
}

func (s *taskServiceImpl) getTask(ctx context.Context, taskID int64) (*models.Task, error) {
	return getTask(ctx, s.logger, s.tasks, taskID)
}

// getTask maps a missing task to ErrTaskNotFound for every service that
// scopes its records by task.
func getTask(ctx context.Context, logger zerolog.Logger, tasks TaskRepository, taskID int64) (*models.Task, error) {
	task, err := tasks.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Error().
				Int64("task_id", taskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select task")
		return nil, err
	}
	return task, nil
}

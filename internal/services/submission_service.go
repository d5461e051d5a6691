package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-task-delivery/internal/filestore"
	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

const defaultSubmissionExt = ".pdf"

type submissionServiceImpl struct {
	logger      zerolog.Logger
	tasks       TaskRepository
	submissions SubmissionRepository
	files       filestore.Store
	now         func() time.Time
}

func NewSubmissionService(
	logger zerolog.Logger,
	tasks TaskRepository,
	submissions SubmissionRepository,
	files filestore.Store,
) SubmissionService {
	return newSubmissionService(logger, tasks, submissions, files, time.Now)
}

func newSubmissionService(
	logger zerolog.Logger,
	tasks TaskRepository,
	submissions SubmissionRepository,
	files filestore.Store,
	now func() time.Time,
) *submissionServiceImpl {
	return &submissionServiceImpl{
		logger:      logger,
		tasks:       tasks,
		submissions: submissions,
		files:       files,
		now:         now,
	}
}

func (s *submissionServiceImpl) RecordSubmission(ctx context.Context, taskID, userID int64) (*models.Submission, error) {
	_, err := getTask(ctx, s.logger, s.tasks, taskID)
	if err != nil {
		return nil, err
	}

	submission := &models.Submission{
		TaskID:      taskID,
		UserID:      userID,
		SubmittedAt: s.now(),
	}
	err = s.submissions.InsertSubmission(ctx, submission)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			s.logger.Error().
				Int64("task_id", taskID).
				Int64("user_id", userID).
				Msg("submission already exists")
			return nil, ErrSubmissionAlreadyExists
		case errors.Is(err, storage.ErrReferenceNotFound):
			s.logger.Error().
				Int64("task_id", taskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert submission")
		return nil, err
	}

	s.logger.Info().
		Int64("task_id", taskID).
		Int64("user_id", userID).
		Msg("recorded submission")
	return s.getSubmission(ctx, taskID, userID)
}

func (s *submissionServiceImpl) UploadSubmission(ctx context.Context, params UploadSubmissionParams) (*models.Submission, error) {
	if params.ContentType != SubmissionContentType {
		s.logger.Error().
			Str("content_type", params.ContentType).
			Msg("unsupported media type")
		return nil, ErrUnsupportedMediaType
	}

	_, err := getTask(ctx, s.logger, s.tasks, params.TaskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ref, err := fileReference(params.TaskID, params.UserID, now, params.Filename)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate file reference")
		return nil, err
	}

	size, err := s.files.Save(ctx, ref, params.Content)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("file", ref).
			Msg("failed to store file")
		return nil, err
	}
	s.logger.Debug().
		Str("file", ref).
		Int64("size", size).
		Msg("stored file")

	submission := &models.Submission{
		TaskID:        params.TaskID,
		UserID:        params.UserID,
		SubmittedAt:   now,
		FileReference: &ref,
	}
	previous, err := s.submissions.UpsertSubmission(ctx, submission)
	if err != nil {
		s.removeFile(ctx, ref)
		if errors.Is(err, storage.ErrReferenceNotFound) {
			s.logger.Error().
				Int64("task_id", params.TaskID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to upsert submission")
		return nil, err
	}

	if previous != nil && *previous != ref {
		s.removeFile(ctx, *previous)
	}

	s.logger.Info().
		Int64("task_id", params.TaskID).
		Int64("user_id", params.UserID).
		Str("file", ref).
		Msg("uploaded submission")
	return s.getSubmission(ctx, params.TaskID, params.UserID)
}

func (s *submissionServiceImpl) GetSubmissions(ctx context.Context, taskID int64) ([]*models.Submission, error) {
	_, err := getTask(ctx, s.logger, s.tasks, taskID)
	if err != nil {
		return nil, err
	}

	submissions, err := s.submissions.ListSubmissions(ctx, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Msg("failed to select submissions")
		return nil, err
	}

	s.logger.Info().
		Int("count", len(submissions)).
		Int64("task_id", taskID).
		Msg("submissions found")
	return submissions, nil
}

func (s *submissionServiceImpl) OpenSubmissionFile(ctx context.Context, params OpenSubmissionFileParams) (*filestore.Object, error) {
	if params.Requester.Role != models.RoleAdmin && params.Requester.ID != params.UserID {
		s.logger.Error().
			Int64("requester_id", params.Requester.ID).
			Int64("user_id", params.UserID).
			Msg("not allowed to open another member's file")
		return nil, ErrForbidden
	}

	submission, err := s.submissions.GetSubmission(ctx, params.TaskID, params.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Int64("task_id", params.TaskID).
				Int64("user_id", params.UserID).
				Msg("submission not found")
			return nil, ErrFileNotFound
		}

		s.logger.Error().
			Err(err).
			Msg("failed to select submission")
		return nil, err
	}
	if !submission.HasFile() {
		s.logger.Error().
			Int64("task_id", params.TaskID).
			Int64("user_id", params.UserID).
			Msg("submission has no file")
		return nil, ErrFileNotFound
	}

	return s.OpenFile(ctx, *submission.FileReference)
}

func (s *submissionServiceImpl) OpenFile(ctx context.Context, name string) (*filestore.Object, error) {
	obj, err := s.files.Open(ctx, name)
	if err != nil {
		if errors.Is(err, filestore.ErrNotExist) || errors.Is(err, filestore.ErrInvalidName) {
			s.logger.Error().
				Str("file", name).
				Msg("file not found")
			return nil, ErrFileNotFound
		}

		s.logger.Error().
			Err(err).
			Str("file", name).
			Msg("failed to open file")
		return nil, err
	}

	s.logger.Info().
		Str("file", name).
		Int64("size", obj.Size).
		Msg("opened file")
	return obj, nil
}

func (s *submissionServiceImpl) getSubmission(ctx context.Context, taskID, userID int64) (*models.Submission, error) {
	submission, err := s.submissions.GetSubmission(ctx, taskID, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int64("task_id", taskID).
			Int64("user_id", userID).
			Msg("failed to select submission")
		return nil, err
	}
	return submission, nil
}

func (s *submissionServiceImpl) removeFile(ctx context.Context, name string) {
	err := s.files.Remove(ctx, name)
	if err != nil && !errors.Is(err, filestore.ErrNotExist) {
		s.logger.Warn().
			Err(err).
			Str("file", name).
			Msg("failed to remove file")
		return
	}
	s.logger.Debug().
		Str("file", name).
		Msg("removed file")
}

// fileReference builds "<task>_<user>_<unix ms>_<random><ext>". The
// random part keeps two uploads in the same millisecond apart.
func fileReference(taskID, userID int64, now time.Time, filename string) (string, error) {
	suffix, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}

	return fmt.Sprintf("%d_%d_%d_%s%s",
		taskID, userID, now.UnixMilli(),
		strings.ReplaceAll(suffix.String(), "-", "")[:8],
		submissionExt(filename)), nil
}

func submissionExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 8 {
		return defaultSubmissionExt
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return defaultSubmissionExt
		}
	}
	return ext
}

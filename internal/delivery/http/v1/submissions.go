package v1

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-delivery/internal/filestore"
	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/services"
)

const submissionFileField = "file"

type getSubmissionResponse struct {
	TaskID        int64     `json:"task_id"`
	UserID        int64     `json:"user_id"`
	Username      string    `json:"username"`
	SubmittedAt   time.Time `json:"submitted_at"`
	FileReference *string   `json:"file_reference"`
	FileURL       *string   `json:"file_url"`
}

func (h *handlerImpl) newGetSubmissionResponse(submission *models.Submission) getSubmissionResponse {
	resp := getSubmissionResponse{
		TaskID:      submission.TaskID,
		UserID:      submission.UserID,
		Username:    submission.Username,
		SubmittedAt: submission.SubmittedAt,
	}
	if submission.HasFile() {
		resp.FileReference = submission.FileReference
		fileURL := h.fileURL(submission)
		resp.FileURL = &fileURL
	}
	return resp
}

func (h *handlerImpl) fileURL(submission *models.Submission) string {
	if h.opts.PublicDownloads {
		return "/api/entregas/" + *submission.FileReference
	}
	return fmt.Sprintf("/api/tasks/%d/entregas/%d/archivo", submission.TaskID, submission.UserID)
}

func (h *handlerImpl) HandleGetSubmissions(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	submissions, err := h.submissions.GetSubmissions(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get submissions")
		h.abortSubmissionError(c, err)
		return
	}

	response := make([]getSubmissionResponse, len(submissions))
	for i, submission := range submissions {
		response[i] = h.newGetSubmissionResponse(submission)
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleRecordSubmission(c *gin.Context) {
	identity, ok := h.mustGetIdentity(c)
	if !ok {
		return
	}
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	submission, err := h.submissions.RecordSubmission(c, taskID, identity.ID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to record submission")
		h.abortSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.newGetSubmissionResponse(submission))
}

func (h *handlerImpl) HandleUploadSubmission(c *gin.Context) {
	identity, ok := h.mustGetIdentity(c)
	if !ok {
		return
	}
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	if h.opts.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadSize)
	}

	fileHeader, err := c.FormFile(submissionFileField)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to read form file")
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr),
			strings.Contains(err.Error(), "request body too large"):
			abort(c, newAPIError(http.StatusRequestEntityTooLarge, codePayloadTooLarge,
				errPayloadTooLarge.Error()))
		default:
			abort(c, newAPIError(http.StatusBadRequest, codeFileRequired, errFileRequired.Error()))
		}
		return
	}

	contentType, _, err := mime.ParseMediaType(fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Debug().
			Err(err).
			Msg("failed to parse file content type")
		contentType = ""
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to open form file")
		abort(c, newInternalError())
		return
	}
	defer func() { _ = file.Close() }()

	submission, err := h.submissions.UploadSubmission(c, services.UploadSubmissionParams{
		TaskID:      taskID,
		UserID:      identity.ID,
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Content:     file,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to upload submission")
		h.abortSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.newGetSubmissionResponse(submission))
}

func (h *handlerImpl) HandleDownloadSubmission(c *gin.Context) {
	identity, ok := h.mustGetIdentity(c)
	if !ok {
		return
	}
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	userID, ok := h.paramID(c, "userId")
	if !ok {
		return
	}

	obj, err := h.submissions.OpenSubmissionFile(c, services.OpenSubmissionFileParams{
		TaskID:    taskID,
		UserID:    userID,
		Requester: identity,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to open submission file")
		h.abortSubmissionError(c, err)
		return
	}
	h.sendFile(c, obj)
}

func (h *handlerImpl) HandleDownloadFile(c *gin.Context) {
	obj, err := h.submissions.OpenFile(c, c.Param("filename"))
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to open file")
		h.abortSubmissionError(c, err)
		return
	}
	h.sendFile(c, obj)
}

func (h *handlerImpl) sendFile(c *gin.Context, obj *filestore.Object) {
	defer func() { _ = obj.Close() }()

	c.DataFromReader(http.StatusOK, obj.Size, services.SubmissionContentType, obj,
		map[string]string{
			"Content-Disposition": `attachment; filename="` + obj.Name + `"`,
			"Last-Modified":       obj.ModTime.UTC().Format(http.TimeFormat),
		})
	h.logger.Info().
		Str("file", obj.Name).
		Int64("size", obj.Size).
		Msg("sent file")
}

func (h *handlerImpl) abortSubmissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrFileNotFound):
		abort(c, newNotFoundError(services.ErrFileNotFound.Error()))
	case errors.Is(err, services.ErrForbidden):
		abort(c, newForbiddenError(services.ErrForbidden.Error()))
	case errors.Is(err, services.ErrSubmissionAlreadyExists):
		abort(c, newAPIError(http.StatusBadRequest, codeSubmissionAlreadyExists,
			services.ErrSubmissionAlreadyExists.Error()))
	case errors.Is(err, services.ErrUnsupportedMediaType):
		abort(c, newAPIError(http.StatusUnsupportedMediaType, codeUnsupportedMediaType,
			services.ErrUnsupportedMediaType.Error()))
	default:
		abort(c, newInternalError())
	}
}

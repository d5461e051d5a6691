package v1

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/services"
)

type getTaskResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	DueDate         *string   `json:"due_date"`
	Priority        string    `json:"priority"`
	Category        string    `json:"category"`
	Status          string    `json:"status"`
	CreatorID       int64     `json:"creator_id"`
	CreatorUsername string    `json:"creator_username"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newGetTaskResponse(task *models.Task) getTaskResponse {
	resp := getTaskResponse{
		ID:              task.ID,
		Title:           task.Title,
		Description:     task.Description,
		Priority:        task.Priority,
		Category:        task.Category,
		Status:          task.Status,
		CreatorID:       task.CreatorID,
		CreatorUsername: task.CreatorUsername,
		CreatedAt:       task.CreatedAt,
		UpdatedAt:       task.UpdatedAt,
	}
	if task.DueDate != nil {
		dueDate := task.DueDate.Format(time.DateOnly)
		resp.DueDate = &dueDate
	}
	return resp
}

type createTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date,omitempty"`
	Priority    string  `json:"priority" binding:"max=50"`
	Category    string  `json:"category" binding:"max=100"`
}

func (h *handlerImpl) HandleCreateTask(c *gin.Context) {
	identity, ok := h.mustGetIdentity(c)
	if !ok {
		return
	}

	var req createTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse due date")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	task, err := h.tasks.CreateTask(c, services.CreateTaskParams{
		CreatorID:   identity.ID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
		Category:    req.Category,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create task")
		abort(c, newInternalError())
		return
	}

	c.JSON(http.StatusCreated, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleGetTasks(c *gin.Context) {
	identity, ok := h.mustGetIdentity(c)
	if !ok {
		return
	}

	tasks, err := h.tasks.GetTasks(c, identity)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get tasks")
		abort(c, newInternalError())
		return
	}

	response := make([]getTaskResponse, len(tasks))
	for i, task := range tasks {
		response[i] = newGetTaskResponse(task)
	}
	c.JSON(http.StatusOK, response)
}

type updateTaskRequest struct {
	createTaskRequest
	Status string `json:"status"`
}

func (h *handlerImpl) HandleUpdateTask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse due date")
		abort(c, newBadRequestError(err.Error()))
		return
	}

	task, err := h.tasks.UpdateTask(c, services.UpdateTaskParams{
		ID:          taskID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     dueDate,
		Priority:    req.Priority,
		Category:    req.Category,
		Status:      req.Status,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

type setTaskStatusRequest struct {
	Status string `json:"status" form:"status" binding:"required"`
}

func (h *handlerImpl) HandleSetTaskStatus(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req setTaskStatusRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	task, err := h.tasks.UpdateTaskStatus(c, services.UpdateTaskStatusParams{
		ID:     taskID,
		Status: req.Status,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update task status")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetTaskResponse(task))
}

func (h *handlerImpl) HandleDeleteTask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	err := h.tasks.DeleteTask(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete task")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}

func (h *handlerImpl) abortTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		abort(c, newNotFoundError(services.ErrTaskNotFound.Error()))
	case errors.Is(err, services.ErrSubtaskNotFound):
		abort(c, newNotFoundError(services.ErrSubtaskNotFound.Error()))
	case errors.Is(err, services.ErrInvalidTaskStatus):
		abort(c, newAPIError(http.StatusBadRequest, codeInvalidStatus,
			services.ErrInvalidTaskStatus.Error()))
	default:
		abort(c, newInternalError())
	}
}

// paramID parses a positive integer path parameter, aborting with 400
// otherwise.
func (h *handlerImpl) paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		h.logger.Error().
			Str("param", name).
			Str("value", c.Param(name)).
			Msg("invalid path parameter")
		abort(c, newBadRequestError(errInvalidPathParam.Error()))
		return 0, false
	}
	return id, true
}

func parseDueDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	dueDate, err := time.Parse(time.DateOnly, *value)
	if err != nil {
		// Accept full timestamps too and keep the date part.
		ts, tsErr := time.Parse(time.RFC3339, *value)
		if tsErr != nil {
			return nil, errors.New("due_date must be YYYY-MM-DD")
		}
		dueDate = time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	}
	return &dueDate, nil
}

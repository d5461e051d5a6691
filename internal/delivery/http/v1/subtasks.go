package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/services"
)

type getSubtaskResponse struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newGetSubtaskResponse(subtask *models.Subtask) getSubtaskResponse {
	return getSubtaskResponse{
		ID:          subtask.ID,
		TaskID:      subtask.TaskID,
		Description: subtask.Description,
		Status:      subtask.Status,
		CreatedAt:   subtask.CreatedAt,
		UpdatedAt:   subtask.UpdatedAt,
	}
}

func (h *handlerImpl) HandleGetSubtasks(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	subtasks, err := h.subtasks.GetSubtasks(c, taskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get subtasks")
		h.abortTaskError(c, err)
		return
	}

	response := make([]getSubtaskResponse, len(subtasks))
	for i, subtask := range subtasks {
		response[i] = newGetSubtaskResponse(subtask)
	}
	c.JSON(http.StatusOK, response)
}

type createSubtaskRequest struct {
	Description string `json:"description" binding:"required,max=1000"`
}

func (h *handlerImpl) HandleCreateSubtask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}

	var req createSubtaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	subtask, err := h.subtasks.CreateSubtask(c, services.CreateSubtaskParams{
		TaskID:      taskID,
		Description: req.Description,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create subtask")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGetSubtaskResponse(subtask))
}

type updateSubtaskRequest struct {
	Description string `json:"description" binding:"required,max=1000"`
	Status      string `json:"status" binding:"required"`
}

func (h *handlerImpl) HandleUpdateSubtask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	subtaskID, ok := h.paramID(c, "subtaskId")
	if !ok {
		return
	}

	var req updateSubtaskRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	subtask, err := h.subtasks.UpdateSubtask(c, services.UpdateSubtaskParams{
		ID:          subtaskID,
		TaskID:      taskID,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to update subtask")
		h.abortTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, newGetSubtaskResponse(subtask))
}

func (h *handlerImpl) HandleDeleteSubtask(c *gin.Context) {
	taskID, ok := h.paramID(c, "id")
	if !ok {
		return
	}
	subtaskID, ok := h.paramID(c, "subtaskId")
	if !ok {
		return
	}

	err := h.subtasks.DeleteSubtask(c, taskID, subtaskID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to delete subtask")
		h.abortTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

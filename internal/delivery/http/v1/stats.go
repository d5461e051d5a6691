package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type memberStatsResponse struct {
	UserID          int64      `json:"user_id"`
	Username        string     `json:"username"`
	Submissions     int        `json:"submissions"`
	Files           int        `json:"files"`
	LastSubmittedAt *time.Time `json:"last_submitted_at"`
}

type getStatsResponse struct {
	TotalTasks       int                   `json:"total_tasks"`
	TasksByStatus    map[string]int        `json:"tasks_by_status"`
	TotalSubmissions int                   `json:"total_submissions"`
	Members          []memberStatsResponse `json:"members"`
}

func (h *handlerImpl) HandleGetStats(c *gin.Context) {
	identity, ok := h.mustGetIdentity(c)
	if !ok {
		return
	}

	stats, err := h.stats.GetStats(c, identity)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to get stats")
		abort(c, newInternalError())
		return
	}

	response := getStatsResponse{
		TotalTasks:       stats.TotalTasks,
		TasksByStatus:    stats.TasksByStatus,
		TotalSubmissions: stats.TotalSubmissions,
		Members:          make([]memberStatsResponse, len(stats.Members)),
	}
	for i, member := range stats.Members {
		response.Members[i] = memberStatsResponse{
			UserID:          member.UserID,
			Username:        member.Username,
			Submissions:     member.Submissions,
			Files:           member.Files,
			LastSubmittedAt: member.LastSubmittedAt,
		}
	}
	c.JSON(http.StatusOK, response)
}

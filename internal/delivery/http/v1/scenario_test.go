package v1

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-task-delivery/internal/models"
)

func TestScenario_TaskDelivery(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1 << 20, PublicDownloads: true})
	adminToken := s.login(t, "boss", "admin")
	memberToken := s.login(t, "ana", "")

	w := s.doJSON(t, http.MethodPost, "/api/tasks", adminToken, map[string]any{
		"title":       "Report",
		"description": "Quarterly report",
		"due_date":    "2026-06-30",
		"priority":    "alta",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var task getTaskResponse
	w.decode(t, &task)
	assert.Equal(t, "Report", task.Title)
	assert.Equal(t, models.StatusPending, task.Status)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, "2026-06-30", *task.DueDate)

	w = s.doJSON(t, http.MethodGet, "/api/tasks", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.doJSON(t, http.MethodGet, "/api/tasks", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tasks []getTaskResponse
	w.decode(t, &tasks)
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, "boss", tasks[0].CreatorUsername)

	content := []byte("%PDF-1.4\nfirst version")
	w = s.upload(t, task.ID, memberToken, "report.pdf", "application/pdf", content)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first getSubmissionResponse
	w.decode(t, &first)
	require.NotNil(t, first.FileURL)
	assert.Equal(t, "ana", first.Username)

	submissionsPath := fmt.Sprintf("/api/tasks/%d/entregas", task.ID)
	w = s.doJSON(t, http.MethodGet, submissionsPath, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var submissions []getSubmissionResponse
	w.decode(t, &submissions)
	require.Len(t, submissions, 1)
	require.NotNil(t, submissions[0].FileURL)
	assert.Equal(t, *first.FileURL, *submissions[0].FileURL)

	content = []byte("%PDF-1.4\nsecond version")
	w = s.upload(t, task.ID, memberToken, "report-v2.pdf", "application/pdf", content)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var second getSubmissionResponse
	w.decode(t, &second)
	require.NotNil(t, second.FileReference)
	assert.NotEqual(t, *first.FileReference, *second.FileReference)

	w = s.doJSON(t, http.MethodGet, submissionsPath, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w.decode(t, &submissions)
	require.Len(t, submissions, 1)
	assert.Equal(t, *second.FileReference, *submissions[0].FileReference)

	w = s.do(t, http.MethodGet, *second.FileURL, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), *second.FileReference)

	w = s.do(t, http.MethodGet, *first.FileURL, "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	downloadPath := fmt.Sprintf("/api/tasks/%d/entregas/%d/archivo", task.ID, second.UserID)
	for _, token := range []string{memberToken, adminToken} {
		w = s.do(t, http.MethodGet, downloadPath, token, nil, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, content, w.Body.Bytes())
	}

	otherToken := s.login(t, "luis", "member")
	w = s.do(t, http.MethodGet, downloadPath, otherToken, nil, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, codeForbidden, w.errorCode(t))
}

func TestScenario_RejectsNonPDFUpload(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1 << 20, PublicDownloads: true})
	adminToken := s.login(t, "boss", "admin")
	memberToken := s.login(t, "ana", "member")

	w := s.doJSON(t, http.MethodPost, "/api/tasks", adminToken, map[string]any{"title": "Report"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task getTaskResponse
	w.decode(t, &task)

	w = s.upload(t, task.ID, memberToken, "notes.txt", "text/plain", []byte("hello"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, codeUnsupportedMediaType, w.errorCode(t))

	w = s.upload(t, task.ID, memberToken, "fake.pdf", "image/png", []byte("\x89PNG"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	submissions, err := s.store.ListSubmissions(testContext(t), task.ID)
	require.NoError(t, err)
	assert.Empty(t, submissions)

	w = s.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/entregas/file", task.ID),
		memberToken, strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeFileRequired, w.errorCode(t))
}

func TestScenario_UploadTooLarge(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1024})
	adminToken := s.login(t, "boss", "admin")
	memberToken := s.login(t, "ana", "member")

	w := s.doJSON(t, http.MethodPost, "/api/tasks", adminToken, map[string]any{"title": "Report"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task getTaskResponse
	w.decode(t, &task)

	w = s.upload(t, task.ID, memberToken, "big.pdf", "application/pdf", bytes.Repeat([]byte("x"), 4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, codePayloadTooLarge, w.errorCode(t))
}

func TestScenario_TaskStatus(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1 << 20})
	adminToken := s.login(t, "boss", "admin")
	memberToken := s.login(t, "ana", "member")

	w := s.doJSON(t, http.MethodPost, "/api/tasks", memberToken, map[string]any{"title": "Sneaky"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.doJSON(t, http.MethodPost, "/api/tasks", adminToken, map[string]any{"title": "Report"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task getTaskResponse
	w.decode(t, &task)

	statusPath := fmt.Sprintf("/api/tasks/%d/status", task.ID)
	w = s.doJSON(t, http.MethodPatch, statusPath, memberToken, map[string]string{"status": "Done"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeInvalidStatus, w.errorCode(t))

	stored, err := s.store.GetTask(testContext(t), task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	w = s.doJSON(t, http.MethodPatch, statusPath, memberToken, map[string]string{"status": models.StatusInProgress})
	require.Equal(t, http.StatusOK, w.Code)
	w.decode(t, &task)
	assert.Equal(t, models.StatusInProgress, task.Status)

	w = s.doJSON(t, http.MethodPatch, "/api/tasks/999/status", memberToken, map[string]string{"status": models.StatusCompleted})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.doJSON(t, http.MethodPatch, "/api/tasks/abc/status", memberToken, map[string]string{"status": models.StatusCompleted})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(t, http.MethodGet, "/api/tasks", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScenario_SubtasksAndStats(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1 << 20})
	adminToken := s.login(t, "boss", "admin")
	memberToken := s.login(t, "ana", "member")

	w := s.doJSON(t, http.MethodPost, "/api/tasks", adminToken, map[string]any{"title": "Report"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task getTaskResponse
	w.decode(t, &task)

	subtasksPath := fmt.Sprintf("/api/tasks/%d/subtasks", task.ID)
	w = s.doJSON(t, http.MethodPost, subtasksPath, memberToken, map[string]string{"description": "Outline"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.doJSON(t, http.MethodPost, subtasksPath, adminToken, map[string]string{"description": "Outline"})
	require.Equal(t, http.StatusCreated, w.Code)
	var subtask getSubtaskResponse
	w.decode(t, &subtask)

	w = s.doJSON(t, http.MethodPut, fmt.Sprintf("%s/%d", subtasksPath, subtask.ID), adminToken,
		map[string]string{"description": "Outline v2", "status": models.StatusCompleted})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.doJSON(t, http.MethodGet, subtasksPath, memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var subtasks []getSubtaskResponse
	w.decode(t, &subtasks)
	require.Len(t, subtasks, 1)
	assert.Equal(t, "Outline v2", subtasks[0].Description)

	w = s.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/entregas", task.ID), memberToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var submission getSubmissionResponse
	w.decode(t, &submission)
	assert.Nil(t, submission.FileURL)

	w = s.doJSON(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/entregas", task.ID), memberToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeSubmissionAlreadyExists, w.errorCode(t))

	w = s.doJSON(t, http.MethodGet, "/api/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats getStatsResponse
	w.decode(t, &stats)
	assert.Equal(t, 1, stats.TotalTasks)
	assert.Equal(t, 1, stats.TotalSubmissions)
	require.Len(t, stats.Members, 1)
	assert.Equal(t, "ana", stats.Members[0].Username)

	w = s.doJSON(t, http.MethodGet, "/api/stats", memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats = getStatsResponse{}
	w.decode(t, &stats)
	assert.Equal(t, 0, stats.TotalTasks)
	assert.Equal(t, 0, stats.TasksByStatus[models.StatusPending])
	assert.Equal(t, 1, stats.TotalSubmissions)
	require.Len(t, stats.Members, 1)
	assert.Equal(t, "ana", stats.Members[0].Username)

	w = s.doJSON(t, http.MethodDelete, fmt.Sprintf("%s/%d", subtasksPath, subtask.ID), adminToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.doJSON(t, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", task.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"task deleted"}`, w.Body.String())

	w = s.doJSON(t, http.MethodGet, subtasksPath, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, codeNotFound, w.errorCode(t))
}

func TestScenario_AuthErrors(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1 << 20})
	s.login(t, "ana", "member")

	w := s.doJSON(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "ana",
		"password": "secret-password",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeUsernameTaken, w.errorCode(t))

	w = s.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "ana",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, codeInvalidCredentials, w.errorCode(t))

	w = s.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "nobody",
		"password": "secret-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, codeInvalidCredentials, w.errorCode(t))

	w = s.doJSON(t, http.MethodPost, "/api/register", "", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeBadRequest, w.errorCode(t))
}

func TestScenario_AdminSignupDisabled(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1 << 20, DisableAdminSignup: true})

	w := s.doJSON(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "mallory",
		"password": "secret-password",
		"role":     "admin",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, codeForbidden, w.errorCode(t))

	w = s.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "mallory",
		"password": "secret-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	memberToken := s.login(t, "ana", "member")
	w = s.doJSON(t, http.MethodPost, "/api/tasks", memberToken, map[string]any{"title": "Report"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestScenario_PrivateDownloads(t *testing.T) {
	s := newTestServer(t, Options{MaxUploadSize: 1 << 20, PublicDownloads: false})
	adminToken := s.login(t, "boss", "admin")
	memberToken := s.login(t, "ana", "member")

	w := s.doJSON(t, http.MethodPost, "/api/tasks", adminToken, map[string]any{"title": "Report"})
	require.Equal(t, http.StatusCreated, w.Code)
	var task getTaskResponse
	w.decode(t, &task)

	w = s.upload(t, task.ID, memberToken, "report.pdf", "application/pdf", []byte("%PDF"))
	require.Equal(t, http.StatusCreated, w.Code)
	var submission getSubmissionResponse
	w.decode(t, &submission)
	require.NotNil(t, submission.FileURL)
	assert.Equal(t, fmt.Sprintf("/api/tasks/%d/entregas/%d/archivo", task.ID, submission.UserID), *submission.FileURL)

	w = s.do(t, http.MethodGet, "/api/entregas/"+*submission.FileReference, "", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, *submission.FileURL, memberToken, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

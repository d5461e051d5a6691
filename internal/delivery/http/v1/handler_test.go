package v1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-task-delivery/internal/services"
	"github.com/adanyl0v/go-task-delivery/internal/storage/sqlite"
	"github.com/adanyl0v/go-task-delivery/internal/testutil"
)

const testSigningKey = "test-signing-key"

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *sqlite.Store
	tokens services.TokenService
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	store := testutil.NewTestStore(t)
	files, _ := testutil.NewTestFileStore(t)
	tokens, err := services.NewTokenService("test", []byte(testSigningKey))
	require.NoError(t, err)

	h := New(
		logger,
		tokens,
		services.NewAuthService(logger, store, tokens),
		services.NewTaskService(logger, store),
		services.NewSubtaskService(logger, store, store),
		services.NewSubmissionService(logger, store, store, files),
		services.NewStatsService(logger, store),
		opts,
	)

	router := gin.New()
	RegisterRoutes(router.Group("/api"), h, opts)
	return &testServer{router: router, store: store, tokens: tokens}
}

type testResponse struct {
	*httptest.ResponseRecorder
}

func (r testResponse) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body.Bytes(), v), r.Body.String())
}

func (r testResponse) errorCode(t *testing.T) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	r.decode(t, &body)
	assert.NotEmpty(t, body.Error)
	return body.Code
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) testResponse {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return testResponse{w}
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, body any) testResponse {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	return s.do(t, method, path, token, r, "application/json")
}

func (s *testServer) upload(t *testing.T, taskID int64, token, filename, contentType string, content []byte) testResponse {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, submissionFileField, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return s.do(t, http.MethodPost, fmt.Sprintf("/api/tasks/%d/entregas/file", taskID),
		token, &buf, mw.FormDataContentType())
}

// login registers the user and returns its access token.
func (s *testServer) login(t *testing.T, username, role string) string {
	t.Helper()
	w := s.doJSON(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": username,
		"password": "secret-password",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.doJSON(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp loginResponse
	w.decode(t, &resp)
	require.NotEmpty(t, resp.Token)
	assert.Equal(t, username, resp.User.Username)
	return resp.Token
}

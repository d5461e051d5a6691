package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	codeUnauthorized            = "UNAUTHORIZED"
	codeInvalidCredentials      = "INVALID_CREDENTIALS"
	codeForbidden               = "FORBIDDEN"
	codeNotFound                = "NOT_FOUND"
	codeBadRequest              = "BAD_REQUEST"
	codeInvalidStatus           = "INVALID_STATUS"
	codeUsernameTaken           = "USERNAME_TAKEN"
	codeSubmissionAlreadyExists = "SUBMISSION_ALREADY_EXISTS"
	codeFileRequired            = "FILE_REQUIRED"
	codeUnsupportedMediaType    = "UNSUPPORTED_MEDIA_TYPE"
	codePayloadTooLarge         = "PAYLOAD_TOO_LARGE"
	codeInternalError           = "INTERNAL_ERROR"
)

var (
	errInvalidRequestBody  = errors.New("invalid request body")
	errInvalidPathParam    = errors.New("invalid path parameter")
	errAuthRequired        = errors.New("authorization required")
	errInvalidToken        = errors.New("invalid or expired token")
	errInvalidCredentials  = errors.New("invalid username or password")
	errRoleNotAllowed      = errors.New("role not allowed")
	errAdminSignupDisabled = errors.New("admin signup is disabled")
	errFileRequired        = errors.New("file is required")
	errPayloadTooLarge     = errors.New("file is too large")
)

type apiError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func newAPIError(status int, code, message string) apiError {
	return apiError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Status, err)
}

func newInternalError() apiError {
	return newAPIError(http.StatusInternalServerError, codeInternalError,
		http.StatusText(http.StatusInternalServerError))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, codeBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, codeUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, codeForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, codeNotFound, message)
}

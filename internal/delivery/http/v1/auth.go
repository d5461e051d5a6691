package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/services"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}

type registerRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=6,max=255"`
	Role     string `json:"role" form:"role" binding:"omitempty,oneof=admin member"`
}

func (h *handlerImpl) HandleRegister(c *gin.Context) {
	var req registerRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}
	h.logger.Info().
		Str("username", req.Username).
		Msg("register request")

	if h.opts.DisableAdminSignup && models.Role(req.Role) == models.RoleAdmin {
		h.logger.Warn().
			Str("username", req.Username).
			Msg("rejected admin signup")
		abort(c, newForbiddenError(errAdminSignupDisabled.Error()))
		return
	}

	user, err := h.auth.Register(c, services.RegisterParams{
		Username: req.Username,
		Password: req.Password,
		Role:     models.Role(req.Role),
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to register user")
		switch {
		case errors.Is(err, services.ErrUserAlreadyExists):
			abort(c, newAPIError(http.StatusBadRequest, codeUsernameTaken, err.Error()))
		case errors.Is(err, services.ErrInvalidRole):
			abort(c, newBadRequestError(err.Error()))
		default:
			abort(c, newInternalError())
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": newUserResponse(user)})
}

type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required,max=255"`
	Password string `json:"password" form:"password" binding:"required,max=255"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

func (h *handlerImpl) HandleLogin(c *gin.Context) {
	var req loginRequest
	err := c.ShouldBind(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind request body")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	result, err := h.auth.Login(c, services.LoginParams{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to login")
		switch {
		case errors.Is(err, services.ErrUserNotFound),
			errors.Is(err, services.ErrUserPasswordMismatch):
			abort(c, newAPIError(http.StatusUnauthorized, codeInvalidCredentials,
				errInvalidCredentials.Error()))
		default:
			abort(c, newInternalError())
		}
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     result.AccessToken,
		ExpiresAt: result.AccessTokenExpiresAt,
		User:      newUserResponse(result.User),
	})
}

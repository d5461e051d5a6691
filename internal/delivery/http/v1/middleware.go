package v1

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-task-delivery/internal/models"
)

const identityCtxKey = "identity"

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	const authHeader = "Authorization"
	header := c.GetHeader(authHeader)
	if header == "" {
		h.logger.Error().Msg("authorization header required")
		abort(c, newUnauthorizedError(errAuthRequired.Error()))
		return
	}

	const bearerPrefix = "Bearer"
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
		h.logger.Error().Msg("invalid authorization header")
		abort(c, newUnauthorizedError(errAuthRequired.Error()))
		return
	}

	identity, err := h.tokens.Verify(parts[1])
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to verify token")
		abort(c, newUnauthorizedError(errInvalidToken.Error()))
		return
	}

	c.Set(identityCtxKey, *identity)
	c.Next()
}

// RequireRole lets the request through only when the identity set by
// HandleAuthMiddleware holds one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := getIdentity(c)
		if !ok {
			abort(c, newUnauthorizedError(errAuthRequired.Error()))
			return
		}
		if !identity.Role.In(roles...) {
			abort(c, newForbiddenError(errRoleNotAllowed.Error()))
			return
		}
		c.Next()
	}
}

func getIdentity(c *gin.Context) (models.Identity, bool) {
	value, exists := c.Get(identityCtxKey)
	if !exists {
		return models.Identity{}, false
	}
	identity, ok := value.(models.Identity)
	return identity, ok
}

// mustGetIdentity is for handlers mounted behind HandleAuthMiddleware.
func (h *handlerImpl) mustGetIdentity(c *gin.Context) (models.Identity, bool) {
	identity, ok := getIdentity(c)
	if !ok {
		h.logger.Error().Msg("no identity found in context")
		abort(c, newUnauthorizedError(errAuthRequired.Error()))
	}
	return identity, ok
}

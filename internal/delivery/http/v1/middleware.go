package v1

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDCtxKey = "user_id"

// HandleAuthMiddleware resolves the principal from the access token
// and stores its id in the context.
func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	accessToken, ok := extractAccessToken(c)
	if !ok {
		h.logger.Warn().Msg("authorization header required")
		abort(c, newUnauthorizedError(errAuthorizationMissing.Error()))
		return
	}

	claims, err := h.auth.ParseJWTToken(accessToken)
	if err != nil {
		h.logger.Warn().
			Err(err).
			Msg("failed to parse token")
		abort(c, newUnauthorizedError(errInvalidAccessToken.Error()))
		return
	}

	c.Set(userIDCtxKey, claims.Subject)
	c.Next()
}

func extractAccessToken(c *gin.Context) (string, bool) {
	const authHeader = "Authorization"
	if header := c.GetHeader(authHeader); header != "" {
		const bearerPrefix = "Bearer"
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != bearerPrefix || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	token, err := c.Cookie(accessTokenCookie)
	if err != nil || token == "" {
		return "", false
	}
	return token, true
}

// principalID returns the id stored by HandleAuthMiddleware.
func principalID(c *gin.Context) string {
	value, exists := c.Get(userIDCtxKey)
	if !exists {
		return ""
	}
	id, _ := value.(string)
	return id
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/apperr"
	"github.com/lalith-99/questboard/internal/auth"
	"go.uber.org/zap"
)

// Context keys for the claims in gin.Context. Services read the identity
// from the request context instead (see auth.FromContext); these are for
// the request logger.
const (
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

// accessTokenParam carries the token on WebSocket upgrades, where
// browsers cannot set an Authorization header.
const accessTokenParam = "access_token"

// AuthMiddleware returns a Gin middleware that validates JWT tokens.
//
// If the token is invalid it aborts with 401 and the handler never runs.
// If it is valid the caller's identity is stored on the request context so
// services can resolve it through auth.ContextIdentity.
func AuthMiddleware(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthenticated(c, "missing or malformed authorization header, expected: Bearer <token>")
			return
		}

		claims, err := auth.ParseToken(tokenString, secret)
		if err != nil {
			logger.Debug("rejected token", zap.Error(err), zap.String("path", c.Request.URL.Path))
			abortUnauthenticated(c, "invalid or expired token")
			return
		}

		id := claims.Identity()
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Set(ContextKeyUserID, id.UserID)
		c.Set(ContextKeyRole, string(id.Role))

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if token := c.Query(accessTokenParam); token != "" {
			return token, true
		}
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func abortUnauthenticated(c *gin.Context, message string) {
	e := apperr.ErrNotAuthenticated
	c.AbortWithStatusJSON(e.HTTPStatus(), gin.H{
		"error": message,
		"code":  e.Code,
	})
}

// GetUserID returns the authenticated user id, or "" outside the auth
// group.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/notification-hub/utils"
)

// UserChecker reports whether a principal resolves to an active user.
type UserChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// WebSocketAuthMiddleware gates the real-time handshake. Browsers cannot set headers on
// a WebSocket request, so the token may also arrive as the "token" query parameter.
func WebSocketAuthMiddleware(jwt *utils.JWTManager, users UserChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := jwt.ParseToken(token, utils.TokenTypeAccess)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		exists, err := users.Exists(c.Request.Context(), claims.Subject)
		if err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"user_id": claims.Subject}).WithError(err).Error("WebSocket user lookup failed")
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		if !exists {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

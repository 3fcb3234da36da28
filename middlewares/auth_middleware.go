package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/notification-hub/utils"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

var (
	errMissingAuthHeader = errors.New("Authorization header missing")
	errBadAuthHeader     = errors.New("Authorization header must use the Bearer scheme")
	errInvalidToken      = errors.New("Invalid or expired token")
)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func AuthMiddleware(jwt *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errMissingAuthHeader)
			return
		}

		tokenString, ok := BearerToken(authHeader)
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, errBadAuthHeader)
			return
		}

		claims, err := jwt.ParseToken(tokenString, utils.TokenTypeAccess)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, errInvalidToken)
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// CurrentUserID returns the authenticated recipient set by AuthMiddleware.
func CurrentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextUserID)
	return id, id != ""
}

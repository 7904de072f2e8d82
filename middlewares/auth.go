package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"activityhub/authz"
	"activityhub/utils"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userId"

// Authenticate rejects requests without a valid token and stores the userId
// claim in the context. Both "Bearer <token>" and a bare token are accepted.
func Authenticate(tm *utils.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.Request.Header.Get("Authorization"))
		token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}

		userId, err := tm.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized."})
			return
		}

		c.Set(UserIDKey, userId)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate, or the anonymous principal.
func PrincipalFrom(c *gin.Context) authz.Principal {
	return authz.Principal{ID: c.GetString(UserIDKey)}
}

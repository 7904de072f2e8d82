package middlewares

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"activityhub/authz"
)

// ValidateActivityID rejects a route id that is present but not a UUID in
// canonical lowercase form, the only form activities are stored under.
// An absent id is left for the policy, which denies it.
func ValidateActivityID(c *gin.Context) {
	raw := c.Param(authz.RouteActivityID)
	if raw == "" {
		c.Next()
		return
	}
	if parsed, err := uuid.Parse(raw); err != nil || parsed.String() != raw {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Could not parse activity id."})
		return
	}
	c.Next()
}

// RequirePolicy evaluates the named policy before the handler runs.
func RequirePolicy(policies *authz.Policies, name string, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		req := authz.Request{
			Principal:   PrincipalFrom(c),
			RouteValues: make(map[string]string, len(c.Params)),
		}
		for _, p := range c.Params {
			req.RouteValues[p.Key] = p.Value
		}

		ok, err := policies.Authorize(c.Request.Context(), name, req)
		if err != nil {
			log.ErrorContext(c.Request.Context(), "policy evaluation failed", "policy", name, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Could not authorize request."})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Not authorized to perform this action."})
			return
		}
		c.Next()
	}
}

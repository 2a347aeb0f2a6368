package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/horizon-mentorship/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the listed roles. Must
// run after JWT().
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing credentials")
			c.Abort()
			return
		}
		if r, ok := role.(string); !ok || !allowed[r] {
			response.Forbidden(c, "insufficient role")
			c.Abort()
			return
		}
		c.Next()
	}
}

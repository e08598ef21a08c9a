package middleware

import (
	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware throttles requests per client IP and route. Keys are
// scoped by the route so a burst against one endpoint cannot starve another.
func RateLimitMiddleware(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err == nil && !allowed {
			throttled := ierr.NewError("rate limit exceeded").
				WithHint("Too many requests, slow down and retry").
				Mark(ierr.ErrRateLimitExceeded)
			c.AbortWithStatusJSON(ierr.HTTPStatusFromErr(throttled), ierr.NewErrorResponse(throttled))
			return
		}
		c.Next()
	}
}

package middleware

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/drawcard/drawcard/internal/errors"
	"github.com/drawcard/drawcard/internal/logger"
)

// ErrorHandler converts errors attached to the gin context into the standard
// error envelope. Handlers call c.Error(err) and return; this middleware owns
// the status code mapping.
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := ierr.HTTPStatusFromErr(err)
		if status >= 500 {
			log.Errorw("request failed",
				"path", c.Request.URL.Path,
				"error", err,
			)
		}
		c.JSON(status, ierr.NewErrorResponse(err))
	}
}

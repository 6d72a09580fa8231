package middleware

import (
	"context"
	"errors"
	"net/http"

	"creative_cure_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errMethodNotAllowed = common.NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL.")

// ErrorHandler turns errors attached with c.Error, and gin's bare 404/405
// responses, into the JSON error envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			if c.Writer.Written() {
				return
			}
			switch c.Writer.Status() {
			case http.StatusNotFound:
				respond(c, common.ErrNotFound.WithDetails("The requested endpoint does not exist."))
			case http.StatusMethodNotAllowed:
				respond(c, errMethodNotAllowed)
			}
			return
		}

		last := c.Errors.Last()
		if apiErr, ok := common.IsAPIError(last.Err); ok {
			respond(c, apiErr)
			return
		}
		if errors.Is(last.Err, context.DeadlineExceeded) {
			respond(c, common.ErrServiceUnavailable.WithDetails("The backend did not answer in time."))
			return
		}

		logger.Error("Unhandled application error",
			zap.Error(last.Err),
			zap.String("path", c.Request.URL.Path),
			zap.String("requestID", c.GetString(RequestIDContextKey)),
		)
		details := "An unexpected error occurred."
		if gin.Mode() == gin.DebugMode {
			details = last.Err.Error()
		}
		respond(c, common.ErrInternalServer.WithDetails(details))
	}
}

func respond(c *gin.Context, apiErr *common.APIError) {
	if c.Writer.Written() {
		return
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

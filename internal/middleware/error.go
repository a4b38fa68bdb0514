package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/logger"
	"lifeos/internal/metrics"
)

// ErrorHandler renders the last error attached to the context as the
// {"error":{"code","message","request_id"}} envelope. Handlers that already
// wrote a response keep it. Internal details are logged, never returned.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		requestID := c.GetString(requestIDKey)
		log := logger.Named("http").With(
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)

		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			log.Errorw("unexpected error", "error", err.Error())
			appErr = apperrors.ErrInternalServer
		} else if appErr.Internal != nil {
			log.Errorw("app error", "code", appErr.Code, "internal", appErr.Internal.Error())
		}

		metrics.APIErrors.WithLabelValues(appErr.Code).Inc()

		body := gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		}
		if requestID != "" {
			body["request_id"] = requestID
		}
		c.JSON(appErr.StatusCode, gin.H{"error": body})
	}
}

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/reporting"
)

// Recovery turns panics into a 500, reporting them to Sentry and the log.
func Recovery(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			stack := debug.Stack()
			traceID := GetTraceID(c)
			reporting.CapturePanic(rec, stack, map[string]string{
				"path":     c.Request.URL.Path,
				"method":   c.Request.Method,
				"trace_id": traceID,
			})
			log.Error("panic recovered",
				zap.Any("panic", rec),
				zap.String("path", c.Request.URL.Path),
				zap.String("trace_id", traceID),
				zap.ByteString("stack", stack),
			)

			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "internal_error", "internal server error"))
		}()

		c.Next()
	}
}

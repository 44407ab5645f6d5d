package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	appLogger "github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
)

// Logger emits one access log per request with correlation identifiers and a masked client IP.
// Server errors log at error level, client errors at warn.
func Logger(log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		reqCtx := GetRequestContext(c)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		fields := []zap.Field{
			zap.String("trace_id", GetTraceID(c)),
			zap.String("request_id", reqCtx.RequestID),
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", appLogger.MaskIP(c.ClientIP())),
		}
		if reqCtx.UserID != "" {
			fields = append(fields, zap.String("user_id", reqCtx.UserID))
		}
		if ua := c.Request.UserAgent(); ua != "" {
			fields = append(fields, zap.String("user_agent", ua))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		level := zapcore.InfoLevel
		switch {
		case status >= http.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= http.StatusBadRequest:
			level = zapcore.WarnLevel
		}
		if ce := log.Check(level, "request completed"); ce != nil {
			ce.Write(fields...)
		}
	}
}

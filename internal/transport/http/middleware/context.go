package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
)

const (
	// TraceIDHeader is the HTTP header name for trace ID
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin key for trace ID
	TraceIDKey = "trace_id"
	// UserIDKey is the gin key for the authenticated user ID
	UserIDKey = "user_id"
	// ClaimsKey is the gin key for verified access token claims
	ClaimsKey = "claims"

	requestContextKey = "request_context"
	tracerName        = "github.com/Aro-geo/focusmate-app-sub002/internal/transport/http"
)

// RequestContext holds request-scoped information.
type RequestContext struct {
	TraceID   string
	RequestID string
	UserID    string
	IP        string
	UserAgent string
}

// EnrichContext starts a server span, resolves the trace ID and stores request metadata.
// The trace ID comes from the span when tracing is active, then the X-Trace-ID header,
// then a fresh UUID.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		spanName := c.FullPath()
		if spanName == "" {
			spanName = c.Request.URL.Path
		}
		ctx, span := otel.Tracer(tracerName).Start(ctx, c.Request.Method+" "+spanName,
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		traceID := ""
		if sc := span.SpanContext(); sc.IsValid() {
			traceID = sc.TraceID().String()
		}
		if traceID == "" {
			traceID = c.GetHeader(TraceIDHeader)
		}
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		ctx = context.WithValue(ctx, logger.TraceIDKey{}, traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

// GetRequestContext retrieves the request metadata, never nil.
func GetRequestContext(c *gin.Context) *RequestContext {
	if v, exists := c.Get(requestContextKey); exists {
		if reqCtx, ok := v.(*RequestContext); ok {
			return reqCtx
		}
	}
	return &RequestContext{}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/logger"
)

func serveRequestID(t *testing.T, header string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var fromCtx, fromReqCtx string
	router := gin.New()
	router.Use(EnrichContext(), RequestID())
	router.GET("/", func(c *gin.Context) {
		fromCtx, _ = c.Request.Context().Value(logger.RequestIDKey{}).(string)
		fromReqCtx = GetRequestContext(c).RequestID
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestIDHeader, header)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	return rr, fromCtx, fromReqCtx
}

func TestRequestIDPropagatesCallerValue(t *testing.T) {
	rr, fromCtx, fromReqCtx := serveRequestID(t, "req-42")

	assert.Equal(t, "req-42", rr.Header().Get(requestIDHeader))
	assert.Equal(t, "req-42", fromCtx)
	assert.Equal(t, "req-42", fromReqCtx)
}

func TestRequestIDReplacesUnsafeValues(t *testing.T) {
	for name, header := range map[string]string{
		"missing":   "",
		"too long":  strings.Repeat("a", maxRequestIDLength+1),
		"has space": "req 42",
	} {
		t.Run(name, func(t *testing.T) {
			rr, fromCtx, _ := serveRequestID(t, header)

			got := rr.Header().Get(requestIDHeader)
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
			assert.Equal(t, got, fromCtx)
		})
	}
}

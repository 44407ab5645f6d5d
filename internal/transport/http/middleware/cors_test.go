package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCORSRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(origins))
	router.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestCORSPreflightForListedOrigin(t *testing.T) {
	router := newCORSRouter("https://app.focusmate.test/")

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://app.focusmate.test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.focusmate.test", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	assert.True(t, strings.Contains(rr.Header().Get("Access-Control-Expose-Headers"), "Retry-After"))
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	router := newCORSRouter("*")

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Origin", "https://elsewhere.test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSIgnoresUnknownOrigin(t *testing.T) {
	router := newCORSRouter("https://app.focusmate.test")

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("Origin", "https://evil.test")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
}

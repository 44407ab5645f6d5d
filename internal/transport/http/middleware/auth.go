package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/security"
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"traceId,omitempty"`
}

func newErrorResponse(c *gin.Context, code, msg string) ErrorResponse {
	return ErrorResponse{Error: msg, Code: code, TraceID: GetTraceID(c)}
}

// AccessTokenVerifier validates bearer access tokens.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*domain.TokenClaims, error)
}

// RequireAuth validates the Authorization header and stores the caller's id on the context.
func RequireAuth(verifier AccessTokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "token_missing", "missing authorization header"))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "token_invalid", "invalid authorization format: expected 'Bearer <token>'"))
			return
		}

		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "token_missing", "missing access token"))
			return
		}

		claims, err := verifier.VerifyAccessToken(token)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "token_expired", "access token expired"))
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "token_invalid", "invalid access token"))
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(ClaimsKey, claims)
		GetRequestContext(c).UserID = claims.Subject

		c.Next()
	}
}

// GetAuthenticatedUserID retrieves the user ID stored by RequireAuth.
func GetAuthenticatedUserID(c *gin.Context) (string, bool) {
	id := c.GetString(UserIDKey)
	return id, id != ""
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/reporting"
	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/security"
	"github.com/Aro-geo/focusmate-app-sub002/internal/transport/http/middleware"
	"github.com/Aro-geo/focusmate-app-sub002/internal/usecase"
)

const (
	rateLimitProblemType  = "https://focusmate.app/errors/rate-limit-exceeded"
	rateLimitProblemTitle = "Rate Limit Exceeded"
)

// ProblemDetails is an RFC 9457 payload used for rate-limit rejections.
type ProblemDetails struct {
	Type              string `json:"type"`
	Title             string `json:"title"`
	Status            int    `json:"status"`
	Detail            string `json:"detail"`
	Instance          string `json:"instance"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
	TraceID           string `json:"traceId,omitempty"`
}

// ErrorCase maps a sentinel error to an HTTP status code and response message.
type ErrorCase struct {
	Err     error
	Status  int
	Code    string
	Message string
}

var sentinelCases = []ErrorCase{
	{Err: usecase.ErrDisposableDomain, Status: http.StatusBadRequest, Code: "disposable_email", Message: "Email domain is not allowed"},
	{Err: usecase.ErrAccountExists, Status: http.StatusConflict, Code: "account_exists", Message: "An account with this email already exists"},
	{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Code: "username_taken", Message: "Username is already taken"},
	{Err: usecase.ErrAccountDeactivated, Status: http.StatusUnauthorized, Code: "account_deactivated", Message: "Account is deactivated"},
	{Err: usecase.ErrSessionNotFound, Status: http.StatusNotFound, Code: "session_not_found", Message: "Session not found"},
	{Err: usecase.ErrInvalidRefreshToken, Status: http.StatusUnauthorized, Code: "token_invalid", Message: "Invalid refresh token"},
	{Err: security.ErrTokenExpired, Status: http.StatusUnauthorized, Code: "token_expired", Message: "Token expired"},
	{Err: security.ErrTokenMalformed, Status: http.StatusUnauthorized, Code: "token_invalid", Message: "Invalid token"},
	{Err: security.ErrTokenInvalid, Status: http.StatusUnauthorized, Code: "token_invalid", Message: "Invalid token"},
}

// RespondWithError writes the HTTP representation of err. Unknown errors become
// a generic 500 and are reported with the request's identifiers.
func RespondWithError(c *gin.Context, log *zap.Logger, op string, err error) {
	var (
		validationErr *usecase.ValidationError
		limitErr      *usecase.RateLimitExceededError
		credsErr      *usecase.InvalidCredentialsError
		lockedErr     *usecase.AccountLockedError
	)

	switch {
	case errors.As(err, &validationErr):
		resp := NewErrorResponse(c, "Validation failed")
		resp.Code = "validation_failed"
		resp.Fields = validationErr.Fields
		c.JSON(http.StatusBadRequest, resp)
		return

	case errors.As(err, &limitErr):
		respondRateLimited(c, limitErr)
		return

	case errors.As(err, &credsErr):
		remaining := credsErr.AttemptsRemaining
		resp := NewErrorResponse(c, "Invalid email or password")
		resp.Code = "invalid_credentials"
		resp.AttemptsRemaining = &remaining
		c.JSON(http.StatusUnauthorized, resp)
		return

	case errors.As(err, &lockedErr):
		minutes := lockedErr.RemainingMinutes()
		resp := NewErrorResponse(c, fmt.Sprintf("Account is locked. Try again in %d minutes.", minutes))
		resp.Code = "account_locked"
		resp.RemainingMinutes = &minutes
		c.JSON(http.StatusLocked, resp)
		return
	}

	for _, cs := range sentinelCases {
		if errors.Is(err, cs.Err) {
			resp := NewErrorResponse(c, cs.Message)
			resp.Code = cs.Code
			c.JSON(cs.Status, resp)
			return
		}
	}

	traceID := middleware.GetTraceID(c)
	if log != nil {
		log.Error("request failed", zap.String("op", op), zap.String("trace_id", traceID), zap.Error(err))
	}
	reporting.CaptureError(err, map[string]string{"op": op, "trace_id": traceID})
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "Internal server error"))
}

func respondRateLimited(c *gin.Context, err *usecase.RateLimitExceededError) {
	seconds := err.RetryAfterSeconds()
	instance := c.FullPath()
	if instance == "" {
		instance = c.Request.URL.Path
	}

	c.Header("Retry-After", strconv.Itoa(seconds))
	c.JSON(http.StatusTooManyRequests, ProblemDetails{
		Type:              rateLimitProblemType,
		Title:             rateLimitProblemTitle,
		Status:            http.StatusTooManyRequests,
		Detail:            fmt.Sprintf("Too many requests. Try again in %d seconds.", seconds),
		Instance:          instance,
		RetryAfterSeconds: seconds,
		TraceID:           middleware.GetTraceID(c),
	})
}

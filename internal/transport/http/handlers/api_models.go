package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Aro-geo/focusmate-app-sub002/internal/core/domain"
	"github.com/Aro-geo/focusmate-app-sub002/internal/transport/http/middleware"
	"github.com/Aro-geo/focusmate-app-sub002/internal/usecase"
	"github.com/Aro-geo/focusmate-app-sub002/internal/validation"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error             string                  `json:"error"`
	Code              string                  `json:"code,omitempty"`
	Fields            []validation.FieldError `json:"fields,omitempty"`
	AttemptsRemaining *int                    `json:"attemptsRemaining,omitempty"`
	RemainingMinutes  *int                    `json:"remainingMinutes,omitempty"`
	TraceID           string                  `json:"traceId,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: middleware.GetTraceID(c),
	}
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Username     string `json:"username"`
	FullName     string `json:"fullName"`
	Timezone     string `json:"timezone"`
	AgreeToTerms bool   `json:"agreeToTerms"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// RefreshRequest carries a refresh token for /refresh and /logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UserPayload is the public view of a user.
type UserPayload struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  *string    `json:"username,omitempty"`
	FullName  string     `json:"fullName,omitempty"`
	Timezone  string     `json:"timezone"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AuthResponse is returned by register, login and refresh.
type AuthResponse struct {
	User         UserPayload `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	TokenType    string      `json:"tokenType"`
	ExpiresIn    int64       `json:"expiresIn"`
	Reactivated  bool        `json:"reactivated,omitempty"`
}

// SessionPayload describes one live session.
type SessionPayload struct {
	ID        string    `json:"id"`
	IP        *string   `json:"ip,omitempty"`
	UserAgent *string   `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionListResponse wraps the caller's sessions.
type SessionListResponse struct {
	Sessions []SessionPayload `json:"sessions"`
	Total    int              `json:"total"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness probe results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newUserPayload(user domain.User) UserPayload {
	return UserPayload{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FullName:  user.FullName,
		Timezone:  user.Timezone,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}

func newAuthResponse(res *usecase.AuthResult) AuthResponse {
	return AuthResponse{
		User:         newUserPayload(res.User),
		AccessToken:  res.AccessToken.Value,
		RefreshToken: res.RefreshToken.Value,
		TokenType:    "Bearer",
		ExpiresIn:    int64(res.ExpiresIn().Seconds()),
		Reactivated:  res.Reactivated,
	}
}

func newSessionPayload(s domain.Session) SessionPayload {
	return SessionPayload{
		ID:        s.ID,
		IP:        s.IP,
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

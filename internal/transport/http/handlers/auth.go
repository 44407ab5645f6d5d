package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/transport/http/middleware"
	"github.com/Aro-geo/focusmate-app-sub002/internal/usecase"
)

// AuthHandler exposes authentication endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

// RegisterRoutes binds the public auth routes and the session routes guarded by requireAuth.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)

	sessions := r.Group("/sessions", requireAuth)
	sessions.GET("", h.listSessions)
	sessions.DELETE("/:id", h.revokeSession)
}

func clientInfo(c *gin.Context) usecase.ClientInfo {
	return usecase.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid registration payload"))
		return
	}

	res, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Username:     req.Username,
		FullName:     req.FullName,
		Timezone:     req.Timezone,
		AgreeToTerms: req.AgreeToTerms,
		Client:       clientInfo(c),
	})
	if err != nil {
		RespondWithError(c, h.logger, "register", err)
		return
	}

	status := http.StatusCreated
	if res.Reactivated {
		status = http.StatusOK
	}
	c.JSON(status, newAuthResponse(res))
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	res, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		Client:     clientInfo(c),
	})
	if err != nil {
		RespondWithError(c, h.logger, "login", err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(res))
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "refreshToken is required"))
		return
	}

	res, err := h.auth.Refresh(c.Request.Context(), usecase.RefreshInput{
		RefreshToken: req.RefreshToken,
		Client:       clientInfo(c),
	})
	if err != nil {
		RespondWithError(c, h.logger, "refresh", err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(res))
}

func (h *AuthHandler) logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "refreshToken is required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		RespondWithError(c, h.logger, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) listSessions(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sessions, err := h.auth.ListSessions(c.Request.Context(), userID)
	if err != nil {
		RespondWithError(c, h.logger, "list sessions", err)
		return
	}

	resp := SessionListResponse{Sessions: make([]SessionPayload, 0, len(sessions)), Total: len(sessions)}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, newSessionPayload(s))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) revokeSession(c *gin.Context) {
	userID, ok := middleware.GetAuthenticatedUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	if err := h.auth.RevokeSession(c.Request.Context(), userID, c.Param("id")); err != nil {
		RespondWithError(c, h.logger, "revoke session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Aro-geo/focusmate-app-sub002/internal/infra/config"
	"github.com/Aro-geo/focusmate-app-sub002/internal/transport/http/handlers"
	"github.com/Aro-geo/focusmate-app-sub002/internal/transport/http/middleware"
	"github.com/Aro-geo/focusmate-app-sub002/internal/usecase"
)

// Checker is a named readiness probe.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	Auth        *usecase.AuthService
	HTTPMetrics *middleware.HTTPMetrics
	Gatherer    prometheus.Gatherer
	Checks      []Checker
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(deps.HTTPMetrics.Handler())
	if deps.Config != nil && len(deps.Config.App.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	}

	healthOptions := make([]handlers.HealthOption, 0, len(deps.Checks))
	for _, chk := range deps.Checks {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck(chk.Name, chk.Check))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	} else {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if deps.Auth != nil {
		api := r.Group("/api/v1")
		authHandler := handlers.NewAuthHandler(deps.Auth, deps.Logger)
		authHandler.RegisterRoutes(api.Group("/auth"), middleware.RequireAuth(deps.Auth))
	}

	return r
}

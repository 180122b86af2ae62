package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/questboard/internal/middleware"
	"github.com/lalith-99/questboard/internal/repository"
	"github.com/lalith-99/questboard/internal/service"
	"go.uber.org/zap"
)

// HealthCheck reports whether one backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig is everything NewRouter wires together.
type RouterConfig struct {
	Users    repository.UserRepository
	Services *service.Services
	Logger   *zap.Logger

	JWTSecret string
	TokenTTL  time.Duration

	// Health is keyed by dependency name ("postgres", "redis").
	Health map[string]HealthCheck
}

// NewRouter builds the HTTP surface.
//
// Route groups:
//   - /v1/health and /v1/auth/* are public. A caller can't have a token
//     before signing up or logging in.
//   - Everything else under /v1 runs behind AuthMiddleware, which puts the
//     caller's identity on the request context for the services to read.
//   - /v1/stream/* upgrades to WebSocket after the same auth check, so a
//     bad token is refused with a JSON 401 before any upgrade happens.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(logger), middleware.Recovery(logger))

	authH := NewAuthHandler(cfg.Users, cfg.JWTSecret, cfg.TokenTTL, logger)
	users := NewUserHandler(cfg.Users, cfg.Services, logger)
	jobs := NewJobHandler(cfg.Services.Jobs, logger)
	apps := NewApplicationHandler(cfg.Services.Applications, logger)
	completions := NewCompletionHandler(cfg.Services.Completions, logger)
	convs := NewConversationHandler(cfg.Services.Messaging, logger)
	msgs := NewMessageHandler(cfg.Services.Messaging, logger)
	streams := NewStreamHandler(cfg.Services, logger)

	// Load balancers hit this without a token.
	r.GET("/v1/health", healthHandler(cfg.Health, logger))
	r.POST("/v1/auth/signup", authH.Signup)
	r.POST("/v1/auth/login", authH.Login)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret, logger))

	v1.GET("/users/me", users.GetMe)
	v1.GET("/users/:id/stats", users.SeekerStats)
	v1.GET("/employer/stats", users.EmployerStats)

	v1.POST("/jobs", jobs.Create)
	v1.GET("/jobs", jobs.List)
	v1.GET("/jobs/mine", jobs.Mine)
	v1.GET("/jobs/:id", jobs.Get)
	v1.PUT("/jobs/:id", jobs.Update)
	v1.DELETE("/jobs/:id", jobs.Delete)
	v1.POST("/jobs/:id/status", jobs.SetStatus)
	v1.POST("/jobs/:id/applications", apps.Apply)

	v1.GET("/applications", apps.List)
	v1.GET("/applications/:id", apps.Get)
	v1.DELETE("/applications/:id", apps.Cancel)
	v1.POST("/applications/:id/accept", apps.Accept)
	v1.POST("/applications/:id/reject", apps.Reject)
	v1.POST("/applications/:id/completion", completions.File)
	v1.GET("/applications/:id/completion", completions.GetForApplication)

	v1.GET("/completions/:id", completions.Get)
	v1.POST("/completions/:id/review", completions.Review)

	v1.POST("/conversations", convs.Create)
	v1.GET("/conversations", convs.List)
	v1.GET("/conversations/:id", convs.Get)
	v1.DELETE("/conversations/:id", convs.Delete)
	v1.POST("/conversations/:id/read", convs.MarkRead)
	v1.GET("/conversations/:id/messages", msgs.List)
	v1.POST("/conversations/:id/messages", msgs.Create)

	stream := v1.Group("/stream")
	stream.GET("/jobs", streams.Jobs)
	stream.GET("/applications", streams.Applications)
	stream.GET("/conversations", streams.Conversations)
	stream.GET("/conversations/:id/messages", streams.Messages)

	return r
}

func healthHandler(checks map[string]HealthCheck, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				deps[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{"status": overall, "dependencies": deps})
	}
}

package router

import (
	"context"
	"fmt"

	"chatbot-api/backend/pkg/config"
	"chatbot-api/backend/pkg/di"
	"chatbot-api/backend/pkg/errors"
	"chatbot-api/backend/pkg/health"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/middleware"
	"chatbot-api/backend/pkg/validator"
	"chatbot-api/backend/shared/observability"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router assembles the gin engine with middleware and all route groups
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Health    *health.Checker
	Config    *config.Config
}

// New creates the router with the container's dependencies
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger middleware first so every request gets a request id
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	limiterOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, limiterOpts)
	engine.Use(rateLimiter.Middleware())

	checker := health.NewChecker(container.Logger)
	checker.RegisterCheck("database", func() (health.Status, string, error) {
		if err := config.TestConnection(container.DB); err != nil {
			return health.StatusDown, "Database unreachable", err
		}
		return health.StatusUp, "Database connection OK", nil
	})
	checker.RegisterCheck("cache", func() (health.Status, string, error) {
		if err := container.Cache.Ping(context.Background()); err != nil {
			// The cache is an accelerator, not a dependency
			return health.StatusDegraded, "Cache unreachable", err
		}
		return health.StatusUp, "Cache connection OK", nil
	})
	checker.RegisterCheck("provider", func() (health.Status, string, error) {
		if container.Provider == nil {
			return health.StatusDown, "Completion provider not configured", nil
		}
		return health.StatusUp, "Completion provider configured", nil
	})
	checker.RegisterCheck("tickets", func() (health.Status, string, error) {
		return health.StatusUp, fmt.Sprintf("%d stream tickets outstanding", container.TicketRegistry.Len()), nil
	})

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Health:    checker,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	r.Engine.GET("/health", r.Health.Handler())
	r.Engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	r.Container.ChatController.RegisterRoutes(r.Engine, jwtAuth)
	r.Container.ConversationController.RegisterRoutes(r.Engine, jwtAuth)
	r.Container.UserController.RegisterRoutes(r.Engine, jwtAuth)
	r.Container.BillingController.RegisterRoutes(r.Engine, jwtAuth)
}

// AddOpenAPIValidation validates incoming requests against the schema file.
// Routes the schema does not describe, like the websocket upgrade, pass
// through untouched.
func (r *Router) AddOpenAPIValidation(schemaPath string) error {
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		return err
	}
	r.Engine.Use(v.Middleware())
	return nil
}

// corsMiddleware allows cross-origin requests, including the headers the
// websocket upgrade needs.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

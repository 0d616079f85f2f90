package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatbot-api/backend/internal/models"
	"chatbot-api/backend/pkg/config"
	"chatbot-api/backend/pkg/di"
	"chatbot-api/backend/pkg/logger"
	"chatbot-api/backend/pkg/router"
	"chatbot-api/backend/pkg/secrets"
	"chatbot-api/backend/shared/observability"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	appLog := logger.New(logConfig)
	logger.SetGlobal(appLog)

	appLog.Info("Starting application", "env", cfg.Server.Env)

	if err := secrets.Init(appLog); err != nil {
		appLog.LogError(err, "Failed to initialize secrets manager")
		os.Exit(1)
	}

	ctx := context.Background()
	jwtSecret := secrets.GetSecretWithDefault(ctx, "jwt_secret", cfg.JWT.Secret)
	if jwtSecret == "" {
		appLog.Error("JWT secret is not configured")
		os.Exit(1)
	}
	if key := secrets.GetSecretWithDefault(ctx, "openai_api_key", cfg.Provider.APIKey); key != "" {
		os.Setenv("OPENAI_API_KEY", key)
	}

	db, err := config.NewDB()
	if err != nil {
		appLog.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.Plan{},
		&models.Payment{},
		&models.Subscription{},
	); err != nil {
		appLog.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	seedPlans(db, appLog)

	shutdownTracing, err := observability.SetupTracing("chatbot-api")
	if err != nil {
		appLog.LogError(err, "Failed to set up tracing")
		os.Exit(1)
	}
	defer shutdownTracing()

	meterProvider, err := observability.SetupMetrics()
	if err != nil {
		appLog.LogError(err, "Failed to set up metrics")
		os.Exit(1)
	}

	streamMetrics, err := observability.NewStreamMetrics(meterProvider)
	if err != nil {
		appLog.LogError(err, "Failed to create stream metrics")
		os.Exit(1)
	}

	container, err := di.New(db, appLog, di.Options{
		JWTSecret:     jwtSecret,
		StreamMetrics: streamMetrics,
	})
	if err != nil {
		appLog.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}

	r := router.New(container)

	if schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH"); schemaPath != "" {
		if err := r.AddOpenAPIValidation(schemaPath); err != nil {
			appLog.LogError(err, "Failed to load OpenAPI schema", "path", schemaPath)
			os.Exit(1)
		}
	}

	r.SetupRoutes()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		appLog.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.LogError(err, "Server forced to shutdown")
	}

	appLog.Info("Server exited gracefully")
}

// seedPlans inserts the default plan catalogue on first boot
func seedPlans(db *gorm.DB, appLog *logger.Logger) {
	var count int64
	if err := db.Model(&models.Plan{}).Count(&count).Error; err != nil {
		appLog.LogError(err, "Failed to check plan catalogue")
		return
	}
	if count > 0 {
		return
	}

	plans := []models.Plan{
		{Name: "free", Description: "Free tier", Price: 0},
		{Name: "pro", Description: "Higher limits and priority access", Price: 9.99},
		{Name: "team", Description: "Shared billing for small teams", Price: 29.99},
	}
	if err := db.Create(&plans).Error; err != nil {
		appLog.LogError(err, "Failed to seed plan catalogue")
	}
}

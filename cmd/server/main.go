package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/auth"
	"github.com/SAP-F-2025/quiz-engine/internal/config"
	"github.com/SAP-F-2025/quiz-engine/internal/handlers"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories/postgres"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/storage"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
	"github.com/SAP-F-2025/quiz-engine/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.LoggerForEnvironment(cfg.Environment)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	gateway, err := buildGateway(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize gateway", "error", err)
		os.Exit(1)
	}

	history, err := buildHistory(cfg, gateway, logger)
	if err != nil {
		logger.Error("Failed to initialize history store", "error", err)
		os.Exit(1)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	identity := buildIdentity(cfg, logger)
	settings := storage.NewSettingsStore(gateway)

	sessions := services.NewSessionManager(services.SessionDeps{
		Logger:    logger,
		Identity:  identity,
		Settings:  settings,
		Quizzes:   storage.NewQuizStore(gateway),
		Attempts:  storage.NewAttemptStore(gateway),
		History:   history,
		Publisher: publisher,
	})
	stats := services.NewStatsService(history, settings, logger)
	exports := services.NewExportService(history, logger)

	validator := utils.NewValidator()
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(sessions, identity, stats, exports, history, validator, logger)
	handlerManager.SetupRoutes(router)

	logger.Info("Quiz engine listening", "port", cfg.Port, "environment", cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func buildGateway(cfg *config.Config, logger *slog.Logger) (storage.Gateway, error) {
	if cfg.Gateway != "redis" {
		logger.Info("Using in-memory gateway")
		return storage.NewMemoryGateway(), nil
	}

	client, err := pkg.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis gateway", "url", cfg.RedisURL)
	return storage.NewRedisGateway(client), nil
}

func buildHistory(cfg *config.Config, gateway storage.Gateway, logger *slog.Logger) (storage.HistoryStore, error) {
	if cfg.History != "postgres" {
		return storage.NewHistoryStore(gateway), nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}
	repo := postgres.NewAttemptHistoryRepository(db)
	if err := repo.AutoMigrate(context.Background()); err != nil {
		return nil, err
	}
	logger.Info("Using Postgres history store")
	return repo, nil
}

func buildIdentity(cfg *config.Config, logger *slog.Logger) services.IdentityProvider {
	if cfg.Casdoor.Endpoint != "" {
		logger.Info("Using Casdoor identity provider", "endpoint", cfg.Casdoor.Endpoint)
		return auth.NewCasdoorProvider(auth.CasdoorConfig(cfg.Casdoor))
	}
	logger.Info("Using static identity provider")
	return auth.StaticProvider{UserID: cfg.StaticUserID}
}

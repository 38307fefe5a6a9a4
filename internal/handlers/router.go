package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/storage"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	proctorHandler *ProctorHandler
}

func NewHandlerManager(
	sessions *services.SessionManager,
	identity services.IdentityProvider,
	stats *services.StatsService,
	exports *services.ExportService,
	history storage.HistoryStore,
	validator *utils.Validator,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(sessions, identity, stats, exports, history, validator, logger),
		proctorHandler: NewProctorHandler(sessions, validator, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(AuthTokenMiddleware())
	{
		// Attempt lifecycle routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.POST("/answer", hm.attemptHandler.RecordAnswer)
			attempts.POST("/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/current", hm.attemptHandler.CurrentAttempt)
			attempts.GET("/history", hm.attemptHandler.AttemptHistory)
			attempts.GET("/history/export", hm.attemptHandler.ExportHistory)
			attempts.GET("/stats", hm.attemptHandler.UserStats)
			attempts.GET("/best-scores", hm.attemptHandler.BestScores)
		}

		// Proctoring routes
		proctor := v1.Group("/proctor")
		{
			proctor.POST("/signals", hm.proctorHandler.ReportSignal)
			proctor.GET("/ws", hm.proctorHandler.ServeWS)
		}
	}
}

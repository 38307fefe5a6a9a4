package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/services"
	"github.com/SAP-F-2025/quiz-engine/internal/storage"
	"github.com/SAP-F-2025/quiz-engine/internal/utils"
)

// AttemptHandler exposes the attempt lifecycle over HTTP.
type AttemptHandler struct {
	sessions  *services.SessionManager
	identity  services.IdentityProvider
	stats     *services.StatsService
	exports   *services.ExportService
	history   storage.HistoryStore
	validator *utils.Validator
	logger    *slog.Logger
}

func NewAttemptHandler(
	sessions *services.SessionManager,
	identity services.IdentityProvider,
	stats *services.StatsService,
	exports *services.ExportService,
	history storage.HistoryStore,
	validator *utils.Validator,
	logger *slog.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		sessions:  sessions,
		identity:  identity,
		stats:     stats,
		exports:   exports,
		history:   history,
		validator: validator,
		logger:    logger,
	}
}

// ===== REQUEST BODIES =====

type StartAttemptRequest struct {
	QuizID string `json:"quiz_id" validate:"required"`
}

// RecordAnswerRequest carries exactly one value field matching the question
// type; the engine grades whatever is present.
type RecordAnswerRequest struct {
	QuestionID string  `json:"question_id" validate:"required"`
	Selected   *int    `json:"selected,omitempty"`
	Flag       *bool   `json:"flag,omitempty"`
	Text       *string `json:"text,omitempty"`
}

func (r RecordAnswerRequest) value() models.AnswerValue {
	return models.AnswerValue{Selected: r.Selected, Flag: r.Flag, Text: r.Text}
}

type SubmitAttemptRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,submit_reason"`
}

// ===== HANDLERS =====

// StartAttempt begins a fresh attempt for the authenticated principal.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	var req StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request", Details: err.Error()})
		return
	}

	session, err := h.sessions.Begin(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	attempt, err := session.Start(c.Request.Context(), req.QuizID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{Message: "attempt started", Data: attempt})
}

// RecordAnswer grades and upserts one answer into the active attempt.
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	var req RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
		return
	}
	if err := h.validator.Validate(req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request", Details: err.Error()})
		return
	}

	session, err := h.sessions.Session(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	answer, err := session.RecordAnswer(c.Request.Context(), req.QuestionID, req.value())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "answer recorded", Data: answer})
}

// SubmitAttempt seals the active attempt. Omitting the reason means a manual
// submit; repeating the call returns the already-sealed attempt.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	req := SubmitAttemptRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request body", Details: err.Error()})
			return
		}
		if err := h.validator.Validate(req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid request", Details: err.Error()})
			return
		}
	}

	reason := models.SubmitManual
	if req.Reason != "" {
		reason = models.SubmitReason(req.Reason)
	}

	session, err := h.sessions.Session(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	attempt, err := session.Submit(c.Request.Context(), reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "attempt submitted", Data: attempt})
}

// CurrentAttempt reports the session's attempt plus timer and monitor state.
func (h *AttemptHandler) CurrentAttempt(c *gin.Context) {
	session, err := h.sessions.Session(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	attempt, ok := session.Current()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "no attempt", Code: "not_found"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: gin.H{
		"attempt":    attempt,
		"state":      session.State(),
		"remaining":  session.Remaining(),
		"violations": session.Monitor().ViolationCount(),
	}})
}

// AttemptHistory lists the principal's sealed attempts, oldest first.
func (h *AttemptHandler) AttemptHistory(c *gin.Context) {
	userID, err := h.identity.Principal(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	attempts, err := h.history.ByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: attempts})
}

// UserStats aggregates over all of the principal's sealed attempts.
func (h *AttemptHandler) UserStats(c *gin.Context) {
	userID, err := h.identity.Principal(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.stats.UserStats(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: stats})
}

// BestScores reports the best historical result per quiz.
func (h *AttemptHandler) BestScores(c *gin.Context) {
	userID, err := h.identity.Principal(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	best, err := h.stats.BestScores(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: best})
}

// ExportHistory streams the principal's history as an xlsx download.
func (h *AttemptHandler) ExportHistory(c *gin.Context) {
	userID, err := h.identity.Principal(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	data, err := h.exports.ExportHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("attempt_history_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

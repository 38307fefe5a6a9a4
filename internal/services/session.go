package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/storage"
)

// IdentityProvider exposes the current principal's stable identifier.
type IdentityProvider interface {
	Principal(ctx context.Context) (string, error)
}

// SettingsProvider exposes the current platform settings. The session
// re-reads them at start; mid-session changes do not alter an active monitor.
type SettingsProvider interface {
	Load(ctx context.Context) (models.PlatformSettings, error)
}

type sessionState int

const (
	sessionIdle sessionState = iota
	sessionInProgress
	sessionSubmitted // terminal
)

func (s sessionState) String() string {
	switch s {
	case sessionInProgress:
		return "in-progress"
	case sessionSubmitted:
		return "submitted"
	default:
		return "idle"
	}
}

// AttemptSession owns one in-progress attempt and composes scoring, the
// integrity monitor and the countdown into submit decisions. Lifecycle:
// Idle → InProgress → Submitted (terminal).
type AttemptSession struct {
	logger    *slog.Logger
	identity  IdentityProvider
	settings  SettingsProvider
	quizzes   *storage.QuizStore
	attempts  *storage.AttemptStore
	history   storage.HistoryStore
	publisher events.Publisher

	monitor   *IntegrityMonitor
	countdown *Countdown

	mu      sync.Mutex
	state   sessionState
	userID  string
	quiz    *models.Quiz
	current *models.Attempt
	sealed  *models.Attempt
}

// SessionDeps bundles the collaborators an AttemptSession needs.
type SessionDeps struct {
	Logger    *slog.Logger
	Identity  IdentityProvider
	Settings  SettingsProvider
	Quizzes   *storage.QuizStore
	Attempts  *storage.AttemptStore
	History   storage.HistoryStore
	Publisher events.Publisher
}

func NewAttemptSession(deps SessionDeps) *AttemptSession {
	return &AttemptSession{
		logger:    deps.Logger,
		identity:  deps.Identity,
		settings:  deps.Settings,
		quizzes:   deps.Quizzes,
		attempts:  deps.Attempts,
		history:   deps.History,
		publisher: deps.Publisher,
		monitor:   NewIntegrityMonitor(deps.Logger, deps.Publisher),
		countdown: NewCountdown(),
	}
}

// Start creates a fresh attempt for the quiz and arms the countdown and the
// integrity monitor. It fails when the session is already in progress, when
// no principal is available, and when retake/attempt-limit gating forbids a
// new attempt.
func (s *AttemptSession) Start(ctx context.Context, quizID string) (*models.Attempt, error) {
	userID, err := s.identity.Principal(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case sessionInProgress:
		return nil, ErrSessionActive
	case sessionSubmitted:
		return nil, NewStateError("session", s.state.String(), "start")
	}

	s.logger.Info("Starting quiz attempt", "quiz_id", quizID, "user_id", userID)

	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := s.checkAttemptGate(ctx, settings, userID, quizID); err != nil {
		return nil, err
	}

	attempt := &models.Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		MaxScore:  quiz.MaxScore(),
		StartedAt: time.Now(),
		TimeLimit: quiz.TimeLimit * 60,
		Status:    models.AttemptStatusInProgress,
	}

	if err := s.attempts.SaveCurrent(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to persist attempt: %w", err)
	}

	s.userID = userID
	s.quiz = quiz
	s.current = attempt
	s.state = sessionInProgress

	s.arm(attempt, settings.Security)

	s.logger.Info("Quiz attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quizID,
		"user_id", userID,
		"max_score", attempt.MaxScore,
		"time_limit", attempt.TimeLimit)
	s.publish(ctx, events.EventAttemptStarted, attempt)

	return s.snapshot(attempt), nil
}

// checkAttemptGate enforces the retake and max-attempt platform settings
// against the principal's history for the quiz.
func (s *AttemptSession) checkAttemptGate(ctx context.Context, settings models.PlatformSettings, userID, quizID string) error {
	prior, err := s.history.ByUserAndQuiz(ctx, userID, quizID)
	if err != nil {
		return fmt.Errorf("failed to load attempt history: %w", err)
	}
	if !settings.AllowRetakes && len(prior) > 0 {
		return ErrRetakesNotAllowed
	}
	if settings.MaxAttempts > 0 && len(prior) >= settings.MaxAttempts {
		return ErrAttemptLimitExceeded
	}
	return nil
}

// arm starts the countdown and monitor. Expiry and the violation threshold
// both converge on the single Submit transition; the session mutex must be
// held by the caller.
func (s *AttemptSession) arm(attempt *models.Attempt, security models.SecuritySettings) {
	remaining := attempt.Remaining(time.Now())
	if err := s.countdown.Start(remaining, func() {
		if _, err := s.Submit(context.Background(), models.SubmitTimeExpired); err != nil {
			s.logger.Error("Failed to auto-submit on expiry", "attempt_id", attempt.ID, "error", err)
		}
	}); err != nil {
		s.logger.Error("Failed to start countdown", "attempt_id", attempt.ID, "error", err)
	}

	if err := s.monitor.Start(security, attempt.ID, func() {
		if _, err := s.Submit(context.Background(), models.SubmitIntegrityViolation); err != nil {
			s.logger.Error("Failed to auto-submit on violation limit", "attempt_id", attempt.ID, "error", err)
		}
	}); err != nil {
		s.logger.Error("Failed to start integrity monitor", "attempt_id", attempt.ID, "error", err)
	}
}

// RecordAnswer grades a submitted value and upserts it into the current
// attempt. The attempt is re-scored and persisted on every call.
func (s *AttemptSession) RecordAnswer(ctx context.Context, questionID string, value models.AnswerValue) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionInProgress || s.current == nil {
		return nil, ErrNoActiveAttempt
	}

	question, ok := s.quiz.QuestionByID(questionID)
	if !ok {
		return nil, ErrQuestionNotFound
	}

	result := Grade(question, value)
	answer := models.Answer{
		ID:          uuid.NewString(),
		AttemptID:   s.current.ID,
		QuestionID:  question.ID,
		QuizID:      s.current.QuizID,
		UserID:      s.current.UserID,
		Type:        question.Type,
		Value:       value,
		IsCorrect:   result.IsCorrect,
		Points:      result.Points,
		SubmittedAt: time.Now(),
	}

	s.current.UpsertAnswer(answer)
	Recalculate(s.current)

	if err := s.attempts.SaveCurrent(ctx, s.current); err != nil {
		return nil, fmt.Errorf("failed to persist attempt: %w", err)
	}

	s.logger.Debug("Answer recorded",
		"attempt_id", s.current.ID,
		"question_id", question.ID,
		"correct", answer.IsCorrect,
		"total_score", s.current.TotalScore)

	return &answer, nil
}

// Submit seals the current attempt. It is idempotent: the first call tears
// down the countdown and monitor, seals and archives the attempt and clears
// the current-attempt slot; every later call returns the same sealed attempt.
func (s *AttemptSession) Submit(ctx context.Context, reason models.SubmitReason) (*models.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == sessionSubmitted {
		return s.snapshot(s.sealed), nil
	}
	if s.state != sessionInProgress || s.current == nil {
		return nil, ErrNoActiveAttempt
	}

	// Teardown first so the act of submitting cannot generate new violations
	// or a late expiry. Both calls are idempotent.
	s.countdown.Cancel()
	s.monitor.Stop()

	attempt := s.current
	Recalculate(attempt)
	attempt.Seal(time.Now(), reason)

	if err := s.history.Append(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to archive attempt: %w", err)
	}
	if err := s.attempts.ClearCurrent(ctx, attempt.UserID); err != nil {
		return nil, fmt.Errorf("failed to clear current attempt: %w", err)
	}

	s.sealed = attempt
	s.current = nil
	s.state = sessionSubmitted

	s.logger.Info("Quiz attempt submitted",
		"attempt_id", attempt.ID,
		"reason", reason,
		"total_score", attempt.TotalScore,
		"percentage", attempt.Percentage,
		"duration", *attempt.Duration)
	s.publish(ctx, events.EventAttemptSubmitted, attempt)

	return s.snapshot(attempt), nil
}

// Resume restores a persisted in-progress attempt after a process restart.
// The countdown is re-armed with the remaining time, not the original limit;
// an attempt whose time is already exhausted is sealed immediately.
func (s *AttemptSession) Resume(ctx context.Context) (*models.Attempt, error) {
	userID, err := s.identity.Principal(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	if s.state != sessionIdle {
		s.mu.Unlock()
		return nil, NewStateError("session", s.state.String(), "resume")
	}

	attempt, ok, err := s.attempts.Current(ctx, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to load current attempt: %w", err)
	}
	if !ok {
		s.mu.Unlock()
		return nil, ErrAttemptNotFound
	}

	quiz, err := s.quizzes.GetQuiz(ctx, attempt.QuizID)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	settings, err := s.settings.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	s.userID = userID
	s.quiz = quiz
	s.current = attempt
	s.state = sessionInProgress

	remaining := attempt.Remaining(time.Now())
	s.logger.Info("Resuming quiz attempt",
		"attempt_id", attempt.ID,
		"user_id", userID,
		"remaining", remaining)

	if remaining <= 0 {
		s.mu.Unlock()
		return s.Submit(ctx, models.SubmitTimeExpired)
	}

	s.arm(attempt, settings.Security)
	s.mu.Unlock()

	return s.snapshot(attempt), nil
}

// Observe forwards a behavioral signal to the integrity monitor.
func (s *AttemptSession) Observe(ctx context.Context, sig Signal) ObserveResult {
	return s.monitor.Observe(ctx, sig)
}

// Monitor exposes the integrity monitor for event-stream consumers.
func (s *AttemptSession) Monitor() *IntegrityMonitor {
	return s.monitor
}

// Remaining reports the countdown's remaining seconds.
func (s *AttemptSession) Remaining() int {
	return s.countdown.Remaining()
}

// State reports the session state as a string for host display.
func (s *AttemptSession) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.String()
}

// Submitted reports whether the session reached its terminal state.
func (s *AttemptSession) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sessionSubmitted
}

// Current returns a copy of the attempt the session currently exposes: the
// in-progress attempt, or the sealed one after submission.
func (s *AttemptSession) Current() (*models.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		return s.snapshot(s.current), true
	}
	if s.sealed != nil {
		return s.snapshot(s.sealed), true
	}
	return nil, false
}

// snapshot copies an attempt so callers cannot mutate session-owned state.
func (s *AttemptSession) snapshot(attempt *models.Attempt) *models.Attempt {
	if attempt == nil {
		return nil
	}
	out := *attempt
	out.Answers = make([]models.Answer, len(attempt.Answers))
	copy(out.Answers, attempt.Answers)
	return &out
}

func (s *AttemptSession) publish(ctx context.Context, eventType events.EventType, attempt *models.Attempt) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEngineEvent(ctx, events.NewEngineEvent(eventType, attempt)); err != nil {
		s.logger.Error("Failed to publish attempt event",
			"attempt_id", attempt.ID,
			"event_type", eventType,
			"error", err)
	}
}

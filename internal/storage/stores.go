package storage

import (
	"context"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// AttemptStore manages the single current-attempt slot per principal.
type AttemptStore struct {
	gw Gateway
}

func NewAttemptStore(gw Gateway) *AttemptStore {
	return &AttemptStore{gw: gw}
}

// Current loads the persisted in-progress attempt, if any. Sealed attempts
// left behind by a crashed teardown are ignored.
func (s *AttemptStore) Current(ctx context.Context, userID string) (*models.Attempt, bool, error) {
	var attempt models.Attempt
	ok, err := s.gw.Get(ctx, CurrentAttemptKey(userID), &attempt)
	if err != nil || !ok {
		return nil, false, err
	}
	if attempt.Status != models.AttemptStatusInProgress {
		return nil, false, nil
	}
	return &attempt, true, nil
}

func (s *AttemptStore) SaveCurrent(ctx context.Context, attempt *models.Attempt) error {
	return s.gw.Set(ctx, CurrentAttemptKey(attempt.UserID), attempt)
}

func (s *AttemptStore) ClearCurrent(ctx context.Context, userID string) error {
	return s.gw.Remove(ctx, CurrentAttemptKey(userID))
}

// HistoryStore is the append-only sealed-attempt collection. The gateway
// implementation is the default; a Postgres repository can stand in for
// durable hosting.
type HistoryStore interface {
	Append(ctx context.Context, attempt *models.Attempt) error
	ByUser(ctx context.Context, userID string) ([]models.Attempt, error)
	ByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.Attempt, error)
}

type gatewayHistory struct {
	gw Gateway
}

func NewHistoryStore(gw Gateway) HistoryStore {
	return &gatewayHistory{gw: gw}
}

func (s *gatewayHistory) Append(ctx context.Context, attempt *models.Attempt) error {
	attempts, err := s.ByUser(ctx, attempt.UserID)
	if err != nil {
		return err
	}
	attempts = append(attempts, *attempt)
	return s.gw.Set(ctx, HistoryKey(attempt.UserID), attempts)
}

func (s *gatewayHistory) ByUser(ctx context.Context, userID string) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if _, err := s.gw.Get(ctx, HistoryKey(userID), &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}

func (s *gatewayHistory) ByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.Attempt, error) {
	attempts, err := s.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	filtered := attempts[:0:0]
	for _, attempt := range attempts {
		if attempt.QuizID == quizID {
			filtered = append(filtered, attempt)
		}
	}
	return filtered, nil
}

// QuizStore resolves quiz references. Quiz CRUD itself is an external
// collaborator; the engine only reads.
type QuizStore struct {
	gw Gateway
}

func NewQuizStore(gw Gateway) *QuizStore {
	return &QuizStore{gw: gw}
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	var quiz models.Quiz
	ok, err := s.gw.Get(ctx, QuizKey(quizID), &quiz)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return &quiz, nil
}

// SaveQuiz exists for hosts and tests that seed quiz content through the
// gateway.
func (s *QuizStore) SaveQuiz(ctx context.Context, quiz *models.Quiz) error {
	return s.gw.Set(ctx, QuizKey(quiz.ID), quiz)
}

// SettingsStore reads platform settings from the gateway, falling back to
// defaults when none are saved.
type SettingsStore struct {
	gw Gateway
}

func NewSettingsStore(gw Gateway) *SettingsStore {
	return &SettingsStore{gw: gw}
}

func (s *SettingsStore) Load(ctx context.Context) (models.PlatformSettings, error) {
	settings := models.DefaultPlatformSettings()
	if _, err := s.gw.Get(ctx, SettingsKey, &settings); err != nil {
		return settings, err
	}
	return settings, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings models.PlatformSettings) error {
	return s.gw.Set(ctx, SettingsKey, settings)
}

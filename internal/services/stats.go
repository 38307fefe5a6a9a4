package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/storage"
)

// UserStats aggregates over ALL of a principal's sealed attempts. Averages
// deliberately include every retake; use BestScores for the
// best-attempt-per-quiz view. The two aggregation policies are separate on
// purpose and must not be conflated.
type UserStats struct {
	QuizzesTaken int     `json:"quizzes_taken"`
	AvgScore     float64 `json:"avg_score"`  // mean percentage across all attempts
	PassRate     float64 `json:"pass_rate"`  // share of attempts at or above passing score
	TotalScore   int     `json:"total_score"`
}

// QuizBest is the best historical result for one quiz.
type QuizBest struct {
	QuizID     string  `json:"quiz_id"`
	Percentage float64 `json:"percentage"`
	Attempts   int     `json:"attempts"`
	Passed     bool    `json:"passed"`
}

// StatsService computes history aggregates for host dashboards.
type StatsService struct {
	history  storage.HistoryStore
	settings SettingsProvider
	logger   *slog.Logger
}

func NewStatsService(history storage.HistoryStore, settings SettingsProvider, logger *slog.Logger) *StatsService {
	return &StatsService{history: history, settings: settings, logger: logger}
}

// UserStats averages over all sealed attempts of the principal.
func (s *StatsService) UserStats(ctx context.Context, userID string) (*UserStats, error) {
	attempts, err := s.history.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	stats := &UserStats{QuizzesTaken: len(attempts)}
	if len(attempts) == 0 {
		return stats, nil
	}

	sum := 0.0
	passed := 0
	for _, attempt := range attempts {
		sum += attempt.Percentage
		stats.TotalScore += attempt.TotalScore
		if attempt.Percentage >= float64(settings.PassingScore) {
			passed++
		}
	}
	stats.AvgScore = round1(sum / float64(len(attempts)))
	stats.PassRate = round1(float64(passed) / float64(len(attempts)) * 100)
	return stats, nil
}

// BestScores reports the maximum percentage per quiz across the principal's
// history.
func (s *StatsService) BestScores(ctx context.Context, userID string) ([]QuizBest, error) {
	attempts, err := s.history.ByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load attempt history: %w", err)
	}
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	order := make([]string, 0)
	byQuiz := make(map[string]*QuizBest)
	for _, attempt := range attempts {
		best, ok := byQuiz[attempt.QuizID]
		if !ok {
			best = &QuizBest{QuizID: attempt.QuizID}
			byQuiz[attempt.QuizID] = best
			order = append(order, attempt.QuizID)
		}
		best.Attempts++
		if attempt.Percentage > best.Percentage || best.Attempts == 1 {
			best.Percentage = attempt.Percentage
		}
	}

	out := make([]QuizBest, 0, len(order))
	for _, quizID := range order {
		best := byQuiz[quizID]
		best.Passed = best.Percentage >= float64(settings.PassingScore)
		out = append(out, *best)
	}
	return out, nil
}

// Passed reports whether a sealed attempt meets the passing score.
func (s *StatsService) Passed(ctx context.Context, attempt *models.Attempt) (bool, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load settings: %w", err)
	}
	return attempt.Percentage >= float64(settings.PassingScore), nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/repositories"
)

type attemptHistoryRepository struct {
	db *gorm.DB
}

func NewAttemptHistoryRepository(db *gorm.DB) repositories.AttemptHistoryRepository {
	return &attemptHistoryRepository{db: db}
}

func (r *attemptHistoryRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&models.Attempt{},
		&models.Answer{},
	)
}

// Append archives a sealed attempt with its answers. History is append-only;
// attempts are never updated or deleted here.
func (r *attemptHistoryRepository) Append(ctx context.Context, attempt *models.Attempt) error {
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to archive attempt %s: %w", attempt.ID, err)
	}
	return nil
}

func (r *attemptHistoryRepository) ByUser(ctx context.Context, userID string) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("user_id = ?", userID).
		Order("started_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts for user %s: %w", userID, err)
	}
	return attempts, nil
}

func (r *attemptHistoryRepository) ByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.Attempt, error) {
	var attempts []models.Attempt
	err := r.db.WithContext(ctx).
		Preload("Answers").
		Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("started_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts for user %s quiz %s: %w", userID, quizID, err)
	}
	return attempts, nil
}

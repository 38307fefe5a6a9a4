package repositories

import (
	"context"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// AttemptHistoryRepository is the durable variant of the attempt history
// store. It satisfies storage.HistoryStore so hosts can swap it in for the
// gateway-backed default.
type AttemptHistoryRepository interface {
	Append(ctx context.Context, attempt *models.Attempt) error
	ByUser(ctx context.Context, userID string) ([]models.Attempt, error)
	ByUserAndQuiz(ctx context.Context, userID, quizID string) ([]models.Attempt, error)

	// AutoMigrate creates or updates the backing tables.
	AutoMigrate(ctx context.Context) error
}

package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

func TestAttemptStore(t *testing.T) {
	store := NewAttemptStore(NewMemoryGateway())
	ctx := context.Background()

	t.Run("empty slot", func(t *testing.T) {
		_, ok, err := store.Current(ctx, "user-1")
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if ok {
			t.Error("empty slot reported an attempt")
		}
	})

	t.Run("save and load round trip", func(t *testing.T) {
		attempt := &models.Attempt{
			ID:        "attempt-1",
			QuizID:    "quiz-1",
			UserID:    "user-1",
			StartedAt: time.Now().Truncate(time.Second),
			TimeLimit: 600,
			Status:    models.AttemptStatusInProgress,
			Answers:   []models.Answer{{ID: "a1", QuestionID: "q1", Points: 5}},
		}
		if err := store.SaveCurrent(ctx, attempt); err != nil {
			t.Fatalf("SaveCurrent failed: %v", err)
		}

		loaded, ok, err := store.Current(ctx, "user-1")
		if err != nil || !ok {
			t.Fatalf("Current failed: ok=%v err=%v", ok, err)
		}
		if loaded.ID != "attempt-1" || len(loaded.Answers) != 1 {
			t.Errorf("loaded = %+v", loaded)
		}
		if !loaded.StartedAt.Equal(attempt.StartedAt) {
			t.Errorf("StartedAt lost precision: %v != %v", loaded.StartedAt, attempt.StartedAt)
		}
	})

	t.Run("sealed leftover is ignored", func(t *testing.T) {
		sealed := &models.Attempt{
			ID:     "attempt-2",
			UserID: "user-2",
			Status: models.AttemptStatusSubmitted,
		}
		if err := store.SaveCurrent(ctx, sealed); err != nil {
			t.Fatalf("SaveCurrent failed: %v", err)
		}
		_, ok, err := store.Current(ctx, "user-2")
		if err != nil {
			t.Fatalf("Current failed: %v", err)
		}
		if ok {
			t.Error("sealed leftover reported as current")
		}
	})

	t.Run("clear", func(t *testing.T) {
		if err := store.ClearCurrent(ctx, "user-1"); err != nil {
			t.Fatalf("ClearCurrent failed: %v", err)
		}
		if _, ok, _ := store.Current(ctx, "user-1"); ok {
			t.Error("slot survives clear")
		}
	})
}

func TestHistoryStore(t *testing.T) {
	history := NewHistoryStore(NewMemoryGateway())
	ctx := context.Background()

	append3 := []*models.Attempt{
		{ID: "a1", QuizID: "quiz-1", UserID: "user-1", Percentage: 40},
		{ID: "a2", QuizID: "quiz-2", UserID: "user-1", Percentage: 90},
		{ID: "a3", QuizID: "quiz-1", UserID: "user-1", Percentage: 80},
	}
	for _, attempt := range append3 {
		if err := history.Append(ctx, attempt); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	t.Run("by user keeps append order", func(t *testing.T) {
		attempts, err := history.ByUser(ctx, "user-1")
		if err != nil {
			t.Fatalf("ByUser failed: %v", err)
		}
		if len(attempts) != 3 {
			t.Fatalf("got %d attempts, want 3", len(attempts))
		}
		for i, want := range []string{"a1", "a2", "a3"} {
			if attempts[i].ID != want {
				t.Errorf("attempts[%d] = %s, want %s", i, attempts[i].ID, want)
			}
		}
	})

	t.Run("by user and quiz filters", func(t *testing.T) {
		attempts, err := history.ByUserAndQuiz(ctx, "user-1", "quiz-1")
		if err != nil {
			t.Fatalf("ByUserAndQuiz failed: %v", err)
		}
		if len(attempts) != 2 {
			t.Fatalf("got %d attempts, want 2", len(attempts))
		}
		if attempts[0].ID != "a1" || attempts[1].ID != "a3" {
			t.Errorf("filtered order: %s, %s", attempts[0].ID, attempts[1].ID)
		}
	})

	t.Run("unknown user is empty not error", func(t *testing.T) {
		attempts, err := history.ByUser(ctx, "nobody")
		if err != nil {
			t.Fatalf("ByUser failed: %v", err)
		}
		if len(attempts) != 0 {
			t.Errorf("got %d attempts", len(attempts))
		}
	})
}

func TestQuizStore(t *testing.T) {
	store := NewQuizStore(NewMemoryGateway())
	ctx := context.Background()

	t.Run("missing quiz", func(t *testing.T) {
		_, err := store.GetQuiz(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		quiz := &models.Quiz{
			ID:        "quiz-1",
			Title:     "Sample",
			TimeLimit: 15,
			Questions: []models.Question{
				{ID: "q1", Type: models.MultipleChoice, Points: 10, Options: []string{"a", "b"}},
			},
		}
		if err := store.SaveQuiz(ctx, quiz); err != nil {
			t.Fatalf("SaveQuiz failed: %v", err)
		}
		loaded, err := store.GetQuiz(ctx, "quiz-1")
		if err != nil {
			t.Fatalf("GetQuiz failed: %v", err)
		}
		if loaded.Title != "Sample" || len(loaded.Questions) != 1 {
			t.Errorf("loaded = %+v", loaded)
		}
	})
}

func TestSettingsStore(t *testing.T) {
	store := NewSettingsStore(NewMemoryGateway())
	ctx := context.Background()

	t.Run("defaults when unset", func(t *testing.T) {
		settings, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		defaults := models.DefaultPlatformSettings()
		if settings.PassingScore != defaults.PassingScore {
			t.Errorf("PassingScore = %d, want %d", settings.PassingScore, defaults.PassingScore)
		}
		if settings.Security.MaxViolations != defaults.Security.MaxViolations {
			t.Errorf("MaxViolations = %d", settings.Security.MaxViolations)
		}
	})

	t.Run("saved settings win", func(t *testing.T) {
		settings := models.DefaultPlatformSettings()
		settings.PassingScore = 80
		settings.AllowRetakes = false
		if err := store.Save(ctx, settings); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.PassingScore != 80 || loaded.AllowRetakes {
			t.Errorf("loaded = %+v", loaded)
		}
	})
}

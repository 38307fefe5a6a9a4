package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
	"github.com/SAP-F-2025/quiz-engine/internal/storage"
)

func newTestManager(t *testing.T, identity IdentityProvider) (*SessionManager, *sessionFixture) {
	t.Helper()

	gateway := storage.NewMemoryGateway()
	f := &sessionFixture{
		gateway:   gateway,
		quizzes:   storage.NewQuizStore(gateway),
		attempts:  storage.NewAttemptStore(gateway),
		history:   storage.NewHistoryStore(gateway),
		settings:  storage.NewSettingsStore(gateway),
		publisher: events.NewMockPublisher(testLogger()),
	}
	if err := f.quizzes.SaveQuiz(context.Background(), testQuiz()); err != nil {
		t.Fatalf("failed to seed quiz: %v", err)
	}
	manager := NewSessionManager(SessionDeps{
		Logger:    testLogger(),
		Identity:  identity,
		Settings:  f.settings,
		Quizzes:   f.quizzes,
		Attempts:  f.attempts,
		History:   f.history,
		Publisher: f.publisher,
	})
	return manager, f
}

func TestManager_SessionPerPrincipal(t *testing.T) {
	manager, _ := newTestManager(t, staticIdentity{id: "user-1"})
	ctx := context.Background()

	first, err := manager.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	second, err := manager.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	if first != second {
		t.Error("same principal got two different sessions")
	}
}

func TestManager_SessionRequiresPrincipal(t *testing.T) {
	manager, _ := newTestManager(t, staticIdentity{})
	_, err := manager.Session(context.Background())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("got %v, want ErrUnauthenticated", err)
	}
}

func TestManager_BeginReplacesTerminalSession(t *testing.T) {
	manager, _ := newTestManager(t, staticIdentity{id: "user-1"})
	ctx := context.Background()

	first, err := manager.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := first.Start(ctx, "quiz-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := first.Submit(ctx, models.SubmitManual); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	second, err := manager.Begin(ctx)
	if err != nil {
		t.Fatalf("second Begin failed: %v", err)
	}
	if second == first {
		t.Fatal("Begin reused a terminal session")
	}
	if _, err := second.Start(ctx, "quiz-1"); err != nil {
		t.Errorf("fresh session cannot start: %v", err)
	}
	if _, err := second.Submit(ctx, models.SubmitManual); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
}

func TestManager_BeginKeepsLiveSession(t *testing.T) {
	manager, _ := newTestManager(t, staticIdentity{id: "user-1"})
	ctx := context.Background()

	first, err := manager.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if _, err := first.Start(ctx, "quiz-1"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer first.Submit(ctx, models.SubmitManual)

	second, err := manager.Begin(ctx)
	if err != nil {
		t.Fatalf("second Begin failed: %v", err)
	}
	if second != first {
		t.Error("Begin replaced a live session")
	}
}

func TestManager_ResumesPersistedAttemptOnFirstTouch(t *testing.T) {
	manager, f := newTestManager(t, staticIdentity{id: "user-1"})
	ctx := context.Background()

	attempt := &models.Attempt{
		ID:        "attempt-1",
		QuizID:    "quiz-1",
		UserID:    "user-1",
		MaxScore:  10,
		StartedAt: time.Now().Add(-time.Minute),
		TimeLimit: 600,
		Status:    models.AttemptStatusInProgress,
	}
	if err := f.attempts.SaveCurrent(ctx, attempt); err != nil {
		t.Fatalf("failed to seed attempt: %v", err)
	}

	session, err := manager.Session(ctx)
	if err != nil {
		t.Fatalf("Session failed: %v", err)
	}
	defer session.Submit(ctx, models.SubmitManual)

	if session.State() != "in-progress" {
		t.Fatalf("session state = %s, want in-progress", session.State())
	}
	current, ok := session.Current()
	if !ok || current.ID != "attempt-1" {
		t.Errorf("recovered attempt = %+v", current)
	}
}

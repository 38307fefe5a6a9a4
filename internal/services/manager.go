package services

import (
	"context"
	"log/slog"
	"sync"
)

// SessionManager keeps at most one live AttemptSession per principal. A
// submitted session is terminal; starting again replaces it with a fresh one.
type SessionManager struct {
	deps SessionDeps

	mu       sync.Mutex
	sessions map[string]*AttemptSession
}

func NewSessionManager(deps SessionDeps) *SessionManager {
	return &SessionManager{
		deps:     deps,
		sessions: make(map[string]*AttemptSession),
	}
}

// Session returns the principal's session, creating one if needed. A newly
// created session tries to resume a persisted in-progress attempt first, so
// crash recovery happens transparently on the first touch after a restart.
func (m *SessionManager) Session(ctx context.Context) (*AttemptSession, error) {
	userID, err := m.deps.Identity.Principal(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	session, ok := m.sessions[userID]
	if !ok {
		session = m.newSession(userID)
		m.sessions[userID] = session
	}
	m.mu.Unlock()

	if !ok {
		m.tryResume(ctx, session, userID)
	}
	return session, nil
}

// Begin returns a session ready to start a new attempt, replacing a
// terminal one.
func (m *SessionManager) Begin(ctx context.Context) (*AttemptSession, error) {
	session, err := m.Session(ctx)
	if err != nil {
		return nil, err
	}
	if !session.Submitted() {
		return session, nil
	}

	userID, err := m.deps.Identity.Principal(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if current := m.sessions[userID]; current == nil || current.Submitted() {
		m.sessions[userID] = m.newSession(userID)
	}
	return m.sessions[userID], nil
}

func (m *SessionManager) newSession(userID string) *AttemptSession {
	deps := m.deps
	deps.Logger = m.deps.Logger.With("user_id", userID)
	return NewAttemptSession(deps)
}

func (m *SessionManager) tryResume(ctx context.Context, session *AttemptSession, userID string) {
	if _, err := session.Resume(ctx); err != nil {
		if IsNotFound(err) {
			return
		}
		m.logger().Warn("Failed to resume persisted attempt", "user_id", userID, "error", err)
	}
}

func (m *SessionManager) logger() *slog.Logger {
	return m.deps.Logger
}

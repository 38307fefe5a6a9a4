package services

import (
	"errors"
	"fmt"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Invalid state machine transitions. These are programming errors on the
	// caller's side and are surfaced immediately, never swallowed.
	ErrSessionActive    = errors.New("attempt session already in progress")
	ErrMonitorActive    = errors.New("integrity monitor already active")
	ErrCountdownRunning = errors.New("countdown already running")

	ErrNoActiveAttempt = errors.New("no active attempt")
	ErrUnauthenticated = errors.New("no authenticated principal")

	// Reference resolution errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAttemptNotFound  = errors.New("attempt not found")

	// Attempt gating errors
	ErrRetakesNotAllowed    = errors.New("quiz retakes are not allowed")
	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded")
)

// ===== CUSTOM ERROR TYPES =====

// StateError carries the offending state for invalid-transition diagnostics.
type StateError struct {
	Component string `json:"component"`
	State     string `json:"state"`
	Operation string `json:"operation"`
}

func (se *StateError) Error() string {
	return fmt.Sprintf("invalid state: cannot %s %s while %s", se.Operation, se.Component, se.State)
}

func NewStateError(component, state, operation string) *StateError {
	return &StateError{Component: component, State: state, Operation: operation}
}

// ===== ERROR HELPERS =====

// IsInvalidState checks if error represents a state machine violation.
func IsInvalidState(err error) bool {
	if errors.Is(err, ErrSessionActive) ||
		errors.Is(err, ErrMonitorActive) ||
		errors.Is(err, ErrCountdownRunning) ||
		errors.Is(err, ErrNoActiveAttempt) {
		return true
	}
	var se *StateError
	return errors.As(err, &se)
}

// IsNotFound checks if error represents a "not found" condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound)
}

// IsUnauthenticated checks if error represents a missing principal.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsAttemptGate checks if error represents retake/limit gating rather than a
// fault.
func IsAttemptGate(err error) bool {
	return errors.Is(err, ErrRetakesNotAllowed) ||
		errors.Is(err, ErrAttemptLimitExceeded)
}

package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by the typed stores when a referenced record does
// not exist in the gateway.
var ErrNotFound = errors.New("record not found")

// Gateway is the external persistence collaborator: a key-value store with
// JSON-compatible structural encoding. The engine only requires round-trip
// fidelity for Attempt/Answer/SecurityEvent records, timestamps included.
//
// The gateway is treated as externally synchronized; the engine performs
// read-modify-write without optimistic locking. Concurrent writers for the
// same attempt (two tabs) are not supported.
type Gateway interface {
	// Get unmarshals the value for key into dest. The boolean reports whether
	// the key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

// Logical key layout. One current-attempt slot per principal, one append-only
// history per principal, quizzes and settings keyed flat.
func CurrentAttemptKey(userID string) string {
	return fmt.Sprintf("attempt:current:%s", userID)
}

func HistoryKey(userID string) string {
	return fmt.Sprintf("attempt:history:%s", userID)
}

func QuizKey(quizID string) string {
	return fmt.Sprintf("quiz:%s", quizID)
}

const SettingsKey = "platform:settings"

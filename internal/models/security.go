package models

import (
	"time"
)

type SecurityEventType string

const (
	EventTabSwitch        SecurityEventType = "tab-switch"
	EventWindowBlur       SecurityEventType = "window-blur"
	EventDevToolsOpened   SecurityEventType = "devtools-opened"
	EventCopyAttempt      SecurityEventType = "copy-attempt"
	EventPasteAttempt     SecurityEventType = "paste-attempt"
	EventRightClick       SecurityEventType = "right-click"
	EventKeyboardShortcut SecurityEventType = "keyboard-shortcut"

	// EventViolationLimit is the single synthetic event appended when the
	// violation threshold is reached. Its AutoSubmit flag distinguishes it
	// from ordinary violations.
	EventViolationLimit SecurityEventType = "violation-limit"
)

// SecurityEvent is one detected behavioral signal. The monitor owns an
// append-only log of these for the lifetime of a monitoring session.
type SecurityEvent struct {
	ID        string            `json:"id" gorm:"primaryKey;size:64"`
	AttemptID string            `json:"attempt_id,omitempty" gorm:"index;size:64"`
	Type      SecurityEventType `json:"type" gorm:"not null;index;size:30"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]any    `json:"details,omitempty" gorm:"serializer:json"`

	// AutoSubmit is true only on the synthetic threshold event. Callers must
	// treat it as a one-shot auto-submit trigger.
	AutoSubmit bool `json:"auto_submit,omitempty"`
}

func (SecurityEvent) TableName() string {
	return "security_events"
}

// SecuritySettings toggles detection categories and configures the violation
// threshold. Immutable for the duration of a monitoring session.
type SecuritySettings struct {
	PreventTabSwitching      bool `json:"prevent_tab_switching"`
	PreventCopyPaste         bool `json:"prevent_copy_paste"`
	PreventRightClick        bool `json:"prevent_right_click"`
	PreventKeyboardShortcuts bool `json:"prevent_keyboard_shortcuts"`
	DetectDevTools           bool `json:"detect_devtools"`

	MaxViolations         int  `json:"max_violations" validate:"required,min=1"`
	AutoSubmitOnViolation bool `json:"auto_submit_on_violation"`
}

// DefaultSecuritySettings mirrors the platform defaults: everything on, three
// strikes, forced submission.
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{
		PreventTabSwitching:      true,
		PreventCopyPaste:         true,
		PreventRightClick:        true,
		PreventKeyboardShortcuts: true,
		DetectDevTools:           true,
		MaxViolations:            3,
		AutoSubmitOnViolation:    true,
	}
}

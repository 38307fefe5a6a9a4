package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// SignalKind identifies a raw behavioral signal reported by the host UI.
type SignalKind string

const (
	SignalVisibilityHidden SignalKind = "visibility-hidden"
	SignalWindowBlur       SignalKind = "window-blur"
	SignalWindowFocus      SignalKind = "window-focus"
	SignalCopy             SignalKind = "copy"
	SignalCut              SignalKind = "cut"
	SignalPaste            SignalKind = "paste"
	SignalContextMenu      SignalKind = "context-menu"
	SignalKeyDown          SignalKind = "key-down"
	SignalViewportSample   SignalKind = "viewport-sample"
	SignalConsoleClear     SignalKind = "console-clear"
)

// Signal is one raw behavioral observation. Only the fields relevant to the
// kind are populated.
type Signal struct {
	Kind SignalKind `json:"kind" validate:"required"`
	At   time.Time  `json:"at"`

	// Key-down payload
	Key   string `json:"key,omitempty"`
	Ctrl  bool   `json:"ctrl,omitempty"`
	Shift bool   `json:"shift,omitempty"`
	Alt   bool   `json:"alt,omitempty"`

	// Viewport sample payload
	OuterWidth  int `json:"outer_width,omitempty"`
	OuterHeight int `json:"outer_height,omitempty"`
	InnerWidth  int `json:"inner_width,omitempty"`
	InnerHeight int `json:"inner_height,omitempty"`
}

// Detection is a detector's verdict on one signal. Suppress tells the host it
// should block the underlying platform action (copy, context menu, shortcut);
// the engine records the violation either way.
type Detection struct {
	Type     models.SecurityEventType
	Details  map[string]any
	Suppress bool
}

// Detector classifies raw signals into security events. Each detection
// category is one strategy so it can be unit-tested by feeding it signals
// instead of mutating host globals.
type Detector interface {
	// Detect returns a non-nil Detection when the signal is a violation in
	// this detector's category, nil otherwise.
	Detect(sig Signal) *Detection
}

// ===== VISIBILITY =====

// VisibilityDetector flags the document becoming hidden (tab switch or
// window minimize).
type VisibilityDetector struct{}

func (VisibilityDetector) Detect(sig Signal) *Detection {
	if sig.Kind != SignalVisibilityHidden {
		return nil
	}
	return &Detection{
		Type:    models.EventTabSwitch,
		Details: map[string]any{"message": "user switched tabs or minimized window"},
	}
}

// ===== FOCUS =====

// FocusDetector flags the window losing focus. Focus-gained signals are
// ignored.
type FocusDetector struct{}

func (FocusDetector) Detect(sig Signal) *Detection {
	if sig.Kind != SignalWindowBlur {
		return nil
	}
	return &Detection{
		Type:    models.EventWindowBlur,
		Details: map[string]any{"message": "window lost focus"},
	}
}

// ===== CLIPBOARD =====

// ClipboardDetector flags copy, cut and paste. Cut counts as a copy attempt.
type ClipboardDetector struct{}

func (ClipboardDetector) Detect(sig Signal) *Detection {
	switch sig.Kind {
	case SignalCopy:
		return &Detection{
			Type:     models.EventCopyAttempt,
			Details:  map[string]any{"message": "copy attempt blocked"},
			Suppress: true,
		}
	case SignalCut:
		return &Detection{
			Type:     models.EventCopyAttempt,
			Details:  map[string]any{"message": "cut attempt blocked"},
			Suppress: true,
		}
	case SignalPaste:
		return &Detection{
			Type:     models.EventPasteAttempt,
			Details:  map[string]any{"message": "paste attempt blocked"},
			Suppress: true,
		}
	}
	return nil
}

// ===== CONTEXT MENU =====

type ContextMenuDetector struct{}

func (ContextMenuDetector) Detect(sig Signal) *Detection {
	if sig.Kind != SignalContextMenu {
		return nil
	}
	return &Detection{
		Type:     models.EventRightClick,
		Details:  map[string]any{"message": "right-click blocked"},
		Suppress: true,
	}
}

// ===== KEYBOARD =====

// KeyCombo is one denylisted key combination.
type KeyCombo struct {
	Key   string
	Ctrl  bool
	Shift bool
	Alt   bool
}

// DefaultBlockedCombos is the fixed denylist: developer-tools toggles,
// view-source, save, print, fullscreen and reloads.
func DefaultBlockedCombos() []KeyCombo {
	return []KeyCombo{
		{Key: "F12"},
		{Key: "I", Ctrl: true, Shift: true},
		{Key: "J", Ctrl: true, Shift: true},
		{Key: "C", Ctrl: true, Shift: true},
		{Key: "U", Ctrl: true},
		{Key: "S", Ctrl: true},
		{Key: "P", Ctrl: true},
		{Key: "F11"},
		{Key: "R", Ctrl: true, Shift: true},
		{Key: "R", Ctrl: true},
	}
}

// KeyboardDetector flags denylisted key combinations.
type KeyboardDetector struct {
	Blocked []KeyCombo
}

func NewKeyboardDetector() *KeyboardDetector {
	return &KeyboardDetector{Blocked: DefaultBlockedCombos()}
}

func (d *KeyboardDetector) Detect(sig Signal) *Detection {
	if sig.Kind != SignalKeyDown {
		return nil
	}
	for _, combo := range d.Blocked {
		if strings.EqualFold(sig.Key, combo.Key) &&
			sig.Ctrl == combo.Ctrl &&
			sig.Shift == combo.Shift &&
			sig.Alt == combo.Alt {
			return &Detection{
				Type: models.EventKeyboardShortcut,
				Details: map[string]any{
					"message": fmt.Sprintf("blocked keyboard shortcut: %s", sig.Key),
					"key":     sig.Key,
					"ctrl":    sig.Ctrl,
					"shift":   sig.Shift,
					"alt":     sig.Alt,
				},
				Suppress: true,
			}
		}
	}
	return nil
}

// ===== DEVTOOLS =====

// devToolsViewportThreshold is the outer/inner delta in pixels above which an
// open developer-tools pane is assumed.
const devToolsViewportThreshold = 160

// DevToolsDetector applies two heuristics: a viewport dimension delta sampled
// on a periodic tick, and console log-clearing. Both are heuristic, not
// security-proof.
type DevToolsDetector struct {
	Threshold int
}

func NewDevToolsDetector() *DevToolsDetector {
	return &DevToolsDetector{Threshold: devToolsViewportThreshold}
}

func (d *DevToolsDetector) Detect(sig Signal) *Detection {
	switch sig.Kind {
	case SignalViewportSample:
		if sig.OuterHeight-sig.InnerHeight > d.Threshold ||
			sig.OuterWidth-sig.InnerWidth > d.Threshold {
			return &Detection{
				Type:    models.EventDevToolsOpened,
				Details: map[string]any{"message": "devtools detected via dimension check"},
			}
		}
	case SignalConsoleClear:
		return &Detection{
			Type:    models.EventDevToolsOpened,
			Details: map[string]any{"message": "console clear detected - possible devtools usage"},
		}
	}
	return nil
}

// detectorsFor builds the detector set for the categories enabled in the
// settings. A disabled or unavailable category is simply absent, never an
// error.
func detectorsFor(settings models.SecuritySettings) []Detector {
	detectors := make([]Detector, 0, 6)
	if settings.PreventTabSwitching {
		detectors = append(detectors, VisibilityDetector{})
	}
	// Blur is watched regardless of the tab-switching toggle.
	detectors = append(detectors, FocusDetector{})
	if settings.DetectDevTools {
		detectors = append(detectors, NewDevToolsDetector())
	}
	if settings.PreventCopyPaste {
		detectors = append(detectors, ClipboardDetector{})
	}
	if settings.PreventRightClick {
		detectors = append(detectors, ContextMenuDetector{})
	}
	if settings.PreventKeyboardShortcuts {
		detectors = append(detectors, NewKeyboardDetector())
	}
	return detectors
}

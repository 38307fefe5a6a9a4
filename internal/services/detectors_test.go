package services

import (
	"testing"

	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

func TestVisibilityDetector(t *testing.T) {
	d := VisibilityDetector{}

	if got := d.Detect(Signal{Kind: SignalVisibilityHidden}); got == nil || got.Type != models.EventTabSwitch {
		t.Errorf("hidden signal: got %+v, want tab-switch detection", got)
	}
	if got := d.Detect(Signal{Kind: SignalWindowBlur}); got != nil {
		t.Errorf("blur signal should be ignored, got %+v", got)
	}
}

func TestFocusDetector(t *testing.T) {
	d := FocusDetector{}

	if got := d.Detect(Signal{Kind: SignalWindowBlur}); got == nil || got.Type != models.EventWindowBlur {
		t.Errorf("blur signal: got %+v, want window-blur detection", got)
	}
	// Regaining focus is benign.
	if got := d.Detect(Signal{Kind: SignalWindowFocus}); got != nil {
		t.Errorf("focus signal should be ignored, got %+v", got)
	}
}

func TestClipboardDetector(t *testing.T) {
	d := ClipboardDetector{}

	tests := []struct {
		kind SignalKind
		want models.SecurityEventType
	}{
		{SignalCopy, models.EventCopyAttempt},
		{SignalCut, models.EventCopyAttempt},
		{SignalPaste, models.EventPasteAttempt},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := d.Detect(Signal{Kind: tt.kind})
			if got == nil || got.Type != tt.want {
				t.Fatalf("got %+v, want %s", got, tt.want)
			}
			if !got.Suppress {
				t.Error("clipboard detections must ask the host to suppress")
			}
		})
	}
}

func TestContextMenuDetector(t *testing.T) {
	d := ContextMenuDetector{}

	got := d.Detect(Signal{Kind: SignalContextMenu})
	if got == nil || got.Type != models.EventRightClick || !got.Suppress {
		t.Errorf("got %+v, want suppressed right-click detection", got)
	}
}

func TestKeyboardDetector(t *testing.T) {
	d := NewKeyboardDetector()

	tests := []struct {
		name    string
		sig     Signal
		blocked bool
	}{
		{"F12", Signal{Kind: SignalKeyDown, Key: "F12"}, true},
		{"ctrl+shift+i", Signal{Kind: SignalKeyDown, Key: "i", Ctrl: true, Shift: true}, true},
		{"ctrl+shift+I uppercase", Signal{Kind: SignalKeyDown, Key: "I", Ctrl: true, Shift: true}, true},
		{"ctrl+u", Signal{Kind: SignalKeyDown, Key: "u", Ctrl: true}, true},
		{"ctrl+r reload", Signal{Kind: SignalKeyDown, Key: "r", Ctrl: true}, true},
		{"plain letter", Signal{Kind: SignalKeyDown, Key: "a"}, false},
		{"ctrl+c is not blocked", Signal{Kind: SignalKeyDown, Key: "c", Ctrl: true}, false},
		{"modifier mismatch", Signal{Kind: SignalKeyDown, Key: "I", Ctrl: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.sig)
			if tt.blocked && (got == nil || got.Type != models.EventKeyboardShortcut) {
				t.Fatalf("got %+v, want keyboard-shortcut detection", got)
			}
			if !tt.blocked && got != nil {
				t.Fatalf("got %+v, want no detection", got)
			}
		})
	}
}

func TestDevToolsDetector(t *testing.T) {
	d := NewDevToolsDetector()

	t.Run("viewport delta above threshold", func(t *testing.T) {
		got := d.Detect(Signal{
			Kind:        SignalViewportSample,
			OuterWidth:  1920,
			InnerWidth:  1920,
			OuterHeight: 1080,
			InnerHeight: 880,
		})
		if got == nil || got.Type != models.EventDevToolsOpened {
			t.Errorf("got %+v, want devtools detection", got)
		}
	})

	t.Run("viewport delta within threshold", func(t *testing.T) {
		got := d.Detect(Signal{
			Kind:        SignalViewportSample,
			OuterWidth:  1920,
			InnerWidth:  1910,
			OuterHeight: 1080,
			InnerHeight: 1000,
		})
		if got != nil {
			t.Errorf("got %+v, want no detection", got)
		}
	})

	t.Run("console clear", func(t *testing.T) {
		got := d.Detect(Signal{Kind: SignalConsoleClear})
		if got == nil || got.Type != models.EventDevToolsOpened {
			t.Errorf("got %+v, want devtools detection", got)
		}
	})
}

func TestDetectorsFor(t *testing.T) {
	t.Run("all categories enabled", func(t *testing.T) {
		detectors := detectorsFor(models.DefaultSecuritySettings())
		if len(detectors) != 6 {
			t.Errorf("got %d detectors, want 6", len(detectors))
		}
	})

	t.Run("everything off keeps focus watching", func(t *testing.T) {
		detectors := detectorsFor(models.SecuritySettings{})
		if len(detectors) != 1 {
			t.Fatalf("got %d detectors, want just the focus detector", len(detectors))
		}
		if _, ok := detectors[0].(FocusDetector); !ok {
			t.Errorf("remaining detector is %T, want FocusDetector", detectors[0])
		}
	})
}

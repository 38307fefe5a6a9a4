package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestMonitor(t *testing.T) (*IntegrityMonitor, *events.MockPublisher) {
	t.Helper()
	publisher := events.NewMockPublisher(testLogger())
	return NewIntegrityMonitor(testLogger(), publisher), publisher
}

func TestMonitor_StartStop(t *testing.T) {
	m, _ := newTestMonitor(t)

	if m.Active() {
		t.Fatal("monitor active before Start")
	}
	if err := m.Start(models.DefaultSecuritySettings(), "attempt-1", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !m.Active() {
		t.Fatal("monitor not active after Start")
	}
	if err := m.Start(models.DefaultSecuritySettings(), "attempt-2", nil); !errors.Is(err, ErrMonitorActive) {
		t.Errorf("second Start returned %v, want ErrMonitorActive", err)
	}

	m.Stop()
	if m.Active() {
		t.Error("monitor still active after Stop")
	}
	m.Stop() // idempotent
}

func TestMonitor_ObserveInactiveIsNoop(t *testing.T) {
	m, _ := newTestMonitor(t)

	result := m.Observe(context.Background(), Signal{Kind: SignalVisibilityHidden})
	if result.Event != nil || result.Suppress || result.AutoSubmit {
		t.Errorf("inactive monitor produced %+v", result)
	}
	if m.ViolationCount() != 0 {
		t.Errorf("inactive monitor counted violations: %d", m.ViolationCount())
	}
}

func TestMonitor_CountsAndLogs(t *testing.T) {
	m, publisher := newTestMonitor(t)
	settings := models.DefaultSecuritySettings()
	settings.AutoSubmitOnViolation = false

	if err := m.Start(settings, "attempt-1", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	ctx := context.Background()
	m.Observe(ctx, Signal{Kind: SignalVisibilityHidden})
	m.Observe(ctx, Signal{Kind: SignalWindowFocus}) // benign
	result := m.Observe(ctx, Signal{Kind: SignalCopy})

	if m.ViolationCount() != 2 {
		t.Errorf("ViolationCount = %d, want 2", m.ViolationCount())
	}
	if result.Event == nil || result.Event.Type != models.EventCopyAttempt {
		t.Fatalf("copy signal result %+v", result)
	}
	if !result.Suppress {
		t.Error("copy detection should request suppression")
	}
	if result.Event.AttemptID != "attempt-1" {
		t.Errorf("event attempt ID = %q", result.Event.AttemptID)
	}

	log := m.EventLog()
	if len(log) != 2 {
		t.Fatalf("event log has %d entries, want 2", len(log))
	}
	if log[0].Type != models.EventTabSwitch || log[1].Type != models.EventCopyAttempt {
		t.Errorf("event log order wrong: %s, %s", log[0].Type, log[1].Type)
	}

	published := publisher.PublishedEvents()
	if len(published) != 2 {
		t.Fatalf("published %d events, want 2", len(published))
	}
	for _, event := range published {
		if event.Type != events.EventViolationRecorded {
			t.Errorf("published event type %s", event.Type)
		}
	}
}

func TestMonitor_DisabledCategoryPassesThrough(t *testing.T) {
	m, _ := newTestMonitor(t)
	settings := models.DefaultSecuritySettings()
	settings.PreventCopyPaste = false

	if err := m.Start(settings, "attempt-1", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	result := m.Observe(context.Background(), Signal{Kind: SignalCopy})
	if result.Event != nil {
		t.Errorf("disabled category produced event %+v", result.Event)
	}
	if m.ViolationCount() != 0 {
		t.Errorf("disabled category counted: %d", m.ViolationCount())
	}
}

func TestMonitor_ThresholdFiresOnce(t *testing.T) {
	m, publisher := newTestMonitor(t)
	settings := models.DefaultSecuritySettings()
	settings.MaxViolations = 3

	limitCalls := 0
	if err := m.Start(settings, "attempt-1", func() { limitCalls++ }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	ctx := context.Background()
	first := m.Observe(ctx, Signal{Kind: SignalVisibilityHidden})
	second := m.Observe(ctx, Signal{Kind: SignalWindowBlur})
	if first.AutoSubmit || second.AutoSubmit {
		t.Fatal("auto-submit before threshold")
	}

	third := m.Observe(ctx, Signal{Kind: SignalContextMenu})
	if !third.AutoSubmit {
		t.Fatal("third violation did not trigger auto-submit")
	}
	if limitCalls != 1 {
		t.Fatalf("onLimit called %d times, want 1", limitCalls)
	}

	// A straggler arriving while submission is in flight is logged and counted
	// but never re-triggers.
	fourth := m.Observe(ctx, Signal{Kind: SignalCopy})
	if fourth.AutoSubmit {
		t.Error("straggler re-triggered auto-submit")
	}
	if fourth.Event == nil {
		t.Error("straggler was not recorded")
	}
	if limitCalls != 1 {
		t.Errorf("onLimit called %d times after straggler, want 1", limitCalls)
	}
	if m.ViolationCount() != 4 {
		t.Errorf("ViolationCount = %d, want 4", m.ViolationCount())
	}

	// The log carries the synthetic threshold marker, flagged and uncounted.
	log := m.EventLog()
	if len(log) != 5 {
		t.Fatalf("event log has %d entries, want 5", len(log))
	}
	marker := log[3]
	if marker.Type != models.EventViolationLimit || !marker.AutoSubmit {
		t.Errorf("threshold marker wrong: %+v", marker)
	}

	var limitPublished int
	for _, event := range publisher.PublishedEvents() {
		if event.Type == events.EventViolationLimit {
			limitPublished++
		}
	}
	if limitPublished != 1 {
		t.Errorf("violation-limit published %d times, want 1", limitPublished)
	}
}

func TestMonitor_NoAutoSubmitWhenDisabled(t *testing.T) {
	m, _ := newTestMonitor(t)
	settings := models.DefaultSecuritySettings()
	settings.MaxViolations = 1
	settings.AutoSubmitOnViolation = false

	if err := m.Start(settings, "attempt-1", func() { t.Fatal("onLimit fired") }); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	result := m.Observe(context.Background(), Signal{Kind: SignalVisibilityHidden})
	if result.AutoSubmit {
		t.Error("auto-submit with the toggle off")
	}
}

func TestMonitor_Stream(t *testing.T) {
	m, _ := newTestMonitor(t)
	if err := m.Start(models.DefaultSecuritySettings(), "attempt-1", nil); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	stream := m.Events()
	m.Observe(context.Background(), Signal{Kind: SignalVisibilityHidden})

	select {
	case event := <-stream:
		if event.Type != models.EventTabSwitch {
			t.Errorf("streamed event type %s", event.Type)
		}
	default:
		t.Fatal("no event on stream")
	}

	m.Stop()
	if _, ok := <-stream; ok {
		t.Error("stream not closed after Stop")
	}
}

func TestMonitor_ResetViolations(t *testing.T) {
	m, _ := newTestMonitor(t)
	settings := models.DefaultSecuritySettings()
	settings.MaxViolations = 2

	if err := m.Start(settings, "attempt-1", func() {}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer m.Stop()

	ctx := context.Background()
	m.Observe(ctx, Signal{Kind: SignalVisibilityHidden})
	m.Observe(ctx, Signal{Kind: SignalWindowBlur})

	m.ResetViolations()
	if m.ViolationCount() != 0 {
		t.Errorf("ViolationCount = %d after reset", m.ViolationCount())
	}
	if len(m.EventLog()) != 0 {
		t.Errorf("event log not cleared: %d entries", len(m.EventLog()))
	}
	if !m.Active() {
		t.Error("reset deactivated the monitor")
	}

	// The threshold can fire again after a reset.
	m.Observe(ctx, Signal{Kind: SignalVisibilityHidden})
	result := m.Observe(ctx, Signal{Kind: SignalWindowBlur})
	if !result.AutoSubmit {
		t.Error("threshold did not re-fire after reset")
	}
}

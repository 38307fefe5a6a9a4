package services

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/quiz-engine/internal/events"
	"github.com/SAP-F-2025/quiz-engine/internal/models"
)

// eventStreamBuffer bounds the per-session event stream. Violation activity
// is finite per session, so a slow consumer loses nothing in practice; the
// full log is always retained.
const eventStreamBuffer = 64

// ObserveResult tells the host what a signal amounted to.
type ObserveResult struct {
	// Event is the recorded violation, nil when the signal was benign or the
	// monitor inactive.
	Event *models.SecurityEvent
	// Suppress tells the host to block the underlying platform action.
	Suppress bool
	// AutoSubmit is true exactly once per session, when the violation
	// threshold was crossed by this signal.
	AutoSubmit bool
}

// IntegrityMonitor converts behavioral signals into a counted, capped
// violation stream and fires a one-shot auto-submit trigger when the
// threshold is reached.
type IntegrityMonitor struct {
	logger    *slog.Logger
	publisher events.Publisher

	mu         sync.Mutex
	active     bool
	settings   models.SecuritySettings
	detectors  []Detector
	attemptID  string
	log        []models.SecurityEvent
	stream     chan models.SecurityEvent
	count      int
	limitFired bool
	onLimit    func()

	// submitting guards against auto-submit cascades: while set, incoming
	// signals are still logged and counted but never re-trigger.
	submitting atomic.Bool
}

func NewIntegrityMonitor(logger *slog.Logger, publisher events.Publisher) *IntegrityMonitor {
	return &IntegrityMonitor{
		logger:    logger,
		publisher: publisher,
	}
}

// Start activates detection for the categories enabled in settings and
// registers the one-shot auto-submit trigger. The violation count and event
// log reset; the event stream of a previous session is not restartable.
func (m *IntegrityMonitor) Start(settings models.SecuritySettings, attemptID string, onLimit func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return ErrMonitorActive
	}

	m.active = true
	m.settings = settings
	m.detectors = detectorsFor(settings)
	m.attemptID = attemptID
	m.log = nil
	m.stream = make(chan models.SecurityEvent, eventStreamBuffer)
	m.count = 0
	m.limitFired = false
	m.onLimit = onLimit
	m.submitting.Store(false)

	m.logger.Info("Integrity monitoring started",
		"attempt_id", attemptID,
		"max_violations", settings.MaxViolations,
		"auto_submit", settings.AutoSubmitOnViolation,
		"detectors", len(m.detectors))

	return nil
}

// Stop deactivates all detection and closes the event stream. Idempotent:
// submit and crash-recovery paths may both call it.
func (m *IntegrityMonitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return
	}
	m.active = false
	m.detectors = nil
	m.onLimit = nil
	close(m.stream)

	m.logger.Info("Integrity monitoring stopped",
		"attempt_id", m.attemptID,
		"violations", m.count)
}

// Observe routes one behavioral signal through the active detector set.
// Benign signals and signals for disabled categories pass through untouched.
func (m *IntegrityMonitor) Observe(ctx context.Context, sig Signal) ObserveResult {
	m.mu.Lock()

	if !m.active {
		m.mu.Unlock()
		return ObserveResult{}
	}

	var detection *Detection
	for _, detector := range m.detectors {
		if d := detector.Detect(sig); d != nil {
			detection = d
			break
		}
	}
	if detection == nil {
		m.mu.Unlock()
		return ObserveResult{}
	}

	at := sig.At
	if at.IsZero() {
		at = time.Now()
	}
	event := models.SecurityEvent{
		ID:        uuid.NewString(),
		AttemptID: m.attemptID,
		Type:      detection.Type,
		Timestamp: at,
		Details:   detection.Details,
	}
	m.record(event)
	m.count++

	result := ObserveResult{Event: &event, Suppress: detection.Suppress}

	// Threshold check. While an auto-submit is already in flight the event is
	// kept for the log but must not trigger a second submission.
	var onLimit func()
	if m.settings.AutoSubmitOnViolation &&
		m.count >= m.settings.MaxViolations &&
		!m.limitFired &&
		!m.submitting.Load() {
		m.limitFired = true
		m.submitting.Store(true)
		result.AutoSubmit = true

		limitEvent := models.SecurityEvent{
			ID:         uuid.NewString(),
			AttemptID:  m.attemptID,
			Type:       models.EventViolationLimit,
			Timestamp:  time.Now(),
			Details:    map[string]any{"message": "maximum violations reached - auto-submitting attempt"},
			AutoSubmit: true,
		}
		m.record(limitEvent)
		onLimit = m.onLimit
	}
	count := m.count
	m.mu.Unlock()

	m.logger.Warn("Security violation recorded",
		"attempt_id", event.AttemptID,
		"type", event.Type,
		"violations", count)
	m.publish(ctx, events.EventViolationRecorded, event)

	if onLimit != nil {
		m.publish(ctx, events.EventViolationLimit, event)
		onLimit()
	}
	return result
}

// record appends to the log and the stream. Callers hold m.mu. The stream
// send never blocks; the log is authoritative.
func (m *IntegrityMonitor) record(event models.SecurityEvent) {
	m.log = append(m.log, event)
	select {
	case m.stream <- event:
	default:
	}
}

func (m *IntegrityMonitor) publish(ctx context.Context, eventType events.EventType, event models.SecurityEvent) {
	if m.publisher == nil {
		return
	}
	if err := m.publisher.PublishEngineEvent(ctx, events.NewEngineEvent(eventType, event)); err != nil {
		m.logger.Error("Failed to publish security event",
			"attempt_id", event.AttemptID,
			"type", event.Type,
			"error", err)
	}
}

// Events returns the append-only event stream for the current session. The
// channel closes on Stop and is not restartable.
func (m *IntegrityMonitor) Events() <-chan models.SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stream
}

// EventLog returns a copy of all events recorded this session, synthetic
// threshold marker included.
func (m *IntegrityMonitor) EventLog() []models.SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SecurityEvent, len(m.log))
	copy(out, m.log)
	return out
}

// ViolationCount reports recorded violations. The synthetic threshold marker
// is not a violation and is not counted.
func (m *IntegrityMonitor) ViolationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

// Active reports whether detection is currently armed.
func (m *IntegrityMonitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ResetViolations clears the count and log without deactivating detection.
// Meant for between sessions, not mid-session.
func (m *IntegrityMonitor) ResetViolations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count = 0
	m.log = nil
	m.limitFired = false
	m.submitting.Store(false)
}

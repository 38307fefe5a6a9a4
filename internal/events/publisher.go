package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type EventType string

const (
	EventAttemptStarted    EventType = "attempt.started"
	EventAttemptSubmitted  EventType = "attempt.submitted"
	EventViolationRecorded EventType = "proctor.violation"
	EventViolationLimit    EventType = "proctor.violation_limit"
)

// EngineEvent is the envelope published for attempt lifecycle and proctoring
// events.
type EngineEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEngineEvent fills the envelope with the engine's identity and a fresh ID.
func NewEngineEvent(eventType EventType, data any) *EngineEvent {
	return &EngineEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Source:    "quiz-engine",
		Version:   "1.0",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// Publisher defines the interface for publishing engine events.
type Publisher interface {
	PublishEngineEvent(ctx context.Context, event *EngineEvent) error
	Close() error
}

// ===== WATERMILL-BACKED PUBLISHERS =====

// watermillPublisher adapts any watermill message.Publisher to the engine
// contract. Kafka and the in-process gochannel bus share it.
type watermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topicName string
}

// PublisherConfig holds configuration for the Kafka event publisher.
type PublisherConfig struct {
	KafkaBrokers []string
	TopicName    string
	Logger       *slog.Logger
}

// NewKafkaPublisher creates a Kafka-based event publisher using Watermill.
func NewKafkaPublisher(config PublisherConfig) (Publisher, error) {
	logger := watermill.NewSlogLogger(config.Logger)

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   config.KafkaBrokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka publisher: %w", err)
	}

	return &watermillPublisher{
		publisher: publisher,
		logger:    config.Logger,
		topicName: config.TopicName,
	}, nil
}

// GoChannelPublisher is an in-process pub/sub bus. Hosts that embed the
// engine subscribe to it instead of running Kafka.
type GoChannelPublisher struct {
	watermillPublisher
	bus *gochannel.GoChannel
}

func NewGoChannelPublisher(topicName string, slogger *slog.Logger) *GoChannelPublisher {
	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewSlogLogger(slogger))
	return &GoChannelPublisher{
		watermillPublisher: watermillPublisher{
			publisher: bus,
			logger:    slogger,
			topicName: topicName,
		},
		bus: bus,
	}
}

// Subscribe exposes the underlying bus for in-process consumers.
func (p *GoChannelPublisher) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return p.bus.Subscribe(ctx, p.topicName)
}

func (p *watermillPublisher) PublishEngineEvent(ctx context.Context, event *EngineEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal engine event: %w", err)
	}

	msg := message.NewMessage(event.ID, eventBytes)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.Format(time.RFC3339))

	if err := p.publisher.Publish(p.topicName, msg); err != nil {
		p.logger.Error("Failed to publish engine event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		return fmt.Errorf("failed to publish engine event: %w", err)
	}

	p.logger.Debug("Published engine event",
		"event_id", event.ID,
		"event_type", event.Type,
		"topic", p.topicName)

	return nil
}

func (p *watermillPublisher) Close() error {
	return p.publisher.Close()
}

// ===== MOCK PUBLISHER =====

// MockPublisher stores events in memory for tests and for hosts that disable
// event publishing.
type MockPublisher struct {
	mu     sync.Mutex
	events []EngineEvent
	logger *slog.Logger
}

func NewMockPublisher(logger *slog.Logger) *MockPublisher {
	return &MockPublisher{
		events: make([]EngineEvent, 0),
		logger: logger,
	}
}

func (m *MockPublisher) PublishEngineEvent(_ context.Context, event *EngineEvent) error {
	m.mu.Lock()
	m.events = append(m.events, *event)
	m.mu.Unlock()
	m.logger.Debug("Mock: published engine event",
		"event_id", event.ID,
		"event_type", event.Type)
	return nil
}

func (m *MockPublisher) Close() error {
	return nil
}

// PublishedEvents returns all published events (for testing).
func (m *MockPublisher) PublishedEvents() []EngineEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EngineEvent, len(m.events))
	copy(out, m.events)
	return out
}

// ClearEvents clears all published events (for testing).
func (m *MockPublisher) ClearEvents() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = m.events[:0]
}

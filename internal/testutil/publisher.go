package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"
)

// PublishedEvent represents an event that was published to RabbitMQ
type PublishedEvent struct {
	RoutingKey string
	EventData  interface{}
	Timestamp  time.Time
	RawJSON    []byte
}

// MockPublisher records published events in memory instead of talking to a broker.
// Set Err to make every Publish fail.
type MockPublisher struct {
	mu     sync.RWMutex
	events []PublishedEvent
	Err    error
}

// NewMockPublisher creates a new mock publisher
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		events: make([]PublishedEvent, 0),
	}
}

// Publish stores an event in memory
func (m *MockPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}

	// Marshal to JSON to simulate real publishing
	jsonData, err := json.Marshal(eventData)
	if err != nil {
		return err
	}

	m.events = append(m.events, PublishedEvent{
		RoutingKey: routingKey,
		EventData:  eventData,
		Timestamp:  time.Now(),
		RawJSON:    jsonData,
	})
	return nil
}

// Close is a no-op for mock publisher
func (m *MockPublisher) Close() error {
	return nil
}

// GetAllEvents returns all published events
func (m *MockPublisher) GetAllEvents() []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	eventsCopy := make([]PublishedEvent, len(m.events))
	copy(eventsCopy, m.events)
	return eventsCopy
}

// GetEventsByKey returns all events with the specified routing key
func (m *MockPublisher) GetEventsByKey(routingKey string) []PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var filtered []PublishedEvent
	for _, event := range m.events {
		if event.RoutingKey == routingKey {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// GetEventCountByKey returns the number of events with the specified routing key
func (m *MockPublisher) GetEventCountByKey(routingKey string) int {
	return len(m.GetEventsByKey(routingKey))
}

// AssertEventCount asserts the exact number of events with the given routing key
func (m *MockPublisher) AssertEventCount(t *testing.T, routingKey string, expected int) {
	t.Helper()

	count := m.GetEventCountByKey(routingKey)
	if count != expected {
		t.Errorf("Expected %d events with routing key '%s', got %d", expected, routingKey, count)
	}
}

// AssertEventNotPublished asserts that no events with the given routing key were published
func (m *MockPublisher) AssertEventNotPublished(t *testing.T, routingKey string) {
	t.Helper()
	m.AssertEventCount(t, routingKey, 0)
}

// GetLastEventByKey returns the most recently published event with the given routing key
func (m *MockPublisher) GetLastEventByKey(routingKey string) *PublishedEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].RoutingKey == routingKey {
			event := m.events[i]
			return &event
		}
	}
	return nil
}

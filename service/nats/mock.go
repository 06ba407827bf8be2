package nats

import (
	"context"
	"sync"

	"github.com/brojonat/ledgerdump/service/report"
)

// MockPublisher is a mock implementation of Publisher for testing.
type MockPublisher struct {
	mu              sync.RWMutex
	ledgerID        string
	publishedEvents []*RowEvent
	publishError    error
	closed          bool
}

// NewMockPublisher creates a new mock publisher for testing.
func NewMockPublisher(ledgerID string) *MockPublisher {
	return &MockPublisher{
		ledgerID:        ledgerID,
		publishedEvents: make([]*RowEvent, 0),
	}
}

// PublishRow records the event and returns any configured error.
func (m *MockPublisher) PublishRow(ctx context.Context, row report.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishError != nil {
		return m.publishError
	}

	m.publishedEvents = append(m.publishedEvents, FromRow(m.ledgerID, row))
	return nil
}

// Close marks the publisher as closed.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// GetPublishedEvents returns all published events (for testing).
func (m *MockPublisher) GetPublishedEvents() []*RowEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*RowEvent, len(m.publishedEvents))
	copy(events, m.publishedEvents)
	return events
}

// SetPublishError configures the mock to return an error on PublishRow.
func (m *MockPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishError = err
}

// IsClosed returns whether the publisher has been closed.
func (m *MockPublisher) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

package messaging

import "context"

// PublisherInterface defines the contract for event publishing
// This allows for easy mocking in tests
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, eventData interface{}) error
	Close() error
}

// Ensure implementations satisfy PublisherInterface
var (
	_ PublisherInterface = (*Publisher)(nil)
	_ PublisherInterface = NoopPublisher{}
)

// NoopPublisher discards events; used when no broker is configured
type NoopPublisher struct{}

// Publish drops the event
func (NoopPublisher) Publish(ctx context.Context, routingKey string, eventData interface{}) error {
	return nil
}

// Close is a no-op
func (NoopPublisher) Close() error {
	return nil
}

package messaging

import "context"

// PublisherInterface is the event publishing contract. Consumers depend
// on it so tests can swap in an in-memory publisher.
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, eventData interface{}) error
	Close() error
}

// Ensure Publisher implements PublisherInterface
var _ PublisherInterface = (*Publisher)(nil)

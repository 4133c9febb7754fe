package ports

import "context"

// EventPublisher delivers relayed outbox messages to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, key string, eventType string, payload []byte) error
}

package ports

import (
	"context"
	"time"
)

// OutboxMessage is a stored, serialized domain event waiting to be relayed.
type OutboxMessage struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	RetryCount  int
}

// OutboxRepository reads and acknowledges the transactional outbox. Messages are
// written by the unit of work when it commits order changes.
type OutboxRepository interface {
	// FetchUnpublished locks up to limit pending messages that have been retried fewer
	// than maxRetries times, oldest first.
	FetchUnpublished(ctx context.Context, limit, maxRetries int) ([]OutboxMessage, error)

	MarkPublished(ctx context.Context, id int64, at time.Time) error

	// MarkFailed increments the retry count and records reason.
	MarkFailed(ctx context.Context, id int64, reason string) error
}

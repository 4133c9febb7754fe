package commands

import (
	"context"
	"log/slog"
	"time"

	"dentallab/internal/core/ports"
	"dentallab/internal/metrics"
)

type RelayOutboxResult struct {
	Fetched   int
	Published int
	Failed    int
}

// RelayOutboxCommandHandler moves outbox messages to the broker. The batch stays locked
// in its transaction while it is published, so concurrent relays never send a message
// twice; delivery is still at least once because a crash after publishing leaves the
// row pending.
type RelayOutboxCommandHandler struct {
	uowFactory OutboxUoWFactory
	publisher  ports.EventPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

func NewRelayOutboxCommandHandler(
	uowFactory OutboxUoWFactory, publisher ports.EventPublisher, m *metrics.Metrics, logger *slog.Logger,
) RelayOutboxCommandHandler {
	return RelayOutboxCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		metrics:    m,
		logger:     logger.With("component", "outbox_relay"),
		now:        time.Now,
	}
}

// Handle publishes one batch. A failed publish is recorded on its message and does not
// stop the batch; the returned error is reserved for storage failures.
func (h *RelayOutboxCommandHandler) Handle(ctx context.Context, cmd RelayOutboxCommand) (RelayOutboxResult, error) {
	if err := cmd.Validate(); err != nil {
		return RelayOutboxResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return RelayOutboxResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	outbox := uow.OutboxRepository()
	messages, err := outbox.FetchUnpublished(ctx, cmd.BatchSize(), cmd.MaxRetries())
	if err != nil {
		return RelayOutboxResult{}, err
	}

	result := RelayOutboxResult{Fetched: len(messages)}
	for _, msg := range messages {
		if pubErr := h.publisher.Publish(ctx, msg.AggregateID, msg.EventType, msg.Payload); pubErr != nil {
			h.logger.WarnContext(ctx, "outbox message not published",
				slog.Int64("message_id", msg.ID),
				slog.String("event_type", msg.EventType),
				slog.Int("retry_count", msg.RetryCount+1),
				slog.Any("error", pubErr),
			)
			if err := outbox.MarkFailed(ctx, msg.ID, pubErr.Error()); err != nil {
				return RelayOutboxResult{}, err
			}
			result.Failed++
			continue
		}

		if err := outbox.MarkPublished(ctx, msg.ID, h.now()); err != nil {
			return RelayOutboxResult{}, err
		}
		result.Published++
	}

	if err := uow.Commit(ctx); err != nil {
		return RelayOutboxResult{}, err
	}

	h.metrics.ObserveRelay(result.Fetched, result.Published, result.Failed)
	return result, nil
}

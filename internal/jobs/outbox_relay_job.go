package jobs

import (
	"context"
	"log/slog"

	"dentallab/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultRelaySchedule runs the relay every five seconds.
const DefaultRelaySchedule = "*/5 * * * * *"

type outboxRelayer interface {
	Handle(ctx context.Context, cmd commands.RelayOutboxCommand) (commands.RelayOutboxResult, error)
}

// OutboxRelayJob publishes pending outbox messages on a schedule.
type OutboxRelayJob struct {
	handler  outboxRelayer
	command  commands.RelayOutboxCommand
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewOutboxRelayJob creates a job that runs cmd on schedule, a six field cron expression.
// An empty schedule means DefaultRelaySchedule.
func NewOutboxRelayJob(
	handler outboxRelayer, cmd commands.RelayOutboxCommand, schedule string, logger *slog.Logger,
) *OutboxRelayJob {
	if schedule == "" {
		schedule = DefaultRelaySchedule
	}
	return &OutboxRelayJob{
		handler:  handler,
		command:  cmd,
		schedule: schedule,
		// A run still in progress makes the next tick a no-op.
		cron:   cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.With("component", "outbox_relay_job"),
	}
}

func (j *OutboxRelayJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.run); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Outbox relay job started", "schedule", j.schedule)
	return nil
}

// Stop waits for a running relay to finish.
func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Outbox relay job stopped")
}

func (j *OutboxRelayJob) run() {
	ctx := context.Background()

	result, err := j.handler.Handle(ctx, j.command)
	if err != nil {
		j.logger.ErrorContext(ctx, "Outbox relay job failed", "error", err)
		return
	}
	if result.Fetched > 0 {
		j.logger.DebugContext(ctx, "Outbox batch relayed",
			"fetched", result.Fetched,
			"published", result.Published,
			"failed", result.Failed,
		)
	}
}

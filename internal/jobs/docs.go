// Package jobs provides scheduled background tasks for the dental lab service.
//
// Jobs are cron based (github.com/robfig/cron/v3, six field expressions with seconds)
// and call command handlers the same way the HTTP adapter does.
//
// # Available Jobs
//
// OutboxRelayJob publishes the order events written to the transactional outbox to the
// message broker. It runs every five seconds unless configured otherwise; a tick that
// arrives while the previous batch is still being published is skipped.
//
// # Usage
//
//	relay := jobs.NewOutboxRelayJob(relayHandler, relayCmd, cfg.OutboxRelaySchedule, logger)
//	jobManager := jobs.NewJobManager(relay)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Failed publishes are recorded on the outbox message and retried on later runs. Storage
// errors abort the batch, roll back its transaction and are logged.
package jobs

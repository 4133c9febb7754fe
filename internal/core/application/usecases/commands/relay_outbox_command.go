package commands

import (
	"errors"

	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

const (
	DefaultRelayBatchSize  = 100
	MaxRelayBatchSize      = 1000
	DefaultRelayMaxRetries = 10
	MaxRelayRetries        = 100
)

var ErrRelayOutboxCommandIsNotConstructed = errors.New(
	"RelayOutboxCommand must be created via NewRelayOutboxCommand constructor",
)

// RelayOutboxCommand publishes one batch of pending outbox messages. Messages that
// failed maxRetries times are left for an operator.
type RelayOutboxCommand struct { //nolint:recvcheck //using for validation
	batchSize  int
	maxRetries int

	guard guard.ConstructorGuard
}

// NewRelayOutboxCommand uses the defaults for zero arguments.
func NewRelayOutboxCommand(batchSize, maxRetries int) (RelayOutboxCommand, error) {
	if batchSize == 0 {
		batchSize = DefaultRelayBatchSize
	}
	if maxRetries == 0 {
		maxRetries = DefaultRelayMaxRetries
	}

	var problems []error
	if batchSize < 1 || batchSize > MaxRelayBatchSize {
		problems = append(problems, errs.NewValueIsOutOfRangeError("batch size", batchSize, 1, MaxRelayBatchSize))
	}
	if maxRetries < 1 || maxRetries > MaxRelayRetries {
		problems = append(problems, errs.NewValueIsOutOfRangeError("max retries", maxRetries, 1, MaxRelayRetries))
	}
	if err := errors.Join(problems...); err != nil {
		return RelayOutboxCommand{}, err
	}

	return RelayOutboxCommand{
		batchSize:  batchSize,
		maxRetries: maxRetries,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c RelayOutboxCommand) Validate() error {
	return c.guard.Validate(ErrRelayOutboxCommandIsNotConstructed)
}

func (c RelayOutboxCommand) BatchSize() int  { return c.batchSize }
func (c RelayOutboxCommand) MaxRetries() int { return c.maxRetries }

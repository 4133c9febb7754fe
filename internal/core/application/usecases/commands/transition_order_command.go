package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand asks to move an order to target under the caller's role table.
type TransitionOrderCommand struct { //nolint:recvcheck //using for validation
	principal kernel.Principal
	orderID   kernel.UUID
	target    order.Status

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand parses the target token; unknown tokens are a validation
// error rather than an illegal transition.
func NewTransitionOrderCommand(principal kernel.Principal, orderID kernel.UUID, target string) (TransitionOrderCommand, error) {
	status, statusErr := order.ParseStatus(target)
	if err := errors.Join(validatePrincipal(principal), orderID.Validate(), statusErr); err != nil {
		return TransitionOrderCommand{}, err
	}

	return TransitionOrderCommand{
		principal: principal,
		orderID:   orderID,
		target:    status,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

func (c TransitionOrderCommand) Principal() kernel.Principal { return c.principal }
func (c TransitionOrderCommand) OrderID() kernel.UUID        { return c.orderID }
func (c TransitionOrderCommand) Target() order.Status        { return c.target }

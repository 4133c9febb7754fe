package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

var ErrForceOrderStatusCommandIsNotConstructed = errors.New(
	"ForceOrderStatusCommand must be created via NewForceOrderStatusCommand constructor",
)

// ForceOrderStatusCommand is an administrative correction that sets any known status,
// valide_admin included, without consulting the transition tables.
type ForceOrderStatusCommand struct { //nolint:recvcheck //using for validation
	principal kernel.Principal
	orderID   kernel.UUID
	status    order.Status

	guard guard.ConstructorGuard
}

func NewForceOrderStatusCommand(principal kernel.Principal, orderID kernel.UUID, status string) (ForceOrderStatusCommand, error) {
	target, statusErr := order.ParseStatus(status)
	if err := errors.Join(validatePrincipal(principal), orderID.Validate(), statusErr); err != nil {
		return ForceOrderStatusCommand{}, err
	}
	if !principal.IsAdmin() {
		return ForceOrderStatusCommand{}, errs.NewRoleNotAllowedError(principal.Role.String(), "force order status")
	}

	return ForceOrderStatusCommand{
		principal: principal,
		orderID:   orderID,
		status:    target,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c ForceOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrForceOrderStatusCommandIsNotConstructed)
}

func (c ForceOrderStatusCommand) Principal() kernel.Principal { return c.principal }
func (c ForceOrderStatusCommand) OrderID() kernel.UUID        { return c.orderID }
func (c ForceOrderStatusCommand) Status() order.Status        { return c.status }

package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

var ErrDeleteOrderCommandIsNotConstructed = errors.New(
	"DeleteOrderCommand must be created via NewDeleteOrderCommand constructor",
)

// DeleteOrderCommand removes an order with its items and file metadata. Admin only.
type DeleteOrderCommand struct { //nolint:recvcheck //using for validation
	principal kernel.Principal
	orderID   kernel.UUID

	guard guard.ConstructorGuard
}

func NewDeleteOrderCommand(principal kernel.Principal, orderID kernel.UUID) (DeleteOrderCommand, error) {
	if err := errors.Join(validatePrincipal(principal), orderID.Validate()); err != nil {
		return DeleteOrderCommand{}, err
	}
	if !principal.IsAdmin() {
		return DeleteOrderCommand{}, errs.NewRoleNotAllowedError(principal.Role.String(), "delete orders")
	}

	return DeleteOrderCommand{
		principal: principal,
		orderID:   orderID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c DeleteOrderCommand) Validate() error {
	return c.guard.Validate(ErrDeleteOrderCommandIsNotConstructed)
}

func (c DeleteOrderCommand) Principal() kernel.Principal { return c.principal }
func (c DeleteOrderCommand) OrderID() kernel.UUID        { return c.orderID }

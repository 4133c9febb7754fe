package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

var ErrUpdateOrderCommandIsNotConstructed = errors.New(
	"UpdateOrderCommand must be created via NewUpdateOrderCommand constructor",
)

// UpdateOrderCommand combines the three kinds of order edits: a partial field patch, a
// destructive replacement of the work items and appended files. Any of them may be
// absent but not all.
type UpdateOrderCommand struct { //nolint:recvcheck //using for validation
	principal    kernel.Principal
	orderID      kernel.UUID
	patch        order.Patch
	replaceItems bool
	items        []order.ItemSpec
	files        []FileUpload

	guard guard.ConstructorGuard
}

// NewUpdateOrderCommand builds an update. A nil items slice leaves the items alone; a
// non-nil one, even empty, replaces them all.
func NewUpdateOrderCommand(
	principal kernel.Principal,
	orderID kernel.UUID,
	patch order.Patch,
	items []order.ItemSpec,
	files []FileUpload,
) (UpdateOrderCommand, error) {
	cmd := UpdateOrderCommand{
		patch:        patch,
		replaceItems: items != nil,
		items:        append([]order.ItemSpec{}, items...),
		files:        append([]FileUpload(nil), files...),
		guard:        guard.NewConstructorGuard(),
	}

	var emptyErr error
	if patch.IsEmpty() && items == nil && len(files) == 0 {
		emptyErr = errs.NewValueIsRequiredError("changes")
	}

	if err := errors.Join(
		validatePrincipal(principal),
		orderID.Validate(),
		validateUploads(files),
		emptyErr,
	); err != nil {
		return UpdateOrderCommand{}, err
	}

	cmd.principal = principal
	cmd.orderID = orderID
	return cmd, nil
}

func (c UpdateOrderCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderCommandIsNotConstructed)
}

func (c UpdateOrderCommand) Principal() kernel.Principal { return c.principal }
func (c UpdateOrderCommand) OrderID() kernel.UUID        { return c.orderID }
func (c UpdateOrderCommand) Patch() order.Patch          { return c.patch }
func (c UpdateOrderCommand) ReplacesItems() bool         { return c.replaceItems }

func (c UpdateOrderCommand) Items() []order.ItemSpec {
	return append([]order.ItemSpec(nil), c.items...)
}

func (c UpdateOrderCommand) Files() []FileUpload {
	return append([]FileUpload(nil), c.files...)
}

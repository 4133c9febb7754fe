package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/guard"
)

var ErrAddOrderFileCommandIsNotConstructed = errors.New(
	"AddOrderFileCommand must be created via NewAddOrderFileCommand constructor",
)

// AddOrderFileCommand attaches one file to an existing order.
type AddOrderFileCommand struct { //nolint:recvcheck //using for validation
	principal kernel.Principal
	orderID   kernel.UUID
	upload    FileUpload

	guard guard.ConstructorGuard
}

func NewAddOrderFileCommand(principal kernel.Principal, orderID kernel.UUID, upload FileUpload) (AddOrderFileCommand, error) {
	if err := errors.Join(
		validatePrincipal(principal),
		orderID.Validate(),
		upload.validate(),
	); err != nil {
		return AddOrderFileCommand{}, err
	}

	return AddOrderFileCommand{
		principal: principal,
		orderID:   orderID,
		upload:    upload,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c AddOrderFileCommand) Validate() error {
	return c.guard.Validate(ErrAddOrderFileCommandIsNotConstructed)
}

func (c AddOrderFileCommand) Principal() kernel.Principal { return c.principal }
func (c AddOrderFileCommand) OrderID() kernel.UUID        { return c.orderID }
func (c AddOrderFileCommand) Upload() FileUpload          { return c.upload }

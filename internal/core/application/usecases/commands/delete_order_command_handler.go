package commands

import (
	"context"
)

// DeleteOrderCommandHandler deletes orders. Blobs of the deleted files stay in the blob
// store.
type DeleteOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	locker     OrderLocker
}

func NewDeleteOrderCommandHandler(uowFactory OrderUoWFactory, locker OrderLocker) DeleteOrderCommandHandler {
	return DeleteOrderCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
	}
}

func (h *DeleteOrderCommandHandler) Handle(ctx context.Context, cmd DeleteOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	unlock := h.locker.Lock(cmd.OrderID().String())
	defer unlock()

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Delete(ctx, cmd.OrderID()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

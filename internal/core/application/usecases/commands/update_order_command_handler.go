package commands

import (
	"context"

	"dentallab/internal/core/domain/model/pricing"
	"dentallab/internal/core/ports"
	"dentallab/internal/pkg/errs"
)

// UpdateOrderCommandHandler applies an UpdateOrderCommand in a single transaction: either
// every part of the update is saved or none is.
type UpdateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	prices     pricing.Table
	locker     OrderLocker
	files      fileAttacher
}

func NewUpdateOrderCommandHandler(
	uowFactory OrderUoWFactory, prices pricing.Table, blobs ports.BlobStore, locker OrderLocker,
) UpdateOrderCommandHandler {
	return UpdateOrderCommandHandler{
		uowFactory: uowFactory,
		prices:     prices,
		locker:     locker,
		files: fileAttacher{
			uowFactory: uowFactory,
			blobs:      blobs,
			locker:     locker,
		},
	}
}

// Handle loads the order under its lock, applies the patch, replaces the items when
// asked, stores and registers the new files, then saves. Only admins may reassign the
// dentist.
func (h *UpdateOrderCommandHandler) Handle(ctx context.Context, cmd UpdateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	principal := cmd.Principal()
	patch := cmd.Patch()
	if patch.DentistID != nil && !principal.IsAdmin() {
		return errs.NewRoleNotAllowedError(principal.Role.String(), "reassign orders")
	}
	if len(cmd.Files()) > 0 {
		if err := requireUploader(principal); err != nil {
			return err
		}
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

	orderRepo := uow.OrderRepository()
	o, err := loadAccessible(ctx, orderRepo, principal, cmd.OrderID())
	if err != nil {
		return err
	}

	if err = o.ApplyPatch(patch); err != nil {
		return err
	}

	if cmd.ReplacesItems() {
		if err = o.ReplaceItems(h.prices, cmd.Items()); err != nil {
			return err
		}
	}

	for _, upload := range cmd.Files() {
		file, storeErr := h.files.store(ctx, principal, o.ID(), upload)
		if storeErr != nil {
			return storeErr
		}
		if err = o.RegisterFile(file); err != nil {
			return err
		}
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

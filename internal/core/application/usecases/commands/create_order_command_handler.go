package commands

import (
	"context"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/pricing"
	"dentallab/internal/core/ports"
	"dentallab/internal/pkg/errs"
)

// CreateOrderResult describes the created order. FilesErr joins the failures of
// individual initial files; the order exists even when it is set.
type CreateOrderResult struct {
	OrderID  kernel.UUID
	Total    kernel.Money
	FilesErr error
}

// CreateOrderCommandHandler creates orders on behalf of requesters.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, pricing.DefaultTable(), blobs, keylock.New())
//	result, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	if result.FilesErr != nil {
//	    log.Printf("order %s created, some files were not stored: %v", result.OrderID, result.FilesErr)
//	}
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	prices     pricing.Table
	files      fileAttacher
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory, prices pricing.Table, blobs ports.BlobStore, locker OrderLocker,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		prices:     prices,
		files: fileAttacher{
			uowFactory: uowFactory,
			blobs:      blobs,
			locker:     locker,
		},
	}
}

// Handle persists the order in one transaction, then stores and registers each initial
// file in its own. A file failure never undoes the order.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (CreateOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateOrderResult{}, err
	}

	principal := cmd.Principal()
	if principal.Role != kernel.RoleUser {
		return CreateOrderResult{}, errs.NewRoleNotAllowedError(principal.Role.String(), "create orders")
	}

	o, err := order.NewOrder(cmd.OrderID(), order.CreateParams{
		RequesterID: principal.UserID,
		DentistID:   cmd.DentistID(),
		ClientID:    cmd.ClientID(),
		Patient:     cmd.Patient(),
		Remark:      cmd.Remark(),
		Model:       cmd.Model(),
	}, h.prices, cmd.Items())
	if err != nil {
		return CreateOrderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return CreateOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateOrderResult{}, err
	}

	return CreateOrderResult{
		OrderID:  o.ID(),
		Total:    o.Total(),
		FilesErr: h.files.attachEach(ctx, principal, o.ID(), cmd.Files()),
	}, nil
}

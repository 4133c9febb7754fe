package commands

import (
	"context"
	"log/slog"

	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/metrics"
)

// ForceOrderStatusCommandHandler is the unguarded counterpart of
// TransitionOrderCommandHandler. Every use is logged at warn level.
type ForceOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
	machine    order.StateMachine
	locker     OrderLocker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewForceOrderStatusCommandHandler(
	uowFactory OrderUoWFactory, machine order.StateMachine, locker OrderLocker, m *metrics.Metrics, logger *slog.Logger,
) ForceOrderStatusCommandHandler {
	return ForceOrderStatusCommandHandler{
		uowFactory: uowFactory,
		machine:    machine,
		locker:     locker,
		metrics:    m,
		logger:     logger.With("component", "force_order_status"),
	}
}

func (h *ForceOrderStatusCommandHandler) Handle(ctx context.Context, cmd ForceOrderStatusCommand) error {
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

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return err
	}

	from := o.Status()
	if err = h.machine.ForceStatus(o, cmd.Status()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.logger.WarnContext(ctx, "order status forced",
		"order_id", cmd.OrderID().String(),
		"admin_id", cmd.Principal().UserID.String(),
		"from", from.String(),
		"to", cmd.Status().String(),
	)
	h.metrics.ObserveTransition(cmd.Principal().Role.String(), from.String(), cmd.Status().String())
	return nil
}

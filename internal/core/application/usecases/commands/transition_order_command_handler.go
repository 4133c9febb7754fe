package commands

import (
	"context"

	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/metrics"
)

// TransitionOrderCommandHandler advances orders through the role-scoped state machine.
//
// Example:
//
//	machine := order.NewStateMachine(order.DefaultTransitionTable())
//	handler := NewTransitionOrderCommandHandler(uowFactory, machine, keylock.New(), appMetrics)
//	cmd, _ := NewTransitionOrderCommand(principal, orderID, "chez_dentiste")
//	if err := handler.Handle(ctx, cmd); errors.Is(err, errs.ErrIllegalTransition) {
//	    // the order is unchanged
//	}
type TransitionOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	machine    order.StateMachine
	locker     OrderLocker
	metrics    *metrics.Metrics
}

func NewTransitionOrderCommandHandler(
	uowFactory OrderUoWFactory, machine order.StateMachine, locker OrderLocker, m *metrics.Metrics,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		machine:    machine,
		locker:     locker,
		metrics:    m,
	}
}

// Handle returns errs.IllegalTransitionError, without saving anything, when the caller's
// role may not move the order from its current status to the target.
func (h *TransitionOrderCommandHandler) Handle(ctx context.Context, cmd TransitionOrderCommand) error {
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
	o, err := loadAccessible(ctx, orderRepo, cmd.Principal(), cmd.OrderID())
	if err != nil {
		return err
	}

	from := o.Status()
	if err = h.machine.Transition(cmd.Principal().Role, o, cmd.Target()); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	h.metrics.ObserveTransition(cmd.Principal().Role.String(), from.String(), cmd.Target().String())
	return nil
}

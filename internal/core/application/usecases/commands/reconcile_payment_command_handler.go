package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/core/ports"
	"dentallab/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ReconcileStatus is what happened to one order of a confirmation.
type ReconcileStatus string

const (
	// ReconcileApplied: the order is paid and a success entry was written.
	ReconcileApplied ReconcileStatus = metrics.ReconciliationApplied
	// ReconcileRecordedFailure: a failed entry was written; the order is unchanged.
	ReconcileRecordedFailure ReconcileStatus = metrics.ReconciliationFailed
	// ReconcileDuplicate: the pair was already in the ledger; nothing changed.
	ReconcileDuplicate ReconcileStatus = metrics.ReconciliationDuplicate
	// ReconcileError: the order could not be reconciled, see Err.
	ReconcileError ReconcileStatus = metrics.ReconciliationError
)

type OrderReconciliation struct {
	OrderID kernel.UUID
	Status  ReconcileStatus
	Err     error
}

// ReconcileResult lists one entry per target order, in confirmation order.
type ReconcileResult struct {
	Orders []OrderReconciliation
}

// Err joins the per-order errors.
func (r ReconcileResult) Err() error {
	var problems []error
	for _, o := range r.Orders {
		if o.Err != nil {
			problems = append(problems, fmt.Errorf("order %s: %w", o.OrderID, o.Err))
		}
	}
	return errors.Join(problems...)
}

func (r ReconcileResult) Count(status ReconcileStatus) int {
	n := 0
	for _, o := range r.Orders {
		if o.Status == status {
			n++
		}
	}
	return n
}

// ReconcilePaymentCommandHandler applies payment confirmations idempotently. Every
// target order is handled in its own transaction under its own lock; the ledger entry
// for (order, transaction, status) is the idempotency key, so redelivered confirmations
// change nothing.
//
// Example:
//
//	confirmation, err := gateway.ParseConfirmation(body, c.Request().Header.Get("Stripe-Signature"))
//	if err != nil {
//	    return err
//	}
//	cmd, _ := NewReconcilePaymentCommand(confirmation)
//	result, err := handler.Handle(ctx, cmd)
type ReconcilePaymentCommandHandler struct {
	uowFactory PaymentUoWFactory
	locker     OrderLocker
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

func NewReconcilePaymentCommandHandler(
	uowFactory PaymentUoWFactory, locker OrderLocker, m *metrics.Metrics, logger *slog.Logger,
) ReconcilePaymentCommandHandler {
	return ReconcilePaymentCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		metrics:    m,
		logger:     logger.With("component", "payment_reconciler"),
		tracer:     otel.Tracer("dentallab/payment_reconciler"),
	}
}

// Handle reconciles every target order. Failures of individual orders, unknown ids
// included, are reported in the result and do not stop the others; the returned error
// is reserved for an invalid command.
func (h *ReconcilePaymentCommandHandler) Handle(ctx context.Context, cmd ReconcilePaymentCommand) (ReconcileResult, error) {
	if err := cmd.Validate(); err != nil {
		return ReconcileResult{}, err
	}

	confirmation := cmd.Confirmation()
	eventAmount, err := confirmation.Amount()
	if err != nil {
		return ReconcileResult{}, err
	}

	ctx, span := h.tracer.Start(ctx, "ReconcilePayment", trace.WithAttributes(
		attribute.String("payment.transaction_id", confirmation.TransactionID),
		attribute.String("payment.outcome", string(confirmation.Outcome)),
		attribute.Int("payment.order_count", len(confirmation.OrderIDs)),
	))
	defer span.End()

	result := ReconcileResult{Orders: make([]OrderReconciliation, 0, len(confirmation.OrderIDs))}
	recordedTotals := make([]kernel.Money, 0, len(confirmation.OrderIDs))
	for _, orderID := range confirmation.OrderIDs {
		status, recorded, reconcileErr := h.reconcileOrder(ctx, confirmation, eventAmount, orderID)
		result.Orders = append(result.Orders, OrderReconciliation{OrderID: orderID, Status: status, Err: reconcileErr})
		h.metrics.ObserveReconciliation(string(status))

		switch status {
		case ReconcileApplied, ReconcileRecordedFailure:
			recordedTotals = append(recordedTotals, recorded)
		case ReconcileDuplicate:
			h.logger.DebugContext(ctx, "duplicate payment confirmation",
				"order_id", orderID.String(), "transaction_id", confirmation.TransactionID)
		case ReconcileError:
			h.logger.ErrorContext(ctx, "payment reconciliation failed",
				"order_id", orderID.String(), "transaction_id", confirmation.TransactionID, "error", reconcileErr)
		}
	}

	if confirmation.IsBatch() && len(recordedTotals) == len(confirmation.OrderIDs) {
		if sum := kernel.SumMoney(recordedTotals...); !sum.IsEqual(eventAmount) {
			h.logger.WarnContext(ctx, "batch payment amount differs from order totals",
				"transaction_id", confirmation.TransactionID,
				"amount", eventAmount.String(),
				"orders_total", sum.String(),
				"currency", confirmation.Currency,
			)
		}
	}

	if err = result.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "some orders were not reconciled")
	}
	span.SetAttributes(
		attribute.Int("payment.applied", result.Count(ReconcileApplied)),
		attribute.Int("payment.duplicates", result.Count(ReconcileDuplicate)),
	)

	return result, nil
}

// reconcileOrder returns the amount written to the ledger alongside the status.
func (h *ReconcilePaymentCommandHandler) reconcileOrder(
	ctx context.Context, confirmation payment.Confirmation, eventAmount kernel.Money, orderID kernel.UUID,
) (ReconcileStatus, kernel.Money, error) {
	ctx, span := h.tracer.Start(ctx, "ReconcileOrder",
		trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	unlock := h.locker.Lock(orderID.String())
	defer unlock()

	status, amount, err := h.applyConfirmation(ctx, confirmation, eventAmount, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ReconcileError, kernel.Money{}, err
	}
	span.SetAttributes(attribute.String("reconcile.status", string(status)))
	return status, amount, nil
}

func (h *ReconcilePaymentCommandHandler) applyConfirmation(
	ctx context.Context, confirmation payment.Confirmation, eventAmount kernel.Money, orderID kernel.UUID,
) (ReconcileStatus, kernel.Money, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ReconcileError, kernel.Money{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ledgerRepo := uow.LedgerRepository()
	reconciled, err := h.alreadyRecorded(ctx, ledgerRepo, orderID, confirmation)
	if err != nil {
		return ReconcileError, kernel.Money{}, err
	}
	if reconciled {
		return ReconcileDuplicate, kernel.Money{}, nil
	}

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return ReconcileError, kernel.Money{}, err
	}

	amount := eventAmount
	if confirmation.IsBatch() {
		amount = o.Total()
	}

	status := ReconcileRecordedFailure
	if confirmation.Outcome == payment.OutcomeSucceeded {
		if err = o.ApplyPayment(confirmation.Method, confirmation.TransactionID); err != nil {
			return ReconcileError, kernel.Money{}, err
		}
		if err = orderRepo.Update(ctx, o); err != nil {
			return ReconcileError, kernel.Money{}, err
		}
		status = ReconcileApplied
	}

	entry, err := payment.NewLedgerEntry(
		orderID, confirmation.TransactionID, amount, confirmation.Currency, confirmation.Outcome.LedgerStatus())
	if err != nil {
		return ReconcileError, kernel.Money{}, err
	}

	if err = ledgerRepo.Add(ctx, entry); err != nil {
		if errors.Is(err, payment.ErrDuplicateEntry) {
			return ReconcileDuplicate, kernel.Money{}, nil
		}
		return ReconcileError, kernel.Money{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ReconcileError, kernel.Money{}, err
	}

	return status, amount, nil
}

// alreadyRecorded reports whether the confirmation changes nothing. A success entry
// settles the pair for good. A failed entry only absorbs replays of the failure: a
// declined card and the accepted retry share one transaction id.
func (h *ReconcilePaymentCommandHandler) alreadyRecorded(
	ctx context.Context, ledger ports.LedgerRepository, orderID kernel.UUID, confirmation payment.Confirmation,
) (bool, error) {
	paid, err := ledger.Exists(ctx, orderID, confirmation.TransactionID, payment.EntrySuccess)
	if err != nil || paid {
		return paid, err
	}
	if confirmation.Outcome != payment.OutcomeFailed {
		return false, nil
	}
	return ledger.Exists(ctx, orderID, confirmation.TransactionID, payment.EntryFailed)
}

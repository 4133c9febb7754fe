package commands_test

import (
	"context"
	"errors"
	"testing"

	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/metrics"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/keylock"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newReconcileCommand(
	t *testing.T, txID string, amountMinor int64, outcome payment.Outcome, ids ...kernel.UUID,
) commands.ReconcilePaymentCommand {
	t.Helper()
	cmd, err := commands.NewReconcilePaymentCommand(payment.Confirmation{
		TransactionID: txID,
		AmountMinor:   amountMinor,
		Currency:      "eur",
		OrderIDs:      ids,
		Outcome:       outcome,
		Method:        "stripe",
	})
	require.NoError(t, err)
	return cmd
}

func newReconcileHandler(factory commands.PaymentUoWFactory, m *metrics.Metrics) commands.ReconcilePaymentCommandHandler {
	return commands.NewReconcilePaymentCommandHandler(factory, keylock.New(), m, discardLogger())
}

func TestNewReconcilePaymentCommand_Invalid(t *testing.T) {
	_, err := commands.NewReconcilePaymentCommand(payment.Confirmation{Outcome: "pending"})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.ErrorIs(t, commands.ReconcilePaymentCommand{}.Validate(), commands.ErrReconcilePaymentCommandIsNotConstructed)
}

func TestReconcilePaymentCommandHandler_Handle_AppliesPayment(t *testing.T) {
	ctx := context.Background()
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd := newReconcileCommand(t, "pi_1", 600, payment.OutcomeSucceeded, stored.ID())

	ledger := new(MockLedgerRepository)
	repo := new(MockOrderRepository)
	uow := new(MockPaymentUoW)
	mock.InOrder(
		uow.On("Begin", mock.Anything).Return(nil).Once(),
		uow.On("LedgerRepository").Return(ledger).Once(),
		ledger.On("Exists", mock.Anything, stored.ID(), "pi_1", payment.EntrySuccess).Return(false, nil).Once(),
		uow.On("OrderRepository").Return(repo).Once(),
		repo.On("Get", mock.Anything, stored.ID()).Return(stored, nil).Once(),
		repo.On("Update", mock.Anything, stored).Return(nil).Once(),
		ledger.On("Add", mock.Anything, mock.MatchedBy(func(e payment.LedgerEntry) bool {
			return e.OrderID() == stored.ID() && e.TransactionID() == "pi_1" &&
				e.Amount().String() == "6.00" && e.Currency() == "EUR" && e.Status() == payment.EntrySuccess
		})).Return(nil).Once(),
		uow.On("Commit", mock.Anything).Return(nil).Once(),
		uow.On("Rollback", mock.Anything).Return(nil).Once(),
	)
	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(uow).Once()

	m := metrics.New(prometheus.NewRegistry())
	h := newReconcileHandler(factory, m)
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Equal(t, 1, result.Count(commands.ReconcileApplied))
	assert.Equal(t, order.PaymentPaid, stored.PaymentStatus())
	assert.Equal(t, "stripe", stored.PaymentMethod())
	assert.Equal(t, "pi_1", stored.TransactionRef())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Reconciliations.WithLabelValues("applied")), 0)
	uow.AssertExpectations(t)
	ledger.AssertExpectations(t)
}

func TestReconcilePaymentCommandHandler_Handle_DuplicateIsSkipped(t *testing.T) {
	ctx := context.Background()
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd := newReconcileCommand(t, "pi_1", 600, payment.OutcomeSucceeded, stored.ID())

	ledger := new(MockLedgerRepository)
	ledger.On("Exists", mock.Anything, stored.ID(), "pi_1", payment.EntrySuccess).Return(true, nil).Once()
	uow := new(MockPaymentUoW)
	uow.On("Begin", mock.Anything).Return(nil).Once()
	uow.On("LedgerRepository").Return(ledger).Once()
	uow.On("Rollback", mock.Anything).Return(nil).Once()
	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(uow).Once()

	m := metrics.New(prometheus.NewRegistry())
	h := newReconcileHandler(factory, m)
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(commands.ReconcileDuplicate))
	require.NoError(t, result.Err())
	assert.Equal(t, order.PaymentUnpaid, stored.PaymentStatus())
	assert.InDelta(t, 1, testutil.ToFloat64(m.Reconciliations.WithLabelValues("duplicate")), 0)
	uow.AssertNotCalled(t, "OrderRepository")
	uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestReconcilePaymentCommandHandler_Handle_DuplicateKeyRaceIsSkipped(t *testing.T) {
	ctx := context.Background()
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd := newReconcileCommand(t, "pi_1", 600, payment.OutcomeSucceeded, stored.ID())

	ledger := new(MockLedgerRepository)
	ledger.On("Exists", mock.Anything, stored.ID(), "pi_1", payment.EntrySuccess).Return(false, nil).Once()
	ledger.On("Add", mock.Anything, mock.Anything).Return(payment.ErrDuplicateEntry).Once()
	repo := new(MockOrderRepository)
	repo.On("Get", mock.Anything, stored.ID()).Return(stored, nil).Once()
	repo.On("Update", mock.Anything, stored).Return(nil).Once()
	uow := new(MockPaymentUoW)
	uow.On("Begin", mock.Anything).Return(nil).Once()
	uow.On("LedgerRepository").Return(ledger).Once()
	uow.On("OrderRepository").Return(repo).Once()
	uow.On("Rollback", mock.Anything).Return(nil).Once()
	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := newReconcileHandler(factory, nil)
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(commands.ReconcileDuplicate))
	uow.AssertNotCalled(t, "Commit", mock.Anything)
	uow.AssertCalled(t, "Rollback", mock.Anything)
}

func TestReconcilePaymentCommandHandler_Handle_FailedOutcomeKeepsOrderUnpaid(t *testing.T) {
	ctx := context.Background()
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd := newReconcileCommand(t, "pi_declined", 600, payment.OutcomeFailed, stored.ID())

	ledger := new(MockLedgerRepository)
	ledger.On("Exists", mock.Anything, stored.ID(), "pi_declined", payment.EntrySuccess).Return(false, nil).Once()
	ledger.On("Exists", mock.Anything, stored.ID(), "pi_declined", payment.EntryFailed).Return(false, nil).Once()
	ledger.On("Add", mock.Anything, mock.MatchedBy(func(e payment.LedgerEntry) bool {
		return e.Status() == payment.EntryFailed
	})).Return(nil).Once()
	repo := new(MockOrderRepository)
	repo.On("Get", mock.Anything, stored.ID()).Return(stored, nil).Once()
	uow := new(MockPaymentUoW)
	uow.On("Begin", mock.Anything).Return(nil).Once()
	uow.On("LedgerRepository").Return(ledger).Once()
	uow.On("OrderRepository").Return(repo).Once()
	uow.On("Commit", mock.Anything).Return(nil).Once()
	uow.On("Rollback", mock.Anything).Return(nil).Once()
	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := newReconcileHandler(factory, nil)
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(commands.ReconcileRecordedFailure))
	assert.Equal(t, order.PaymentUnpaid, stored.PaymentStatus())
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	ledger.AssertExpectations(t)
}

func TestReconcilePaymentCommandHandler_Handle_SuccessAfterDeclineOnSameTransaction(t *testing.T) {
	ctx := context.Background()
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd := newReconcileCommand(t, "pi_retry", 600, payment.OutcomeSucceeded, stored.ID())

	ledger := new(MockLedgerRepository)
	ledger.On("Exists", mock.Anything, stored.ID(), "pi_retry", payment.EntrySuccess).Return(false, nil).Once()
	ledger.On("Add", mock.Anything, mock.MatchedBy(func(e payment.LedgerEntry) bool {
		return e.Status() == payment.EntrySuccess && e.TransactionID() == "pi_retry"
	})).Return(nil).Once()
	repo := new(MockOrderRepository)
	repo.On("Get", mock.Anything, stored.ID()).Return(stored, nil).Once()
	repo.On("Update", mock.Anything, stored).Return(nil).Once()
	uow := new(MockPaymentUoW)
	uow.On("Begin", mock.Anything).Return(nil).Once()
	uow.On("LedgerRepository").Return(ledger).Once()
	uow.On("OrderRepository").Return(repo).Once()
	uow.On("Commit", mock.Anything).Return(nil).Once()
	uow.On("Rollback", mock.Anything).Return(nil).Once()
	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := newReconcileHandler(factory, nil)
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(commands.ReconcileApplied))
	assert.Equal(t, order.PaymentPaid, stored.PaymentStatus())
	ledger.AssertNotCalled(t, "Exists", mock.Anything, stored.ID(), "pi_retry", payment.EntryFailed)
	ledger.AssertExpectations(t)
}

func TestReconcilePaymentCommandHandler_Handle_FailureAfterSuccessIsDuplicate(t *testing.T) {
	ctx := context.Background()
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd := newReconcileCommand(t, "pi_1", 600, payment.OutcomeFailed, stored.ID())

	ledger := new(MockLedgerRepository)
	ledger.On("Exists", mock.Anything, stored.ID(), "pi_1", payment.EntrySuccess).Return(true, nil).Once()
	uow := new(MockPaymentUoW)
	uow.On("Begin", mock.Anything).Return(nil).Once()
	uow.On("LedgerRepository").Return(ledger).Once()
	uow.On("Rollback", mock.Anything).Return(nil).Once()
	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := newReconcileHandler(factory, nil)
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Count(commands.ReconcileDuplicate))
	uow.AssertNotCalled(t, "OrderRepository")
}

func TestReconcilePaymentCommandHandler_Handle_BatchIsolatesUnknownOrder(t *testing.T) {
	ctx := context.Background()
	known := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID(),
		order.ItemSpec{Category: "Conjointe", Subtype: "Inlay-core"})
	unknownID := kernel.NewUUID()
	cmd := newReconcileCommand(t, "pi_batch", 1080, payment.OutcomeSucceeded, unknownID, known.ID())

	missingLedger := new(MockLedgerRepository)
	missingLedger.On("Exists", mock.Anything, unknownID, "pi_batch", payment.EntrySuccess).Return(false, nil).Once()
	missingRepo := new(MockOrderRepository)
	missingRepo.On("Get", mock.Anything, unknownID).Return(nil, errs.NewObjectNotFoundError("order", unknownID)).Once()
	missingUoW := new(MockPaymentUoW)
	missingUoW.On("Begin", mock.Anything).Return(nil).Once()
	missingUoW.On("LedgerRepository").Return(missingLedger).Once()
	missingUoW.On("OrderRepository").Return(missingRepo).Once()
	missingUoW.On("Rollback", mock.Anything).Return(nil).Once()

	knownLedger := new(MockLedgerRepository)
	knownLedger.On("Exists", mock.Anything, known.ID(), "pi_batch", payment.EntrySuccess).Return(false, nil).Once()
	knownLedger.On("Add", mock.Anything, mock.MatchedBy(func(e payment.LedgerEntry) bool {
		// batch entries record the order's own total, not the transaction amount
		return e.Amount().String() == "4.80"
	})).Return(nil).Once()
	knownRepo := new(MockOrderRepository)
	knownRepo.On("Get", mock.Anything, known.ID()).Return(known, nil).Once()
	knownRepo.On("Update", mock.Anything, known).Return(nil).Once()
	knownUoW := new(MockPaymentUoW)
	knownUoW.On("Begin", mock.Anything).Return(nil).Once()
	knownUoW.On("LedgerRepository").Return(knownLedger).Once()
	knownUoW.On("OrderRepository").Return(knownRepo).Once()
	knownUoW.On("Commit", mock.Anything).Return(nil).Once()
	knownUoW.On("Rollback", mock.Anything).Return(nil).Once()

	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(missingUoW).Once()
	factory.On("Create").Return(knownUoW).Once()

	h := newReconcileHandler(factory, nil)
	result, err := h.Handle(ctx, cmd)
	require.NoError(t, err)

	require.Len(t, result.Orders, 2)
	assert.Equal(t, commands.ReconcileError, result.Orders[0].Status)
	require.ErrorIs(t, result.Orders[0].Err, errs.ErrObjectNotFound)
	assert.Equal(t, commands.ReconcileApplied, result.Orders[1].Status)
	require.ErrorIs(t, result.Err(), errs.ErrObjectNotFound)
	assert.Equal(t, order.PaymentPaid, known.PaymentStatus())
	knownLedger.AssertExpectations(t)
}

func TestReconcilePaymentCommandHandler_Handle_BeginError(t *testing.T) {
	stored := newStoredOrder(t, kernel.NewUUID(), kernel.NewUUID())
	cmd := newReconcileCommand(t, "pi_1", 600, payment.OutcomeSucceeded, stored.ID())

	uow := new(MockPaymentUoW)
	uow.On("Begin", mock.Anything).Return(errors.New("begin error")).Once()
	factory := new(MockPaymentUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := newReconcileHandler(factory, nil)
	result, err := h.Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.EqualError(t, result.Orders[0].Err, "begin error")
}

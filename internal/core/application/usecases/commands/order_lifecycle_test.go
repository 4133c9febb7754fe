package commands_test

import (
	"context"
	"sync"
	"testing"

	"dentallab/internal/adapters/out/postgres"
	"dentallab/internal/adapters/out/postgres/outboxrepo"
	"dentallab/internal/adapters/out/postgres/sqlitetest"
	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/core/domain/model/pricing"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/keylock"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type orderUoWFactory struct{ factory *postgres.GormUnitOfWorkFactory }

func (f orderUoWFactory) Create() commands.OrderUoW { return f.factory.Create() }

type paymentUoWFactory struct{ factory *postgres.GormUnitOfWorkFactory }

func (f paymentUoWFactory) Create() commands.PaymentUoW { return f.factory.Create() }

// OrderLifecycleTestSuite drives the command handlers against a real unit of work on an
// in-memory database.
type OrderLifecycleTestSuite struct {
	suite.Suite
	db        *gorm.DB
	uow       *postgres.GormUnitOfWorkFactory
	update    commands.UpdateOrderCommandHandler
	create    commands.CreateOrderCommandHandler
	transit   commands.TransitionOrderCommandHandler
	reconcile commands.ReconcilePaymentCommandHandler
}

func TestOrderLifecycleTestSuite(t *testing.T) {
	suite.Run(t, new(OrderLifecycleTestSuite))
}

func (s *OrderLifecycleTestSuite) SetupTest() {
	s.db = sqlitetest.Open(s.T())
	s.uow = postgres.NewGormUnitOfWorkFactory(s.db)
	locker := keylock.New()

	s.create = commands.NewCreateOrderCommandHandler(
		orderUoWFactory{s.uow}, pricing.DefaultTable(), new(MockBlobStore), locker)
	s.update = commands.NewUpdateOrderCommandHandler(
		orderUoWFactory{s.uow}, pricing.DefaultTable(), new(MockBlobStore), locker)
	s.transit = commands.NewTransitionOrderCommandHandler(
		orderUoWFactory{s.uow}, order.NewStateMachine(order.DefaultTransitionTable()), locker, nil)
	s.reconcile = commands.NewReconcilePaymentCommandHandler(
		paymentUoWFactory{s.uow}, locker, nil, discardLogger())
}

func (s *OrderLifecycleTestSuite) principal(role kernel.Role) kernel.Principal {
	p, err := kernel.NewPrincipal(kernel.NewUUID(), role)
	s.Require().NoError(err)
	return p
}

func (s *OrderLifecycleTestSuite) load(id kernel.UUID) *order.Order {
	o, err := s.uow.Create().OrderRepository().Get(context.Background(), id)
	s.Require().NoError(err)
	return o
}

func (s *OrderLifecycleTestSuite) ledger(id kernel.UUID) []payment.LedgerEntry {
	entries, err := s.uow.Create().LedgerRepository().ListByOrder(context.Background(), id)
	s.Require().NoError(err)
	return entries
}

func (s *OrderLifecycleTestSuite) TestEndToEnd() {
	ctx := context.Background()
	user := s.principal(kernel.RoleUser)
	admin := s.principal(kernel.RoleAdmin)
	dentistID := kernel.NewUUID()

	createCmd, err := commands.NewCreateOrderCommand(user, kernel.NewUUID(), commands.OrderDetails{
		DentistID:   dentistID,
		PatientName: "Jane Doe",
		PatientSex:  "F",
		PatientAge:  "42",
	}, []order.ItemSpec{
		{Category: "Conjointe", Subtype: "Inlay-core", Upper: []int{14}},
		{Category: "Conjointe", Subtype: "Couronne", Upper: []int{14}},
	}, nil)
	s.Require().NoError(err)

	created, err := s.create.Handle(ctx, createCmd)
	s.Require().NoError(err)
	s.Require().NoError(created.FilesErr)
	s.Equal("10.80", created.Total.String())
	s.Equal("10.80", s.load(created.OrderID).Total().String())

	adminMove, err := commands.NewTransitionOrderCommand(admin, created.OrderID, "chez_dentiste")
	s.Require().NoError(err)
	s.Require().NoError(s.transit.Handle(ctx, adminMove))
	s.Equal(order.StatusWithDentist, s.load(created.OrderID).Status())

	userMove, err := commands.NewTransitionOrderCommand(user, created.OrderID, "chez_dentiste")
	s.Require().NoError(err)
	s.Require().ErrorIs(s.transit.Handle(ctx, userMove), errs.ErrIllegalTransition)
	s.Equal(order.StatusWithDentist, s.load(created.OrderID).Status())

	confirmation, err := payment.NewConfirmation("pi_3N", 1080, "eur",
		[]kernel.UUID{created.OrderID}, payment.OutcomeSucceeded, "stripe")
	s.Require().NoError(err)
	reconcileCmd, err := commands.NewReconcilePaymentCommand(confirmation)
	s.Require().NoError(err)

	first, err := s.reconcile.Handle(ctx, reconcileCmd)
	s.Require().NoError(err)
	s.Equal(1, first.Count(commands.ReconcileApplied))
	paid := s.load(created.OrderID)
	s.Equal(order.PaymentPaid, paid.PaymentStatus())
	s.Equal("pi_3N", paid.TransactionRef())
	s.Require().Len(s.ledger(created.OrderID), 1)
	s.Equal("10.80", s.ledger(created.OrderID)[0].Amount().String())

	replay, err := s.reconcile.Handle(ctx, reconcileCmd)
	s.Require().NoError(err)
	s.Equal(1, replay.Count(commands.ReconcileDuplicate))
	s.Len(s.ledger(created.OrderID), 1)
	s.Equal(order.PaymentPaid, s.load(created.OrderID).PaymentStatus())

	var types []string
	s.Require().NoError(s.db.Model(&outboxrepo.MessageDTO{}).Order("id").Pluck("event_type", &types).Error)
	s.Equal([]string{
		string(order.EventCreated),
		string(order.EventStatusChanged),
		string(order.EventPaymentApplied),
	}, types)
}

func (s *OrderLifecycleTestSuite) TestFailedPaymentThenSuccess() {
	ctx := context.Background()
	user := s.principal(kernel.RoleUser)

	createCmd, err := commands.NewCreateOrderCommand(user, kernel.NewUUID(), commands.OrderDetails{
		DentistID:   kernel.NewUUID(),
		PatientName: "John Roe",
		PatientSex:  "M",
		PatientAge:  "7",
	}, []order.ItemSpec{{Category: "Amovible", Subtype: "Sellite"}}, nil)
	s.Require().NoError(err)
	created, err := s.create.Handle(ctx, createCmd)
	s.Require().NoError(err)

	declined, err := commands.NewReconcilePaymentCommand(payment.Confirmation{
		TransactionID: "pi_declined", AmountMinor: 1200, Currency: "EUR",
		OrderIDs: []kernel.UUID{created.OrderID}, Outcome: payment.OutcomeFailed, Method: "stripe",
	})
	s.Require().NoError(err)
	result, err := s.reconcile.Handle(ctx, declined)
	s.Require().NoError(err)
	s.Equal(1, result.Count(commands.ReconcileRecordedFailure))
	s.Equal(order.PaymentUnpaid, s.load(created.OrderID).PaymentStatus())

	accepted, err := commands.NewReconcilePaymentCommand(payment.Confirmation{
		TransactionID: "pi_accepted", AmountMinor: 1200, Currency: "EUR",
		OrderIDs: []kernel.UUID{created.OrderID}, Outcome: payment.OutcomeSucceeded, Method: "stripe",
	})
	s.Require().NoError(err)
	result, err = s.reconcile.Handle(ctx, accepted)
	s.Require().NoError(err)
	s.Equal(1, result.Count(commands.ReconcileApplied))

	entries := s.ledger(created.OrderID)
	s.Require().Len(entries, 2)
	s.Equal(payment.EntryFailed, entries[0].Status())
	s.Equal(payment.EntrySuccess, entries[1].Status())
	s.Equal(order.PaymentPaid, s.load(created.OrderID).PaymentStatus())
}

func (s *OrderLifecycleTestSuite) TestDeclineThenSuccessOnOneTransaction() {
	ctx := context.Background()
	user := s.principal(kernel.RoleUser)

	createCmd, err := commands.NewCreateOrderCommand(user, kernel.NewUUID(), commands.OrderDetails{
		DentistID:   kernel.NewUUID(),
		PatientName: "Mary Poe",
		PatientSex:  "F",
		PatientAge:  "52",
	}, []order.ItemSpec{{Category: "Amovible", Subtype: "Sellite"}}, nil)
	s.Require().NoError(err)
	created, err := s.create.Handle(ctx, createCmd)
	s.Require().NoError(err)

	confirm := func(outcome payment.Outcome) commands.ReconcileResult {
		cmd, err := commands.NewReconcilePaymentCommand(payment.Confirmation{
			TransactionID: "pi_same", AmountMinor: 1200, Currency: "EUR",
			OrderIDs: []kernel.UUID{created.OrderID}, Outcome: outcome, Method: "stripe",
		})
		s.Require().NoError(err)
		result, err := s.reconcile.Handle(ctx, cmd)
		s.Require().NoError(err)
		return result
	}

	s.Equal(1, confirm(payment.OutcomeFailed).Count(commands.ReconcileRecordedFailure))
	s.Equal(1, confirm(payment.OutcomeFailed).Count(commands.ReconcileDuplicate))
	s.Equal(order.PaymentUnpaid, s.load(created.OrderID).PaymentStatus())

	s.Equal(1, confirm(payment.OutcomeSucceeded).Count(commands.ReconcileApplied))
	paid := s.load(created.OrderID)
	s.Equal(order.PaymentPaid, paid.PaymentStatus())
	s.Equal("pi_same", paid.TransactionRef())

	s.Equal(1, confirm(payment.OutcomeSucceeded).Count(commands.ReconcileDuplicate))
	s.Equal(1, confirm(payment.OutcomeFailed).Count(commands.ReconcileDuplicate))
	s.Equal(order.PaymentPaid, s.load(created.OrderID).PaymentStatus())

	entries := s.ledger(created.OrderID)
	s.Require().Len(entries, 2)
	s.Equal(payment.EntryFailed, entries[0].Status())
	s.Equal(payment.EntrySuccess, entries[1].Status())
}

func (s *OrderLifecycleTestSuite) TestConcurrentEditsOnOneOrder() {
	ctx := context.Background()
	user := s.principal(kernel.RoleUser)
	admin := s.principal(kernel.RoleAdmin)

	createCmd, err := commands.NewCreateOrderCommand(user, kernel.NewUUID(), commands.OrderDetails{
		DentistID:   kernel.NewUUID(),
		PatientName: "Ann Loe",
		PatientSex:  "F",
		PatientAge:  "30",
	}, []order.ItemSpec{{Category: "Conjointe", Subtype: "Couronne"}}, nil)
	s.Require().NoError(err)
	created, err := s.create.Handle(ctx, createCmd)
	s.Require().NoError(err)

	itemSets := [][]order.ItemSpec{
		{{Category: "Conjointe", Subtype: "Inlay-core"}},
		{{Category: "Amovible", Subtype: "Sellite"}, {Category: "Amovible", Subtype: "Resine"}},
		{{Category: "Implant", Subtype: "Pilier"}, {Category: "Conjointe", Subtype: "Facette"}, {Category: "Autre", Subtype: "Inconnu"}},
		{},
	}
	const rounds = 5
	targets := []string{"chez_dentiste", "envoye_admin", "terminee", "terminee", "terminee"}

	var wg sync.WaitGroup
	errCh := make(chan error, len(itemSets)*rounds+len(targets))
	for _, items := range itemSets {
		wg.Add(1)
		go func(items []order.ItemSpec) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				cmd, cmdErr := commands.NewUpdateOrderCommand(admin, created.OrderID, order.Patch{}, items, nil)
				if cmdErr != nil {
					errCh <- cmdErr
					return
				}
				errCh <- s.update.Handle(ctx, cmd)
			}
		}(items)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, target := range targets {
			cmd, cmdErr := commands.NewTransitionOrderCommand(admin, created.OrderID, target)
			if cmdErr != nil {
				errCh <- cmdErr
				return
			}
			errCh <- s.transit.Handle(ctx, cmd)
		}
	}()
	wg.Wait()
	close(errCh)

	for err := range errCh {
		s.Require().NoError(err)
	}

	final := s.load(created.OrderID)
	s.Equal(order.StatusCompleted, final.Status())
	s.Equal(int64(1+len(itemSets)*rounds+len(targets)), final.Version())

	prices := make([]kernel.Money, 0, len(final.Items()))
	for _, item := range final.Items() {
		prices = append(prices, item.UnitPrice())
	}
	s.True(kernel.SumMoney(prices...).IsEqual(final.Total()),
		"total %s does not match items", final.Total())

	matched := false
	for _, items := range itemSets {
		matched = matched || len(items) == len(final.Items())
	}
	s.True(matched)
}

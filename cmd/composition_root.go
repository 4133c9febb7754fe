package cmd

import (
	"log/slog"

	"dentallab/internal/adapters/out/postgres"
	"dentallab/internal/core/application/usecases/commands"
	"dentallab/internal/core/application/usecases/queries"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/pricing"
	"dentallab/internal/core/ports"
	"dentallab/internal/metrics"
	"dentallab/internal/pkg/keylock"

	"gorm.io/gorm"
)

// CompositionRoot builds the command and query handlers. All order commands share one
// locker so every load-modify-store of an order is serialized in the process.
type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	readers    postgres.Readers

	prices      pricing.Table
	transitions order.TransitionTable
	machine     order.StateMachine
	locker      *keylock.Locker

	gateway   ports.PaymentGateway
	blobs     ports.BlobStore
	publisher ports.EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Adapters are the outbound adapters built by main.
type Adapters struct {
	Gateway   ports.PaymentGateway
	Blobs     ports.BlobStore
	Publisher ports.EventPublisher
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, adapters Adapters, m *metrics.Metrics, logger *slog.Logger) CompositionRoot {
	transitions := order.DefaultTransitionTable()
	return CompositionRoot{
		cfg:         cfg,
		gormDB:      gormDB,
		uowFactory:  postgres.NewGormUnitOfWorkFactory(gormDB),
		readers:     postgres.NewReaders(gormDB),
		prices:      pricing.DefaultTable(),
		transitions: transitions,
		machine:     order.NewStateMachine(transitions),
		locker:      keylock.New(),
		gateway:     adapters.Gateway,
		blobs:       adapters.Blobs,
		publisher:   adapters.Publisher,
		metrics:     m,
		logger:      logger,
	}
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.prices, c.blobs, c.locker)
}

func (c *CompositionRoot) CreateUpdateOrderCommandHandler() commands.UpdateOrderCommandHandler {
	return commands.NewUpdateOrderCommandHandler(c.orderUoWFactory(), c.prices, c.blobs, c.locker)
}

func (c *CompositionRoot) CreateTransitionOrderCommandHandler() commands.TransitionOrderCommandHandler {
	return commands.NewTransitionOrderCommandHandler(c.orderUoWFactory(), c.machine, c.locker, c.metrics)
}

func (c *CompositionRoot) CreateForceOrderStatusCommandHandler() commands.ForceOrderStatusCommandHandler {
	return commands.NewForceOrderStatusCommandHandler(c.orderUoWFactory(), c.machine, c.locker, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateAddOrderFileCommandHandler() commands.AddOrderFileCommandHandler {
	return commands.NewAddOrderFileCommandHandler(c.orderUoWFactory(), c.blobs, c.locker)
}

func (c *CompositionRoot) CreateDeleteOrderCommandHandler() commands.DeleteOrderCommandHandler {
	return commands.NewDeleteOrderCommandHandler(c.orderUoWFactory(), c.locker)
}

func (c *CompositionRoot) CreateCreateCheckoutCommandHandler() commands.CreateCheckoutCommandHandler {
	return commands.NewCreateCheckoutCommandHandler(c.orderUoWFactory(), c.gateway, commands.CheckoutSettings{
		Currency:   c.cfg.PaymentCurrency,
		SuccessURL: c.cfg.PaymentSuccessURL,
		CancelURL:  c.cfg.PaymentCancelURL,
	})
}

func (c *CompositionRoot) CreateReconcilePaymentCommandHandler() commands.ReconcilePaymentCommandHandler {
	var f commands.PaymentUoWFactory = FuncPaymentUoWFactory(func() commands.PaymentUoW {
		return c.uowFactory.Create()
	})
	return commands.NewReconcilePaymentCommandHandler(f, c.locker, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateRelayOutboxCommandHandler() commands.RelayOutboxCommandHandler {
	var f commands.OutboxUoWFactory = FuncOutboxUoWFactory(func() commands.OutboxUoW {
		return c.uowFactory.Create()
	})
	return commands.NewRelayOutboxCommandHandler(f, c.publisher, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.readers.Orders, c.transitions)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateListLedgerQueryHandler() queries.ListLedgerQueryHandler {
	return queries.NewListLedgerQueryHandler(c.readers.Orders, c.readers.Ledger)
}

func (c *CompositionRoot) CreateGetInvoiceQueryHandler() queries.GetInvoiceQueryHandler {
	return queries.NewGetInvoiceQueryHandler(c.readers.Orders, c.cfg.PaymentCurrency)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type FuncPaymentUoWFactory func() commands.PaymentUoW

func (f FuncPaymentUoWFactory) Create() commands.PaymentUoW {
	return f()
}

type FuncOutboxUoWFactory func() commands.OutboxUoW

func (f FuncOutboxUoWFactory) Create() commands.OutboxUoW {
	return f()
}

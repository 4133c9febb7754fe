// Package postgres provides the GORM-based implementation of the Unit of Work pattern.
// The Unit of Work maintains the orders saved during a business transaction and, on
// commit, writes their domain events to the transactional outbox inside the same
// database transaction.
//
// Usage:
//
//	factory := NewGormUnitOfWorkFactory(db)
//	uow := factory.Create()
//
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	if err := uow.OrderRepository().Update(ctx, o); err != nil {
//	    return err
//	}
//	if err := uow.LedgerRepository().Add(ctx, entry); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx)
//
// Each UnitOfWork instance holds one transaction; goroutines must not share one.
package postgres

import (
	"context"
	"fmt"

	"dentallab/internal/adapters/out/postgres/ledgerrepo"
	"dentallab/internal/adapters/out/postgres/orderrepo"
	"dentallab/internal/adapters/out/postgres/outboxrepo"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/ports"

	"gorm.io/gorm"
)

// GormUnitOfWorkFactory creates UnitOfWork instances sharing one *gorm.DB.
type GormUnitOfWorkFactory struct {
	db *gorm.DB
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
//
// Example:
//
//	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
//	if err != nil {
//	    log.Fatal("failed to connect database")
//	}
//	factory := NewGormUnitOfWorkFactory(db)
func NewGormUnitOfWorkFactory(db *gorm.DB) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{db: db}
}

// Create produces a new UnitOfWork with its own transaction state and tracking.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		trackedAggregates: make([]*order.Order, 0),
	}
}

// GormUnitOfWork coordinates a database transaction across the order, ledger and
// outbox repositories.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	trackedAggregates []*order.Order
}

// Begin initiates a new database transaction. Calling it twice is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit writes the events of every tracked order to the outbox and commits. The
// orders' events are cleared only once the commit succeeded.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	outbox := outboxrepo.NewGormOutboxRepository(uow.tx)
	for _, aggregate := range uow.trackedAggregates {
		if err := outbox.Append(ctx, aggregate.Events()); err != nil {
			_ = uow.tx.Rollback()
			uow.tx = nil
			uow.trackedAggregates = uow.trackedAggregates[:0]
			return fmt.Errorf("write outbox for order %s: %w", aggregate.ID(), err)
		}
	}

	err := uow.tx.Commit().Error
	uow.tx = nil
	if err != nil {
		return err
	}

	for _, aggregate := range uow.trackedAggregates {
		aggregate.ClearEvents()
	}
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return nil
}

// Rollback discards all changes made within the current transaction.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = uow.trackedAggregates[:0]
	return err
}

// OrderRepository returns an order repository bound to the current transaction, or to
// the main connection when none is active.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	return orderrepo.NewGormOrderRepository(uow.conn(), uow)
}

func (uow *GormUnitOfWork) LedgerRepository() ports.LedgerRepository {
	return ledgerrepo.NewGormLedgerRepository(uow.conn())
}

func (uow *GormUnitOfWork) OutboxRepository() ports.OutboxRepository {
	return outboxrepo.NewGormOutboxRepository(uow.conn())
}

// TrackAggregate is called by the order repository after each successful write. An
// order saved twice is tracked once.
func (uow *GormUnitOfWork) TrackAggregate(aggregate *order.Order) {
	for _, tracked := range uow.trackedAggregates {
		if tracked == aggregate {
			return
		}
	}
	uow.trackedAggregates = append(uow.trackedAggregates, aggregate)
}

func (uow *GormUnitOfWork) conn() *gorm.DB {
	if uow.tx != nil {
		return uow.tx
	}
	return uow.db
}

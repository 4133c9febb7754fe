package postgres

import (
	"dentallab/internal/adapters/out/postgres/ledgerrepo"
	"dentallab/internal/adapters/out/postgres/orderrepo"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/ports"

	"gorm.io/gorm"
)

// Readers bundles repositories bound to the main connection for the query side. Writes
// must go through a UnitOfWork so their events reach the outbox.
type Readers struct {
	Orders ports.OrderRepository
	Ledger ports.LedgerRepository
}

func NewReaders(db *gorm.DB) Readers {
	return Readers{
		Orders: orderrepo.NewGormOrderRepository(db, untracked{}),
		Ledger: ledgerrepo.NewGormLedgerRepository(db),
	}
}

type untracked struct{}

func (untracked) TrackAggregate(*order.Order) {}

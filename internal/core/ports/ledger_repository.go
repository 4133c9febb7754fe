package ports

import (
	"context"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"
)

// LedgerRepository stores payment ledger entries. (order id, transaction id, status) is
// unique, so one transaction may hold a failed and a later success entry.
type LedgerRepository interface {
	// Exists reports whether an entry with status is recorded for the pair.
	Exists(ctx context.Context, orderID kernel.UUID, transactionID string, status payment.EntryStatus) (bool, error)

	// Add appends entry. It returns payment.ErrDuplicateEntry when an entry with the same
	// order, transaction and status exists.
	Add(ctx context.Context, entry payment.LedgerEntry) error

	// ListByOrder returns an order's entries, oldest first.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]payment.LedgerEntry, error)
}

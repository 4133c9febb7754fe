package queries

import (
	"errors"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/pkg/guard"
)

var ErrListLedgerQueryIsNotConstructed = errors.New(
	"ListLedgerQuery must be created via NewListLedgerQuery constructor",
)

// ListLedgerQuery lists the payment attempts recorded for one order.
type ListLedgerQuery struct {
	principal kernel.Principal
	orderID   kernel.UUID

	guard guard.ConstructorGuard
}

func NewListLedgerQuery(principal kernel.Principal, orderID kernel.UUID) (ListLedgerQuery, error) {
	if err := errors.Join(validatePrincipal(principal), orderID.Validate()); err != nil {
		return ListLedgerQuery{}, err
	}

	return ListLedgerQuery{
		principal: principal,
		orderID:   orderID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q ListLedgerQuery) Validate() error {
	return q.guard.Validate(ErrListLedgerQueryIsNotConstructed)
}

func (q ListLedgerQuery) Principal() kernel.Principal { return q.principal }
func (q ListLedgerQuery) OrderID() kernel.UUID        { return q.orderID }

type ListLedgerQueryResponse struct {
	ID            kernel.UUID
	TransactionID string
	Amount        kernel.Money
	Currency      string
	Status        payment.EntryStatus
	CreatedAt     time.Time
}

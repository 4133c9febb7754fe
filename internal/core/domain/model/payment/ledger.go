package payment

import (
	"errors"
	"fmt"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

var (
	ErrLedgerEntryIsNotConstructed = errors.New("LedgerEntry must be created via NewLedgerEntry")

	// ErrDuplicateEntry means the (order, transaction) pair is already in the ledger.
	ErrDuplicateEntry = errors.New("ledger entry already exists")
)

// EntryStatus is the outcome recorded for a (order, transaction) pair.
type EntryStatus string

const (
	EntrySuccess EntryStatus = "success"
	EntryFailed  EntryStatus = "failed"
)

func (s EntryStatus) Validate() error {
	switch s {
	case EntrySuccess, EntryFailed:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("ledger status", fmt.Errorf("%q is not a ledger status", string(s)))
	}
}

func (s EntryStatus) String() string {
	return string(s)
}

// LedgerEntry is one immutable payment record. At most one entry exists per order and
// external transaction; its presence is what makes reconciliation idempotent.
type LedgerEntry struct {
	id            kernel.UUID
	orderID       kernel.UUID
	transactionID string
	amount        kernel.Money
	currency      string
	status        EntryStatus
	createdAt     time.Time

	guard guard.ConstructorGuard
}

func NewLedgerEntry(
	orderID kernel.UUID, transactionID string, amount kernel.Money, currency string, status EntryStatus,
) (LedgerEntry, error) {
	return RestoreLedgerEntry(kernel.NewUUID(), orderID, transactionID, amount, currency, status, time.Now())
}

func RestoreLedgerEntry(
	id, orderID kernel.UUID,
	transactionID string,
	amount kernel.Money,
	currency string,
	status EntryStatus,
	createdAt time.Time,
) (LedgerEntry, error) {
	var txErr error
	if transactionID == "" {
		txErr = errs.NewValueIsRequiredError("transaction id")
	}
	normalized, currencyErr := NormalizeCurrency(currency)

	if err := errors.Join(id.Validate(), orderID.Validate(), txErr, currencyErr, status.Validate()); err != nil {
		return LedgerEntry{}, err
	}

	return LedgerEntry{
		id:            id,
		orderID:       orderID,
		transactionID: transactionID,
		amount:        amount,
		currency:      normalized,
		status:        status,
		createdAt:     createdAt.UTC(),
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (e LedgerEntry) Validate() error {
	return e.guard.Validate(ErrLedgerEntryIsNotConstructed)
}

func (e LedgerEntry) ID() kernel.UUID       { return e.id }
func (e LedgerEntry) OrderID() kernel.UUID  { return e.orderID }
func (e LedgerEntry) TransactionID() string { return e.transactionID }
func (e LedgerEntry) Amount() kernel.Money  { return e.amount }
func (e LedgerEntry) Currency() string      { return e.currency }
func (e LedgerEntry) Status() EntryStatus   { return e.status }
func (e LedgerEntry) CreatedAt() time.Time  { return e.createdAt }

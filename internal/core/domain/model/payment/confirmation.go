package payment

import (
	"errors"
	"fmt"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/pkg/errs"
)

// ErrIgnoredEvent is returned by gateways for authentic deliveries that carry no
// payment confirmation.
var ErrIgnoredEvent = errors.New("event is not a payment confirmation")

// ErrInvalidSignature is returned by gateways when a delivery fails verification.
var ErrInvalidSignature = errors.New("payment webhook signature is invalid")

// Outcome is what the processor reports for a transaction.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

func (o Outcome) Validate() error {
	switch o {
	case OutcomeSucceeded, OutcomeFailed:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("outcome", fmt.Errorf("%q is not a payment outcome", string(o)))
	}
}

// LedgerStatus maps the processor outcome to the ledger vocabulary.
func (o Outcome) LedgerStatus() EntryStatus {
	if o == OutcomeSucceeded {
		return EntrySuccess
	}
	return EntryFailed
}

// Confirmation is a verified, processor-agnostic payment confirmation. One transaction
// may settle several orders.
type Confirmation struct {
	TransactionID string
	AmountMinor   int64
	Currency      string
	OrderIDs      []kernel.UUID
	Outcome       Outcome
	// Method identifies the processor, e.g. "stripe"; it becomes the orders' payment method.
	Method string
}

// NewConfirmation normalizes the currency and drops duplicate order ids.
func NewConfirmation(
	transactionID string, amountMinor int64, currency string, orderIDs []kernel.UUID, outcome Outcome, method string,
) (Confirmation, error) {
	var problems []error
	if transactionID == "" {
		problems = append(problems, errs.NewValueIsRequiredError("transaction id"))
	}
	if method == "" {
		problems = append(problems, errs.NewValueIsRequiredError("payment method"))
	}
	if amountMinor < 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("amount", fmt.Errorf("%d is negative", amountMinor)))
	}
	if len(orderIDs) == 0 {
		problems = append(problems, errs.NewValueIsRequiredError("order ids"))
	}
	normalized, err := NormalizeCurrency(currency)
	problems = append(problems, err, outcome.Validate())

	unique := make([]kernel.UUID, 0, len(orderIDs))
	seen := make(map[kernel.UUID]struct{}, len(orderIDs))
	for _, id := range orderIDs {
		if err := id.Validate(); err != nil {
			problems = append(problems, err)
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if err := errors.Join(problems...); err != nil {
		return Confirmation{}, err
	}

	return Confirmation{
		TransactionID: transactionID,
		AmountMinor:   amountMinor,
		Currency:      normalized,
		OrderIDs:      unique,
		Outcome:       outcome,
		Method:        method,
	}, nil
}

// Amount is the confirmed amount in major units.
func (c Confirmation) Amount() (kernel.Money, error) {
	return FromMinorUnits(c.AmountMinor, c.Currency)
}

// IsBatch reports whether the transaction covers more than one order.
func (c Confirmation) IsBatch() bool {
	return len(c.OrderIDs) > 1
}

// CheckoutRequest asks the processor for a hosted payment page covering orders.
type CheckoutRequest struct {
	OrderIDs    []kernel.UUID
	AmountMinor int64
	Currency    string
	Description string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the processor's answer to a CheckoutRequest.
type CheckoutSession struct {
	SessionID string
	URL       string
}

package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/pkg/guard"
)

var ErrReconcilePaymentCommandIsNotConstructed = errors.New(
	"ReconcilePaymentCommand must be created via NewReconcilePaymentCommand constructor",
)

// ReconcilePaymentCommand carries one verified confirmation from the payment processor.
type ReconcilePaymentCommand struct { //nolint:recvcheck //using for validation
	confirmation payment.Confirmation

	guard guard.ConstructorGuard
}

// NewReconcilePaymentCommand re-validates the confirmation so that hand-built values get
// the same normalization as gateway-decoded ones.
func NewReconcilePaymentCommand(confirmation payment.Confirmation) (ReconcilePaymentCommand, error) {
	normalized, err := payment.NewConfirmation(
		confirmation.TransactionID,
		confirmation.AmountMinor,
		confirmation.Currency,
		confirmation.OrderIDs,
		confirmation.Outcome,
		confirmation.Method,
	)
	if err != nil {
		return ReconcilePaymentCommand{}, err
	}

	return ReconcilePaymentCommand{
		confirmation: normalized,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c ReconcilePaymentCommand) Validate() error {
	return c.guard.Validate(ErrReconcilePaymentCommandIsNotConstructed)
}

func (c ReconcilePaymentCommand) Confirmation() payment.Confirmation {
	return c.confirmation
}

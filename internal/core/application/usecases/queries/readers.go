package queries

import (
	"context"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/pkg/errs"
)

type (
	// OrderReader loads complete order aggregates.
	OrderReader interface {
		Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
	}

	// LedgerReader lists payment ledger entries.
	LedgerReader interface {
		ListByOrder(ctx context.Context, orderID kernel.UUID) ([]payment.LedgerEntry, error)
	}
)

func loadAccessible(ctx context.Context, orders OrderReader, principal kernel.Principal, id kernel.UUID) (*order.Order, error) {
	o, err := orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.AccessibleBy(principal) {
		return nil, errs.NewObjectNotFoundError("order", id)
	}
	return o, nil
}

func validatePrincipal(principal kernel.Principal) error {
	if err := principal.UserID.Validate(); err != nil {
		return err
	}
	return principal.Role.Validate()
}

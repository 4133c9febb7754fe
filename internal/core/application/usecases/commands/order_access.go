package commands

import (
	"context"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/ports"
	"dentallab/internal/pkg/errs"
)

// loadAccessible fetches the order and reports it as missing to principals outside its
// scope, so callers cannot probe for other people's orders.
func loadAccessible(
	ctx context.Context, repo ports.OrderRepository, principal kernel.Principal, id kernel.UUID,
) (*order.Order, error) {
	o, err := repo.Get(ctx, id)
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

package commands

import (
	"errors"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

var ErrCreateCheckoutCommandIsNotConstructed = errors.New(
	"CreateCheckoutCommand must be created via NewCreateCheckoutCommand constructor",
)

// CreateCheckoutCommand asks the payment processor for one hosted payment page
// covering one or more unpaid orders.
type CreateCheckoutCommand struct { //nolint:recvcheck //using for validation
	principal kernel.Principal
	orderIDs  []kernel.UUID
	currency  string

	guard guard.ConstructorGuard
}

// NewCreateCheckoutCommand drops duplicate ids. An empty currency means the handler's
// configured default.
func NewCreateCheckoutCommand(principal kernel.Principal, orderIDs []kernel.UUID, currency string) (CreateCheckoutCommand, error) {
	cmd := CreateCheckoutCommand{guard: guard.NewConstructorGuard()}

	var problems []error
	problems = append(problems, validatePrincipal(principal))
	if principal.Role == kernel.RoleDentist {
		problems = append(problems, errs.NewRoleNotAllowedError(principal.Role.String(), "pay for orders"))
	}
	if len(orderIDs) == 0 {
		problems = append(problems, errs.NewValueIsRequiredError("order ids"))
	}

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
		cmd.orderIDs = append(cmd.orderIDs, id)
	}

	if currency != "" {
		normalized, err := payment.NormalizeCurrency(currency)
		problems = append(problems, err)
		cmd.currency = normalized
	}

	if err := errors.Join(problems...); err != nil {
		return CreateCheckoutCommand{}, err
	}

	cmd.principal = principal
	return cmd, nil
}

func (c CreateCheckoutCommand) Validate() error {
	return c.guard.Validate(ErrCreateCheckoutCommandIsNotConstructed)
}

func (c CreateCheckoutCommand) Principal() kernel.Principal { return c.principal }
func (c CreateCheckoutCommand) Currency() string            { return c.currency }

func (c CreateCheckoutCommand) OrderIDs() []kernel.UUID {
	return append([]kernel.UUID(nil), c.orderIDs...)
}

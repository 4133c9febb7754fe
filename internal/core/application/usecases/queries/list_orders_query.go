package queries

import (
	"errors"
	"fmt"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/errs"
	"dentallab/internal/pkg/guard"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery pages through the orders the principal may see, newest first.
//
// Example:
//
//	query, err := NewListOrdersQuery(principal, "en_attente", 20, 0)
//	if err != nil {
//	    return err
//	}
//	orders, err := handler.Handle(ctx, query)
type ListOrdersQuery struct {
	principal kernel.Principal
	status    *order.Status
	limit     int
	offset    int

	guard guard.ConstructorGuard
}

// NewListOrdersQuery accepts an empty status (no filter) and a zero limit (the default).
func NewListOrdersQuery(principal kernel.Principal, status string, limit, offset int) (ListOrdersQuery, error) {
	q := ListOrdersQuery{
		limit:  limit,
		offset: offset,
		guard:  guard.NewConstructorGuard(),
	}
	if q.limit == 0 {
		q.limit = DefaultListLimit
	}

	var problems []error
	problems = append(problems, validatePrincipal(principal))
	if status != "" {
		parsed, err := order.ParseStatus(status)
		problems = append(problems, err)
		q.status = &parsed
	}
	if q.limit < 1 || q.limit > MaxListLimit {
		problems = append(problems, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxListLimit))
	}
	if offset < 0 {
		problems = append(problems, errs.NewValueIsInvalidErrorWithCause("offset", fmt.Errorf("%d is negative", offset)))
	}

	if err := errors.Join(problems...); err != nil {
		return ListOrdersQuery{}, err
	}

	q.principal = principal
	return q, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Principal() kernel.Principal { return q.principal }
func (q ListOrdersQuery) Status() *order.Status       { return q.status }
func (q ListOrdersQuery) Limit() int                  { return q.limit }
func (q ListOrdersQuery) Offset() int                 { return q.offset }

// ListOrdersQueryResponse is one row of the order list.
type ListOrdersQueryResponse struct {
	ID            kernel.UUID
	RequesterID   kernel.UUID
	DentistID     kernel.UUID
	PatientName   string
	Status        order.Status
	PaymentStatus order.PaymentStatus
	Total         kernel.Money
	ItemCount     int
	CreatedAt     time.Time
}

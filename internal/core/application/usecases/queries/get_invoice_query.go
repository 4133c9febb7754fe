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

const MaxInvoiceOrders = 50

var ErrGetInvoiceQueryIsNotConstructed = errors.New(
	"GetInvoiceQuery must be created via NewGetInvoiceQuery constructor",
)

// GetInvoiceQuery collects the data an invoice renderer needs for one or many orders.
// Repeated ids are dropped, keeping the first occurrence.
type GetInvoiceQuery struct {
	principal kernel.Principal
	orderIDs  []kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetInvoiceQuery(principal kernel.Principal, orderIDs []kernel.UUID) (GetInvoiceQuery, error) {
	problems := []error{validatePrincipal(principal)}

	unique := make([]kernel.UUID, 0, len(orderIDs))
	seen := make(map[kernel.UUID]struct{}, len(orderIDs))
	for i, id := range orderIDs {
		if err := id.Validate(); err != nil {
			problems = append(problems, fmt.Errorf("order id %d: %w", i, err))
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	switch {
	case len(orderIDs) == 0:
		problems = append(problems, errs.NewValueIsRequiredError("order ids"))
	case len(unique) > MaxInvoiceOrders:
		problems = append(problems, errs.NewValueIsOutOfRangeError("order ids", len(unique), 1, MaxInvoiceOrders))
	}

	if err := errors.Join(problems...); err != nil {
		return GetInvoiceQuery{}, err
	}

	return GetInvoiceQuery{
		principal: principal,
		orderIDs:  unique,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q GetInvoiceQuery) Validate() error {
	return q.guard.Validate(ErrGetInvoiceQueryIsNotConstructed)
}

func (q GetInvoiceQuery) Principal() kernel.Principal { return q.principal }

func (q GetInvoiceQuery) OrderIDs() []kernel.UUID {
	return append([]kernel.UUID(nil), q.orderIDs...)
}

type (
	// GetInvoiceQueryResponse is rendering-agnostic invoice data.
	GetInvoiceQueryResponse struct {
		Currency string
		IssuedAt time.Time
		Orders   []InvoiceOrder
		Total    kernel.Money
	}

	InvoiceOrder struct {
		OrderID        kernel.UUID
		PatientName    string
		Status         order.Status
		PaymentStatus  order.PaymentStatus
		TransactionRef string
		Items          []OrderItemResponse
		Total          kernel.Money
		CreatedAt      time.Time
	}
)

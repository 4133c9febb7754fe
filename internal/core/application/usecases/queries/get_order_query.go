package queries

import (
	"errors"
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/pkg/guard"
)

var ErrGetOrderQueryIsNotConstructed = errors.New(
	"GetOrderQuery must be created via NewGetOrderQuery constructor",
)

// GetOrderQuery reads one order as the given principal sees it.
type GetOrderQuery struct {
	principal kernel.Principal
	orderID   kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderQuery(principal kernel.Principal, orderID kernel.UUID) (GetOrderQuery, error) {
	if err := errors.Join(validatePrincipal(principal), orderID.Validate()); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{
		principal: principal,
		orderID:   orderID,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

func (q GetOrderQuery) Principal() kernel.Principal { return q.principal }
func (q GetOrderQuery) OrderID() kernel.UUID        { return q.orderID }

type (
	// GetOrderQueryResponse is the detailed order view. Files only contain what the
	// principal is allowed to see and AllowedTransitions lists the statuses the principal
	// may move the order to next.
	GetOrderQueryResponse struct {
		ID                 kernel.UUID
		RequesterID        kernel.UUID
		DentistID          kernel.UUID
		ClientID           *kernel.UUID
		PatientName        string
		PatientSex         string
		PatientAge         string
		Remark             string
		Model              string
		Status             order.Status
		PaymentStatus      order.PaymentStatus
		PaymentMethod      string
		TransactionRef     string
		Total              kernel.Money
		Items              []OrderItemResponse
		Files              []OrderFileResponse
		AllowedTransitions []order.Status
		CreatedAt          time.Time
		UpdatedAt          time.Time
	}

	OrderItemResponse struct {
		ID        kernel.UUID
		Category  string
		Subtype   string
		UnitPrice kernel.Money
		Upper     []int
		Lower     []int
	}

	OrderFileResponse struct {
		ID           kernel.UUID
		OriginalName string
		MimeType     string
		Size         int64
		URL          string
		UploaderRole kernel.Role
		CreatedAt    time.Time
	}
)

package order

import (
	"time"

	"dentallab/internal/core/domain/model/kernel"
)

type EventType string

const (
	EventCreated        EventType = "order.created"
	EventStatusChanged  EventType = "order.status_changed"
	EventPaymentApplied EventType = "order.payment_applied"
	EventItemsReplaced  EventType = "order.items_replaced"
)

// Event is a fact about an order recorded by the aggregate. The unit of work stores
// pending events in the outbox in the same transaction as the order itself.
type Event struct {
	ID             kernel.UUID
	Type           EventType
	OrderID        kernel.UUID
	PreviousStatus Status
	Status         Status
	PaymentStatus  PaymentStatus
	Total          kernel.Money
	OccurredAt     time.Time
}

func (o *Order) record(eventType EventType, previous Status) {
	o.events = append(o.events, Event{
		ID:             kernel.NewUUID(),
		Type:           eventType,
		OrderID:        o.id,
		PreviousStatus: previous,
		Status:         o.status,
		PaymentStatus:  o.paymentStatus,
		Total:          o.Total(),
		OccurredAt:     o.updatedAt,
	})
}

// Events returns the events recorded since the order was loaded or last saved.
func (o *Order) Events() []Event {
	return append([]Event(nil), o.events...)
}

// Package outboxrepo stores order domain events in the transactional outbox and
// serves them to the relay job.
package outboxrepo

import (
	"encoding/json"
	"time"

	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/ports"
)

type MessageDTO struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	AggregateID string     `gorm:"type:varchar(36);not null;index"`
	EventType   string     `gorm:"type:varchar(64);not null"`
	Payload     []byte     `gorm:"not null"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	PublishedAt *time.Time `gorm:"index"`
	RetryCount  int        `gorm:"not null;default:0"`
	LastError   *string    `gorm:"type:text"`
}

func (MessageDTO) TableName() string {
	return "outbox"
}

// eventPayload is the wire form published to the broker.
type eventPayload struct {
	EventID        string `json:"event_id"`
	Type           string `json:"type"`
	OrderID        string `json:"order_id"`
	PreviousStatus string `json:"previous_status,omitempty"`
	Status         string `json:"status"`
	PaymentStatus  string `json:"payment_status"`
	Total          string `json:"total"`
	OccurredAt     string `json:"occurred_at"`
}

func fromEvent(e order.Event) (MessageDTO, error) {
	payload, err := json.Marshal(eventPayload{
		EventID:        e.ID.String(),
		Type:           string(e.Type),
		OrderID:        e.OrderID.String(),
		PreviousStatus: e.PreviousStatus.String(),
		Status:         e.Status.String(),
		PaymentStatus:  e.PaymentStatus.String(),
		Total:          e.Total.String(),
		OccurredAt:     e.OccurredAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return MessageDTO{}, err
	}

	return MessageDTO{
		AggregateID: e.OrderID.String(),
		EventType:   string(e.Type),
		Payload:     payload,
		CreatedAt:   e.OccurredAt,
	}, nil
}

func toMessage(dto MessageDTO) ports.OutboxMessage {
	return ports.OutboxMessage{
		ID:          dto.ID,
		AggregateID: dto.AggregateID,
		EventType:   dto.EventType,
		Payload:     dto.Payload,
		CreatedAt:   dto.CreatedAt,
		RetryCount:  dto.RetryCount,
	}
}

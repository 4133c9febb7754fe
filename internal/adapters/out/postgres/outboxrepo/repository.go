package outboxrepo

import (
	"context"
	"time"

	"dentallab/internal/core/domain/model/order"
	"dentallab/internal/core/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository implements ports.OutboxRepository using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// Append stores events; it must run in the transaction that saved the order.
func (r *GormOutboxRepository) Append(ctx context.Context, events []order.Event) error {
	if len(events) == 0 {
		return nil
	}

	dtos := make([]MessageDTO, 0, len(events))
	for _, e := range events {
		dto, err := fromEvent(e)
		if err != nil {
			return err
		}
		dtos = append(dtos, dto)
	}
	return r.db.WithContext(ctx).Create(&dtos).Error
}

// FetchUnpublished locks pending rows so concurrent relays skip them.
func (r *GormOutboxRepository) FetchUnpublished(ctx context.Context, limit, maxRetries int) ([]ports.OutboxMessage, error) {
	var dtos []MessageDTO
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate, Options: clause.LockingOptionsSkipLocked}).
		Where("published_at IS NULL AND retry_count < ?", maxRetries).
		Order("created_at").
		Order("id").
		Limit(limit).
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(dtos))
	for _, dto := range dtos {
		messages = append(messages, toMessage(dto))
	}
	return messages, nil
}

func (r *GormOutboxRepository) MarkPublished(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&MessageDTO{}).
		Where("id = ?", id).
		Update("published_at", at.UTC()).Error
}

func (r *GormOutboxRepository) MarkFailed(ctx context.Context, id int64, reason string) error {
	return r.db.WithContext(ctx).
		Model(&MessageDTO{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  reason,
		}).Error
}

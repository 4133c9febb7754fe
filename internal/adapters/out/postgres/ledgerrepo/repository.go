package ledgerrepo

import (
	"context"
	"errors"
	"fmt"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"

	"gorm.io/gorm"
)

// GormLedgerRepository implements ports.LedgerRepository using GORM. The *gorm.DB must
// be opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
type GormLedgerRepository struct {
	db *gorm.DB
}

func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

func (r *GormLedgerRepository) Exists(
	ctx context.Context, orderID kernel.UUID, transactionID string, status payment.EntryStatus,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&LedgerEntryDTO{}).
		Where("order_id = ? AND transaction_id = ? AND status = ?", orderID.Bytes(), transactionID, status.String()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Add inserts entry; a unique violation is reported as payment.ErrDuplicateEntry.
func (r *GormLedgerRepository) Add(ctx context.Context, entry payment.LedgerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	dto := fromDomain(entry)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("order %s, transaction %s, %s: %w",
				entry.OrderID(), entry.TransactionID(), entry.Status(), payment.ErrDuplicateEntry)
		}
		return err
	}
	return nil
}

func (r *GormLedgerRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]payment.LedgerEntry, error) {
	var dtos []LedgerEntryDTO
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at").
		Find(&dtos).Error; err != nil {
		return nil, err
	}

	entries := make([]payment.LedgerEntry, 0, len(dtos))
	for _, dto := range dtos {
		e, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

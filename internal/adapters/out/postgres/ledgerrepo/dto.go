// Package ledgerrepo persists payment ledger entries. A unique index on
// (order_id, transaction_id, status) backs reconciliation idempotency across processes.
package ledgerrepo

import (
	"time"

	"dentallab/internal/core/domain/model/kernel"
	"dentallab/internal/core/domain/model/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LedgerEntryDTO struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_payment_ledger_order_tx"`
	TransactionID string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_payment_ledger_order_tx"`
	Amount        decimal.Decimal `gorm:"type:numeric;not null"`
	Currency      string          `gorm:"type:char(3);not null"`
	Status        string          `gorm:"type:varchar(16);not null;uniqueIndex:idx_payment_ledger_order_tx"`
	CreatedAt     time.Time       `gorm:"autoCreateTime:false;not null"`
}

func (LedgerEntryDTO) TableName() string {
	return "payment_ledger"
}

func fromDomain(e payment.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:            e.ID().Bytes(),
		OrderID:       e.OrderID().Bytes(),
		TransactionID: e.TransactionID(),
		Amount:        e.Amount().Decimal(),
		Currency:      e.Currency(),
		Status:        e.Status().String(),
		CreatedAt:     e.CreatedAt(),
	}
}

func toDomain(dto LedgerEntryDTO) (payment.LedgerEntry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return payment.LedgerEntry{}, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return payment.LedgerEntry{}, err
	}
	amount, err := kernel.NewMoney(dto.Amount)
	if err != nil {
		return payment.LedgerEntry{}, err
	}
	return payment.RestoreLedgerEntry(
		id, orderID, dto.TransactionID, amount, dto.Currency, payment.EntryStatus(dto.Status), dto.CreatedAt,
	)
}

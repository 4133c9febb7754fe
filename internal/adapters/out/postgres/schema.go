package postgres

import (
	"fmt"

	"dentallab/internal/adapters/out/postgres/ledgerrepo"
	"dentallab/internal/adapters/out/postgres/orderrepo"
	"dentallab/internal/adapters/out/postgres/outboxrepo"

	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DSN builds a PostgreSQL connection string.
func DSN(host, port, user, password, dbName, sslMode string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbName, sslMode)
}

// Open connects to PostgreSQL with duplicate-key translation enabled, which the ledger
// relies on.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgresdriver.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

// Migrate creates or updates every table used by the repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.WorkItemDTO{},
		&orderrepo.FileDTO{},
		&ledgerrepo.LedgerEntryDTO{},
		&outboxrepo.MessageDTO{},
	)
}

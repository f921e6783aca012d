package database

import (
	"fmt"
	"strings"

	"legal-portal/internal/domain/billing"
	"legal-portal/internal/domain/cases"
	"legal-portal/internal/domain/notifications"
	"legal-portal/internal/domain/quotes"
	"legal-portal/internal/domain/users"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const sqlitePrefix = "sqlite://"

// Open connects and migrates the schema. DB_URL is a Postgres DSN, or
// sqlite://<path> for local runs and tests.
func Open(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DB_URL not set")
	}

	var dialector gorm.Dialector
	isSQLite := strings.HasPrefix(dsn, sqlitePrefix)
	if isSQLite {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqlitePrefix) + "?_busy_timeout=5000&_foreign_keys=on")
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if isSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite allows one writer; serialize on a single connection.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("connected and migrated", zap.Bool("sqlite", isSQLite))
	return db, nil
}

// Migrate creates the tables and the indexes gorm tags cannot express.
// It runs against both Postgres and SQLite.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// collaborator views
		&users.User{},
		&cases.Case{},

		// payments
		&quotes.PricingQuote{},
		&billing.PaymentIntentRecord{},
		&billing.WebhookEvent{},

		// fan-out
		&notifications.Notification{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	// At most one completed checkout per quote.
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_payment_intents_quote_completed
		 ON payment_intents (quote_id) WHERE status = 'COMPLETED'`,
	).Error; err != nil {
		return fmt.Errorf("create completed-intent index: %w", err)
	}
	return nil
}

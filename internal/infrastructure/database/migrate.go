package database

import (
	"github.com/jetdesk/billing/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate creates or updates the tables the billing service owns or touches.
// companies and profiles normally exist already; AutoMigrate only adds the
// billing columns and indexes that are missing.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create pgcrypto extension", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Company{},
		&model.Profile{},
		&model.Payment{},
		&model.StripeWebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_retryable ON stripe_webhook_events (created_at) WHERE status IN ('pending', 'processing', 'failed')`,
		`CREATE INDEX IF NOT EXISTS idx_companies_reconcilable ON companies (updated_at) WHERE stripe_subscription_id IS NOT NULL AND subscription_status IS DISTINCT FROM 'canceled'`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

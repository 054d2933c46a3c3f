package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jetdesk/billing/internal/domain/model"
	"github.com/jetdesk/billing/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Events left in pending/processing longer than this are considered abandoned.
const stuckEventAge = 10 * time.Minute

type webhookEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookEventRepository creates a new webhook event repository
func NewWebhookEventRepository(db *gorm.DB, logger *zap.Logger) repository.WebhookEventRepository {
	return &webhookEventRepository{
		db:     db,
		logger: logger,
	}
}

// SaveEvent saves a new webhook event
func (r *webhookEventRepository) SaveEvent(ctx context.Context, eventID, eventType string, createdAt time.Time, data json.RawMessage) error {
	event := &model.StripeWebhookEvent{
		StripeEventID: eventID,
		EventType:     eventType,
		Status:        model.WebhookStatusPending,
		Data:          datatypes.JSON(data),
	}
	if !createdAt.IsZero() {
		event.StripeCreatedAt = &createdAt
	}

	// Redeliveries keep the original row and its status
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "stripe_event_id"}}, DoNothing: true}).
		Create(event).Error
	if err != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", eventID),
			zap.String("event_type", eventType),
			zap.Error(err))
		return fmt.Errorf("failed to save webhook event: %w", err)
	}

	return nil
}

// GetEvent retrieves a webhook event by ID
func (r *webhookEventRepository) GetEvent(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error) {
	var event model.StripeWebhookEvent

	err := r.db.WithContext(ctx).
		Where("stripe_event_id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

func (r *webhookEventRepository) MarkProcessing(ctx context.Context, eventID string) error {
	return r.setStatus(ctx, eventID, map[string]interface{}{
		"status":              model.WebhookStatusProcessing,
		"processing_attempts": gorm.Expr("processing_attempts + 1"),
	})
}

// MarkProcessed marks a webhook event as processed
func (r *webhookEventRepository) MarkProcessed(ctx context.Context, eventID string) error {
	now := time.Now()
	return r.setStatus(ctx, eventID, map[string]interface{}{
		"status":        model.WebhookStatusCompleted,
		"processed_at":  &now,
		"last_error":    nil,
		"next_retry_at": nil,
	})
}

// MarkFailed records the failure and schedules the next retry with exponential backoff.
func (r *webhookEventRepository) MarkFailed(ctx context.Context, eventID string, cause error) error {
	event, err := r.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}

	event.ScheduleRetry(cause, time.Now())

	return r.setStatus(ctx, eventID, map[string]interface{}{
		"status":        event.Status,
		"last_error":    event.LastError,
		"next_retry_at": event.NextRetryAt,
	})
}

func (r *webhookEventRepository) setStatus(ctx context.Context, eventID string, cols map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&model.StripeWebhookEvent{}).
		Where("stripe_event_id = ?", eventID).
		Updates(cols)
	if result.Error != nil {
		r.logger.Error("Failed to update webhook event",
			zap.String("event_id", eventID),
			zap.Any("status", cols["status"]),
			zap.Error(result.Error))
		return fmt.Errorf("failed to update webhook event: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("webhook event not found: %s", eventID)
	}
	return nil
}

// GetRetryableEvents retrieves failed events due for retry and abandoned pending ones.
func (r *webhookEventRepository) GetRetryableEvents(ctx context.Context, limit int) ([]*model.StripeWebhookEvent, error) {
	var events []*model.StripeWebhookEvent

	if err := retryableQuery(r.db.WithContext(ctx), time.Now(), limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to get retryable webhook events: %w", err)
	}
	return events, nil
}

func retryableQuery(tx *gorm.DB, now time.Time, limit int) *gorm.DB {
	group := tx.Session(&gorm.Session{NewDB: true})
	q := tx.Model(&model.StripeWebhookEvent{}).
		Where("processing_attempts < ?", model.MaxProcessingAttempts).
		Where(
			group.Where("status = ? AND (next_retry_at IS NULL OR next_retry_at <= ?)", model.WebhookStatusFailed, now).
				Or("status IN ? AND created_at <= ?",
					[]model.WebhookStatus{model.WebhookStatusPending, model.WebhookStatusProcessing},
					now.Add(-stuckEventAge)),
		).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return q
}

package model

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookStatus is where a delivered provider event sits in the processing pipeline.
type WebhookStatus string

const (
	WebhookStatusPending    WebhookStatus = "pending"
	WebhookStatusProcessing WebhookStatus = "processing"
	WebhookStatusCompleted  WebhookStatus = "completed"
	WebhookStatusFailed     WebhookStatus = "failed"
)

const (
	// MaxProcessingAttempts bounds how often a failed event is retried.
	MaxProcessingAttempts = 8

	firstRetryDelay = 5 * time.Minute
	maxRetryDelay   = 24 * time.Hour
)

// Done reports whether no further processing will happen for the status.
func (s WebhookStatus) Done() bool {
	return s == WebhookStatusCompleted
}

// RetryDelay doubles from 5m per attempt and caps at 24h.
func RetryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	d := firstRetryDelay
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	return d
}

// StripeWebhookEvent is one provider event as received, keyed by the provider's event id.
// Data keeps the raw payload so a failed event can be decoded again on replay.
type StripeWebhookEvent struct {
	ID                 int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	StripeEventID      string         `gorm:"unique;not null;size:255" json:"stripe_event_id"`
	EventType          string         `gorm:"not null;size:100;index" json:"event_type"`
	Status             WebhookStatus  `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Data               datatypes.JSON `gorm:"type:jsonb;not null" json:"data"`
	ProcessingAttempts int            `gorm:"default:0" json:"processing_attempts"`
	LastError          *string        `json:"last_error,omitempty"`
	NextRetryAt        *time.Time     `json:"next_retry_at,omitempty"`
	ProcessedAt        *time.Time     `json:"processed_at,omitempty"`
	StripeCreatedAt    *time.Time     `json:"stripe_created_at,omitempty"`
	CreatedAt          time.Time      `gorm:"default:now()" json:"created_at"`
}

func (StripeWebhookEvent) TableName() string {
	return "stripe_webhook_events"
}

// ScheduleRetry marks the event failed with cause and sets when it may be retried next.
func (e *StripeWebhookEvent) ScheduleRetry(cause error, now time.Time) {
	msg := cause.Error()
	next := now.Add(RetryDelay(e.ProcessingAttempts))
	e.Status = WebhookStatusFailed
	e.LastError = &msg
	e.NextRetryAt = &next
}

// Exhausted reports whether the event has used up its retries.
func (e *StripeWebhookEvent) Exhausted() bool {
	return e.ProcessingAttempts >= MaxProcessingAttempts
}

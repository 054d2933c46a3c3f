package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jetdesk/billing/internal/domain/model"
)

// WebhookEventRepository is the delivery log of provider events.
type WebhookEventRepository interface {
	// SaveEvent records the event as pending. Existing rows are left as they are.
	SaveEvent(ctx context.Context, eventID, eventType string, createdAt time.Time, data json.RawMessage) error
	GetEvent(ctx context.Context, eventID string) (*model.StripeWebhookEvent, error)
	MarkProcessing(ctx context.Context, eventID string) error
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, cause error) error
	// GetRetryableEvents returns failed or stuck pending events whose retry time has passed.
	GetRetryableEvents(ctx context.Context, limit int) ([]*model.StripeWebhookEvent, error)
}

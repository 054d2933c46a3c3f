package provider

import (
	"context"
	"fmt"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/event"
)

// BillingProvider is the subset of the payment provider API the service uses.
type BillingProvider interface {
	CreateCheckoutSession(ctx context.Context, req entity.CheckoutRequest) (*entity.CheckoutSession, error)

	// CancelAtPeriodEnd keeps the subscription billable until the current period ends.
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*entity.Subscription, error)

	GetSubscription(ctx context.Context, subscriptionID string) (*entity.Subscription, error)

	// GetUpcomingInvoice returns (nil, nil) when the subscription has no next invoice.
	GetUpcomingInvoice(ctx context.Context, customerID, subscriptionID string) (*entity.UpcomingInvoice, error)

	GetCustomerEmail(ctx context.Context, customerID string) (string, error)
}

// WebhookParser converts provider webhook payloads into typed events.
type WebhookParser interface {
	// ParseWebhook verifies the signature header, then decodes the payload.
	ParseWebhook(payload []byte, signature string) (event.Event, error)
	// DecodeEvent decodes a payload that was verified earlier (stored deliveries).
	DecodeEvent(payload []byte) (event.Event, error)
}

// ProviderError is returned when the provider rejects or fails a call.
type ProviderError struct {
	Provider   string `json:"provider"`
	Operation  string `json:"operation"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Err        error  `json:"-"`
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s %s failed (%s): %s", e.Provider, e.Operation, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Provider, e.Operation, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the provider said the resource does not exist.
func (e *ProviderError) IsNotFound() bool {
	return e.HTTPStatus == 404 || e.Code == "resource_missing"
}

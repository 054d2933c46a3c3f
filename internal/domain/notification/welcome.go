package notification

import "context"

// WelcomeMessage is sent once a company's first checkout completes.
type WelcomeMessage struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
	Email       string `json:"email"`
	ContactName string `json:"contact_name,omitempty"`
}

// WelcomeNotifier delivers or enqueues the welcome email.
type WelcomeNotifier interface {
	NotifyWelcome(ctx context.Context, msg WelcomeMessage) error
}

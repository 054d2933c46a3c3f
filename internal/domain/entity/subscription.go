package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Subscription is the live provider view. It is never stored locally.
type Subscription struct {
	ID                 string                `json:"id"`
	CustomerID         string                `json:"customer_id"`
	Status             string                `json:"status"`
	CurrentPeriodStart time.Time             `json:"current_period_start"`
	CurrentPeriodEnd   time.Time             `json:"current_period_end"`
	TrialStart         *time.Time            `json:"trial_start"`
	TrialEnd           *time.Time            `json:"trial_end"`
	CancelAtPeriodEnd  bool                  `json:"cancel_at_period_end"`
	CancelAt           *time.Time            `json:"cancel_at"`
	CanceledAt         *time.Time            `json:"canceled_at"`
	Plan               *Plan                 `json:"plan"`
	PaymentMethod      *PaymentMethodSummary `json:"payment_method"`
}

type Plan struct {
	PriceID       string          `json:"price_id"`
	Nickname      string          `json:"nickname,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	AmountCents   int64           `json:"amount_cents"`
	Currency      string          `json:"currency"`
	Interval      string          `json:"interval"`
	IntervalCount int64           `json:"interval_count"`
}

type PaymentMethodSummary struct {
	Type     string `json:"type"`
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last4,omitempty"`
	ExpMonth int64  `json:"exp_month,omitempty"`
	ExpYear  int64  `json:"exp_year,omitempty"`
}

type UpcomingInvoice struct {
	AmountDue          decimal.Decimal `json:"amount_due"`
	AmountDueCents     int64           `json:"amount_due_cents"`
	Currency           string          `json:"currency"`
	NextPaymentAttempt *time.Time      `json:"next_payment_attempt"`
}

// SubscriptionDetails is what the details endpoint returns for a subscribed company.
type SubscriptionDetails struct {
	Subscription    *Subscription    `json:"subscription"`
	UpcomingInvoice *UpcomingInvoice `json:"upcomingInvoice"`
	CustomerEmail   string           `json:"customerEmail"`
}

// CheckoutRequest describes the hosted subscription checkout to create.
type CheckoutRequest struct {
	CompanyID     string
	CustomerEmail string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"sessionId"`
	URL string `json:"url"`
}

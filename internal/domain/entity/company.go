package entity

import "time"

// SubscriptionStatus is the company-side billing state. Besides the values
// below it may hold any status string the provider reports.
type SubscriptionStatus string

const (
	StatusNone      SubscriptionStatus = ""
	StatusActive    SubscriptionStatus = "active"
	StatusTrialing  SubscriptionStatus = "trialing"
	StatusCanceling SubscriptionStatus = "canceling"
	StatusCanceled  SubscriptionStatus = "canceled"
	StatusPastDue   SubscriptionStatus = "past_due"
)

// GrantsAccess reports whether a company in this status is approved.
// past_due is not listed: it keeps whatever approval the company had.
func (s SubscriptionStatus) GrantsAccess() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusCanceling:
		return true
	}
	return false
}

// IsTerminal reports whether the subscription behind this status is finished.
func (s SubscriptionStatus) IsTerminal() bool {
	return s == StatusCanceled
}

type Company struct {
	ID                    string             `json:"id"`
	Name                  string             `json:"name"`
	BillingEmail          string             `json:"billing_email,omitempty"`
	Approved              bool               `json:"approved"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status,omitempty"`
	StripeCustomerID      string             `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID  string             `json:"stripe_subscription_id,omitempty"`
	SubscriptionStartDate *time.Time         `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time         `json:"subscription_end_date,omitempty"`
	LastEventAt           *time.Time         `json:"last_event_at,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

func (c *Company) HasSubscription() bool {
	return c.StripeSubscriptionID != ""
}

// CompanyUpdate is a set of unconditional field assignments on a company's
// billing fields. Nil fields are left untouched.
type CompanyUpdate struct {
	Approved              *bool
	SubscriptionStatus    *SubscriptionStatus
	StripeCustomerID      *string
	StripeSubscriptionID  *string
	SubscriptionStartDate *time.Time
	SubscriptionEndDate   *time.Time
	// ClearSubscriptionEndDate sets subscription_end_date to NULL.
	ClearSubscriptionEndDate bool

	// EventAt is the creation time of the provider event behind this update.
	// When set, the update is skipped if the company already applied a newer event.
	EventAt time.Time
}

func (u CompanyUpdate) IsEmpty() bool {
	return u.Approved == nil && u.SubscriptionStatus == nil && u.StripeCustomerID == nil &&
		u.StripeSubscriptionID == nil && u.SubscriptionStartDate == nil &&
		u.SubscriptionEndDate == nil && !u.ClearSubscriptionEndDate
}

// ApplyTo performs the assignments on c, including the event watermark.
// It returns false without touching c when c has already seen a newer event.
func (u CompanyUpdate) ApplyTo(c *Company) bool {
	if !u.EventAt.IsZero() && c.LastEventAt != nil && c.LastEventAt.After(u.EventAt) {
		return false
	}
	if u.Approved != nil {
		c.Approved = *u.Approved
	}
	if u.SubscriptionStatus != nil {
		c.SubscriptionStatus = *u.SubscriptionStatus
	}
	if u.StripeCustomerID != nil {
		c.StripeCustomerID = *u.StripeCustomerID
	}
	if u.StripeSubscriptionID != nil {
		c.StripeSubscriptionID = *u.StripeSubscriptionID
	}
	if u.SubscriptionStartDate != nil {
		t := *u.SubscriptionStartDate
		c.SubscriptionStartDate = &t
	}
	if u.ClearSubscriptionEndDate {
		c.SubscriptionEndDate = nil
	} else if u.SubscriptionEndDate != nil {
		t := *u.SubscriptionEndDate
		c.SubscriptionEndDate = &t
	}
	if !u.EventAt.IsZero() {
		t := u.EventAt
		c.LastEventAt = &t
	}
	return true
}

// ApplyResult tells callers what happened to a keyed company update.
type ApplyResult int

const (
	ApplyResultApplied ApplyResult = iota
	// No company matches the lookup key.
	ApplyResultNotFound
	// The company already applied a newer provider event.
	ApplyResultStale
)

func (r ApplyResult) String() string {
	switch r {
	case ApplyResultApplied:
		return "applied"
	case ApplyResultNotFound:
		return "not_found"
	case ApplyResultStale:
		return "stale"
	}
	return "unknown"
}

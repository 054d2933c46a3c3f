// Package event defines the provider webhook events the billing service reacts to.
//
// Each event type is its own struct and Event is a closed set: only types in
// this package implement it. Provider payloads are converted and validated
// into these types before any business logic runs.
package event

import (
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	TypeCheckoutCompleted       Type = "checkout.session.completed"
	TypeSubscriptionUpdated     Type = "customer.subscription.updated"
	TypeSubscriptionDeleted     Type = "customer.subscription.deleted"
	TypeInvoicePaymentSucceeded Type = "invoice.payment_succeeded"
	TypeInvoicePaymentFailed    Type = "invoice.payment_failed"
)

// ErrMalformed wraps validation failures of a known event type.
var ErrMalformed = errors.New("malformed event payload")

// Envelope is the metadata every provider event carries.
type Envelope struct {
	ID        string
	Type      Type
	CreatedAt time.Time
	Livemode  bool
}

func (e Envelope) Meta() Envelope { return e }

func (Envelope) sealed() {}

type Event interface {
	Meta() Envelope
	Validate() error
	sealed()
}

type CheckoutCompleted struct {
	Envelope
	SessionID       string
	CompanyID       string
	CustomerID      string
	SubscriptionID  string
	PaymentIntentID string
	CustomerEmail   string
	AmountTotal     int64
	Currency        string
}

func (e CheckoutCompleted) Validate() error {
	switch {
	case e.SessionID == "":
		return malformed(e.Type, "session id")
	case e.CompanyID == "":
		return malformed(e.Type, "metadata.company_id")
	case e.CustomerID == "":
		return malformed(e.Type, "customer")
	case e.SubscriptionID == "":
		return malformed(e.Type, "subscription")
	}
	return nil
}

type SubscriptionUpdated struct {
	Envelope
	SubscriptionID    string
	CustomerID        string
	Status            string
	CancelAtPeriodEnd bool
	CancelAt          *time.Time
	CurrentPeriodEnd  time.Time
}

func (e SubscriptionUpdated) Validate() error {
	switch {
	case e.CustomerID == "":
		return malformed(e.Type, "customer")
	case e.Status == "":
		return malformed(e.Type, "status")
	}
	return nil
}

type SubscriptionDeleted struct {
	Envelope
	SubscriptionID string
	CustomerID     string
}

func (e SubscriptionDeleted) Validate() error {
	if e.CustomerID == "" {
		return malformed(e.Type, "customer")
	}
	return nil
}

type InvoicePaymentSucceeded struct {
	Envelope
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AmountPaid     int64
	Currency       string
}

func (e InvoicePaymentSucceeded) Validate() error {
	if e.CustomerID == "" {
		return malformed(e.Type, "customer")
	}
	return nil
}

type InvoicePaymentFailed struct {
	Envelope
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AttemptCount   int64
}

func (e InvoicePaymentFailed) Validate() error {
	if e.CustomerID == "" {
		return malformed(e.Type, "customer")
	}
	return nil
}

// Unhandled is any event type the service does not act on.
type Unhandled struct {
	Envelope
}

func (Unhandled) Validate() error { return nil }

func malformed(t Type, field string) error {
	return fmt.Errorf("%w: %s missing %s", ErrMalformed, t, field)
}

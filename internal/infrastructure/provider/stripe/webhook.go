package stripe

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	domainErrors "github.com/jetdesk/billing/internal/domain/errors"
	"github.com/jetdesk/billing/internal/domain/event"
)

// ParseWebhook verifies the Stripe-Signature header against the endpoint
// secret and converts the payload into a typed event.
func (s *StripeProvider) ParseWebhook(payload []byte, signature string) (event.Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		if signatureFailure(err) {
			return nil, fmt.Errorf("%w: %v", domainErrors.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", event.ErrMalformed, err)
	}
	return toEvent(evt)
}

// signatureFailure separates a rejected signature from a verified body that does not decode.
func signatureFailure(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrTooOld)
}

// DecodeEvent converts a stored, already verified payload.
func (s *StripeProvider) DecodeEvent(payload []byte) (event.Event, error) {
	var evt stripeapi.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("%w: %v", event.ErrMalformed, err)
	}
	return toEvent(evt)
}

func toEvent(evt stripeapi.Event) (event.Event, error) {
	env := event.Envelope{
		ID:        evt.ID,
		Type:      event.Type(evt.Type),
		CreatedAt: time.Unix(evt.Created, 0).UTC(),
		Livemode:  evt.Livemode,
	}
	if evt.ID == "" {
		return nil, fmt.Errorf("%w: event id missing", event.ErrMalformed)
	}

	var raw json.RawMessage
	if evt.Data != nil {
		raw = evt.Data.Raw
	}

	var out event.Event
	switch env.Type {
	case event.TypeCheckoutCompleted:
		var sess stripeapi.CheckoutSession
		if err := decodeObject(env.Type, raw, &sess); err != nil {
			return nil, err
		}
		out = checkoutCompleted(env, &sess)

	case event.TypeSubscriptionUpdated, event.TypeSubscriptionDeleted:
		var sub stripeapi.Subscription
		if err := decodeObject(env.Type, raw, &sub); err != nil {
			return nil, err
		}
		if env.Type == event.TypeSubscriptionDeleted {
			out = event.SubscriptionDeleted{
				Envelope:       env,
				SubscriptionID: sub.ID,
				CustomerID:     customerID(sub.Customer),
			}
		} else {
			out = event.SubscriptionUpdated{
				Envelope:          env,
				SubscriptionID:    sub.ID,
				CustomerID:        customerID(sub.Customer),
				Status:            string(sub.Status),
				CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
				CancelAt:          unixPtr(sub.CancelAt),
				CurrentPeriodEnd:  time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
			}
		}

	case event.TypeInvoicePaymentSucceeded, event.TypeInvoicePaymentFailed:
		var inv stripeapi.Invoice
		if err := decodeObject(env.Type, raw, &inv); err != nil {
			return nil, err
		}
		var subID string
		if inv.Subscription != nil {
			subID = inv.Subscription.ID
		}
		if env.Type == event.TypeInvoicePaymentSucceeded {
			out = event.InvoicePaymentSucceeded{
				Envelope:       env,
				InvoiceID:      inv.ID,
				CustomerID:     customerID(inv.Customer),
				SubscriptionID: subID,
				AmountPaid:     inv.AmountPaid,
				Currency:       string(inv.Currency),
			}
		} else {
			out = event.InvoicePaymentFailed{
				Envelope:       env,
				InvoiceID:      inv.ID,
				CustomerID:     customerID(inv.Customer),
				SubscriptionID: subID,
				AttemptCount:   inv.AttemptCount,
			}
		}

	default:
		out = event.Unhandled{Envelope: env}
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func checkoutCompleted(env event.Envelope, sess *stripeapi.CheckoutSession) event.CheckoutCompleted {
	e := event.CheckoutCompleted{
		Envelope:      env,
		SessionID:     sess.ID,
		CompanyID:     sess.Metadata["company_id"],
		CustomerID:    customerID(sess.Customer),
		CustomerEmail: sess.CustomerEmail,
		AmountTotal:   sess.AmountTotal,
		Currency:      string(sess.Currency),
	}
	if e.CompanyID == "" {
		e.CompanyID = sess.ClientReferenceID
	}
	if e.CustomerEmail == "" && sess.CustomerDetails != nil {
		e.CustomerEmail = sess.CustomerDetails.Email
	}
	if sess.Subscription != nil {
		e.SubscriptionID = sess.Subscription.ID
	}
	if sess.PaymentIntent != nil {
		e.PaymentIntentID = sess.PaymentIntent.ID
	}
	return e
}

func decodeObject(t event.Type, raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: %s has no data object", event.ErrMalformed, t)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", event.ErrMalformed, t, err)
	}
	return nil
}

func customerID(c *stripeapi.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

// Package billing holds the company subscription state machine.
//
//	(none) -> active <-> past_due
//	active -> canceling -> canceled
//	past_due -> canceled
//
// Every transition is a set of unconditional field assignments, so applying
// the same event twice converges to the same row.
package billing

import (
	"time"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/event"
)

// CheckoutCompleted approves the company and records the provider ids.
func CheckoutCompleted(e event.CheckoutCompleted, now time.Time) entity.CompanyUpdate {
	return entity.CompanyUpdate{
		Approved:              ptr(true),
		SubscriptionStatus:    ptr(entity.StatusActive),
		StripeCustomerID:      ptr(e.CustomerID),
		StripeSubscriptionID:  ptr(e.SubscriptionID),
		SubscriptionStartDate: ptr(now),
		EventAt:               e.CreatedAt,
	}
}

// SubscriptionUpdated mirrors the provider status. A subscription still
// billing but flagged to cancel at period end is reported as canceling.
// Approval is left alone.
func SubscriptionUpdated(e event.SubscriptionUpdated) entity.CompanyUpdate {
	u := entity.CompanyUpdate{
		SubscriptionStatus: ptr(StatusFromProvider(e.Status, e.CancelAtPeriodEnd)),
		EventAt:            e.CreatedAt,
	}
	if e.CancelAt != nil {
		u.SubscriptionEndDate = ptr(*e.CancelAt)
	} else {
		u.ClearSubscriptionEndDate = true
	}
	return u
}

// SubscriptionDeleted revokes access. This is the only transition that sets approved=false.
func SubscriptionDeleted(e event.SubscriptionDeleted, now time.Time) entity.CompanyUpdate {
	return entity.CompanyUpdate{
		Approved:            ptr(false),
		SubscriptionStatus:  ptr(entity.StatusCanceled),
		SubscriptionEndDate: ptr(now),
		EventAt:             e.CreatedAt,
	}
}

// InvoicePaid restores a past_due company.
func InvoicePaid(e event.InvoicePaymentSucceeded) entity.CompanyUpdate {
	return entity.CompanyUpdate{
		Approved:           ptr(true),
		SubscriptionStatus: ptr(entity.StatusActive),
		EventAt:            e.CreatedAt,
	}
}

// InvoiceFailed marks the company past_due without revoking access; the
// provider's dunning ends in a deletion event if payment never clears.
func InvoiceFailed(e event.InvoicePaymentFailed) entity.CompanyUpdate {
	return entity.CompanyUpdate{
		SubscriptionStatus: ptr(entity.StatusPastDue),
		EventAt:            e.CreatedAt,
	}
}

// CancellationRequested is applied after the provider accepted cancel-at-period-end.
func CancellationRequested() entity.CompanyUpdate {
	return entity.CompanyUpdate{
		SubscriptionStatus: ptr(entity.StatusCanceling),
	}
}

// FromSubscription derives the update the webhooks would have produced from a
// live subscription. Used by reconciliation.
func FromSubscription(sub *entity.Subscription, now time.Time) entity.CompanyUpdate {
	if sub.Status == string(entity.StatusCanceled) {
		end := now
		if sub.CanceledAt != nil {
			end = *sub.CanceledAt
		}
		return entity.CompanyUpdate{
			Approved:            ptr(false),
			SubscriptionStatus:  ptr(entity.StatusCanceled),
			SubscriptionEndDate: ptr(end),
		}
	}

	status := StatusFromProvider(sub.Status, sub.CancelAtPeriodEnd)
	u := entity.CompanyUpdate{SubscriptionStatus: ptr(status)}
	if status.GrantsAccess() {
		u.Approved = ptr(true)
	}
	if sub.CancelAt != nil {
		u.SubscriptionEndDate = ptr(*sub.CancelAt)
	} else {
		u.ClearSubscriptionEndDate = true
	}
	return u
}

// StatusFromProvider maps a provider subscription status to the company status.
func StatusFromProvider(status string, cancelAtPeriodEnd bool) entity.SubscriptionStatus {
	s := entity.SubscriptionStatus(status)
	if cancelAtPeriodEnd && (s == entity.StatusActive || s == entity.StatusTrialing) {
		return entity.StatusCanceling
	}
	return s
}

// LedgerEntry builds the payment row recorded for a completed checkout.
func LedgerEntry(e event.CheckoutCompleted) *entity.Payment {
	return &entity.Payment{
		CompanyID:               e.CompanyID,
		ProviderSessionID:       e.SessionID,
		ProviderPaymentIntentID: e.PaymentIntentID,
		AmountCents:             e.AmountTotal,
		Amount:                  entity.MajorUnits(e.AmountTotal, e.Currency),
		Currency:                e.Currency,
		Status:                  entity.PaymentStatusSucceeded,
	}
}

func ptr[T any](v T) *T {
	return &v
}

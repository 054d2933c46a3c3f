package billing

import (
	"testing"
	"time"

	"github.com/jetdesk/billing/internal/domain/entity"
	"github.com/jetdesk/billing/internal/domain/event"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0  = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now = t0.Add(time.Hour)
)

func env(typ event.Type, at time.Time) event.Envelope {
	return event.Envelope{ID: "evt_" + string(typ), Type: typ, CreatedAt: at}
}

func checkout() event.CheckoutCompleted {
	return event.CheckoutCompleted{
		Envelope:        env(event.TypeCheckoutCompleted, t0),
		SessionID:       "cs_1",
		CompanyID:       "c1",
		CustomerID:      "cus_1",
		SubscriptionID:  "sub_1",
		PaymentIntentID: "pi_1",
		AmountTotal:     49900,
		Currency:        "usd",
	}
}

func TestCheckoutCompleted_ApprovesFreshCompany(t *testing.T) {
	c := &entity.Company{ID: "c1"}

	require.True(t, CheckoutCompleted(checkout(), now).ApplyTo(c))

	assert.True(t, c.Approved)
	assert.Equal(t, entity.StatusActive, c.SubscriptionStatus)
	assert.Equal(t, "cus_1", c.StripeCustomerID)
	assert.Equal(t, "sub_1", c.StripeSubscriptionID)
	assert.Equal(t, now, *c.SubscriptionStartDate)
}

func TestCheckoutCompleted_Idempotent(t *testing.T) {
	once := &entity.Company{ID: "c1"}
	twice := &entity.Company{ID: "c1"}

	CheckoutCompleted(checkout(), now).ApplyTo(once)
	CheckoutCompleted(checkout(), now).ApplyTo(twice)
	CheckoutCompleted(checkout(), now).ApplyTo(twice)

	assert.Equal(t, once, twice)
}

func TestSubscriptionUpdated(t *testing.T) {
	cancelAt := t0.Add(30 * 24 * time.Hour)

	tests := []struct {
		name       string
		event      event.SubscriptionUpdated
		wantStatus entity.SubscriptionStatus
		wantEnd    *time.Time
	}{
		{
			name:       "active mirrors provider",
			event:      event.SubscriptionUpdated{Status: "active"},
			wantStatus: entity.StatusActive,
		},
		{
			name:       "cancel at period end becomes canceling",
			event:      event.SubscriptionUpdated{Status: "active", CancelAtPeriodEnd: true, CancelAt: &cancelAt},
			wantStatus: entity.StatusCanceling,
			wantEnd:    &cancelAt,
		},
		{
			name:       "unknown provider status kept verbatim",
			event:      event.SubscriptionUpdated{Status: "unpaid"},
			wantStatus: "unpaid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end := t0
			c := &entity.Company{ID: "c1", Approved: true, SubscriptionEndDate: &end}

			SubscriptionUpdated(tt.event).ApplyTo(c)

			assert.Equal(t, tt.wantStatus, c.SubscriptionStatus)
			assert.Equal(t, tt.wantEnd, c.SubscriptionEndDate)
			assert.True(t, c.Approved, "approval is not touched by subscription updates")
		})
	}
}

func TestSubscriptionDeleted_RevokesCancelingCompany(t *testing.T) {
	c := &entity.Company{ID: "c1", Approved: true, SubscriptionStatus: entity.StatusCanceling, StripeSubscriptionID: "sub_1"}

	SubscriptionDeleted(event.SubscriptionDeleted{CustomerID: "cus_1"}, now).ApplyTo(c)

	assert.False(t, c.Approved)
	assert.Equal(t, entity.StatusCanceled, c.SubscriptionStatus)
	assert.Equal(t, now, *c.SubscriptionEndDate)
	assert.Equal(t, "sub_1", c.StripeSubscriptionID)
}

func TestInvoiceFailedThenPaid(t *testing.T) {
	c := &entity.Company{ID: "c1", Approved: true, SubscriptionStatus: entity.StatusActive}

	InvoiceFailed(event.InvoicePaymentFailed{CustomerID: "cus_1"}).ApplyTo(c)
	assert.Equal(t, entity.StatusPastDue, c.SubscriptionStatus)
	assert.True(t, c.Approved, "past_due keeps access")

	InvoicePaid(event.InvoicePaymentSucceeded{CustomerID: "cus_1"}).ApplyTo(c)
	assert.Equal(t, entity.StatusActive, c.SubscriptionStatus)
	assert.True(t, c.Approved)
}

func TestCancellationRequested(t *testing.T) {
	c := &entity.Company{ID: "c1", Approved: true, SubscriptionStatus: entity.StatusActive, StripeSubscriptionID: "sub_1"}

	CancellationRequested().ApplyTo(c)

	assert.Equal(t, entity.StatusCanceling, c.SubscriptionStatus)
	assert.True(t, c.Approved)
	assert.Equal(t, "sub_1", c.StripeSubscriptionID)
}

func TestOutOfOrderDelivery(t *testing.T) {
	c := &entity.Company{ID: "c1", Approved: true, SubscriptionStatus: entity.StatusCanceling}

	deleted := event.SubscriptionDeleted{Envelope: env(event.TypeSubscriptionDeleted, t0.Add(2*time.Minute)), CustomerID: "cus_1"}
	staleUpdate := event.SubscriptionUpdated{Envelope: env(event.TypeSubscriptionUpdated, t0.Add(time.Minute)), CustomerID: "cus_1", Status: "active"}

	require.True(t, SubscriptionDeleted(deleted, now).ApplyTo(c))
	assert.False(t, SubscriptionUpdated(staleUpdate).ApplyTo(c))

	assert.Equal(t, entity.StatusCanceled, c.SubscriptionStatus)
	assert.False(t, c.Approved)
}

func TestFromSubscription(t *testing.T) {
	canceledAt := t0.Add(-time.Hour)

	live := FromSubscription(&entity.Subscription{Status: "active", CancelAtPeriodEnd: true, CancelAt: &now}, now)
	assert.Equal(t, entity.StatusCanceling, *live.SubscriptionStatus)
	assert.True(t, *live.Approved)
	assert.Equal(t, now, *live.SubscriptionEndDate)

	gone := FromSubscription(&entity.Subscription{Status: "canceled", CanceledAt: &canceledAt}, now)
	assert.Equal(t, entity.StatusCanceled, *gone.SubscriptionStatus)
	assert.False(t, *gone.Approved)
	assert.Equal(t, canceledAt, *gone.SubscriptionEndDate)

	pastDue := FromSubscription(&entity.Subscription{Status: "past_due"}, now)
	assert.Nil(t, pastDue.Approved)
	assert.True(t, pastDue.ClearSubscriptionEndDate)
}

func TestLedgerEntry(t *testing.T) {
	p := LedgerEntry(checkout())

	assert.Equal(t, "c1", p.CompanyID)
	assert.Equal(t, "cs_1", p.ProviderSessionID)
	assert.Equal(t, "pi_1", p.ProviderPaymentIntentID)
	assert.Equal(t, int64(49900), p.AmountCents)
	assert.True(t, decimal.RequireFromString("499").Equal(p.Amount))
	assert.Equal(t, entity.PaymentStatusSucceeded, p.Status)
}

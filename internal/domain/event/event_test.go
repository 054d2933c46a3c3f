package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	env := Envelope{ID: "evt_1", Type: TypeCheckoutCompleted}

	tests := []struct {
		name    string
		event   Event
		wantErr string
	}{
		{
			name:  "complete checkout",
			event: CheckoutCompleted{Envelope: env, SessionID: "cs_1", CompanyID: "c1", CustomerID: "cus_1", SubscriptionID: "sub_1"},
		},
		{
			name:    "checkout without company metadata",
			event:   CheckoutCompleted{Envelope: env, SessionID: "cs_1", CustomerID: "cus_1", SubscriptionID: "sub_1"},
			wantErr: "metadata.company_id",
		},
		{
			name:    "subscription update without status",
			event:   SubscriptionUpdated{Envelope: Envelope{Type: TypeSubscriptionUpdated}, CustomerID: "cus_1"},
			wantErr: "status",
		},
		{
			name:    "deleted without customer",
			event:   SubscriptionDeleted{Envelope: Envelope{Type: TypeSubscriptionDeleted}},
			wantErr: "customer",
		},
		{
			name:  "unhandled is always valid",
			event: Unhandled{Envelope: Envelope{Type: "customer.updated"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrMalformed))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMeta(t *testing.T) {
	var e Event = InvoicePaymentFailed{Envelope: Envelope{ID: "evt_9", Type: TypeInvoicePaymentFailed}, CustomerID: "cus_1"}
	assert.Equal(t, "evt_9", e.Meta().ID)
	assert.Equal(t, TypeInvoicePaymentFailed, e.Meta().Type)
}

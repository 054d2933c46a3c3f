package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const PaymentStatusSucceeded PaymentStatus = "succeeded"

// Payment is an append-only ledger entry, one per completed checkout session.
type Payment struct {
	ID                      uuid.UUID       `json:"id"`
	CompanyID               string          `json:"company_id"`
	ProviderSessionID       string          `json:"provider_session_id"`
	ProviderPaymentIntentID string          `json:"provider_payment_intent_id,omitempty"`
	AmountCents             int64           `json:"amount_cents"`
	Amount                  decimal.Decimal `json:"amount"`
	Currency                string          `json:"currency"`
	Status                  PaymentStatus   `json:"status"`
	CreatedAt               time.Time       `json:"created_at"`
}

// Currencies Stripe bills without a minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true, "kmf": true,
	"krw": true, "mga": true, "pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// MajorUnits converts a provider amount in the currency's smallest unit
// into a decimal amount in major units.
func MajorUnits(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

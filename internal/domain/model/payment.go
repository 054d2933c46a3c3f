package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payment is a ledger row. Rows are inserted once and never updated.
type Payment struct {
	ID                      uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CompanyID               string          `gorm:"type:text;not null;index" json:"company_id"`
	ProviderSessionID       string          `gorm:"column:provider_session_id;type:text;not null;uniqueIndex" json:"provider_session_id"`
	ProviderPaymentIntentID *string         `gorm:"column:provider_payment_intent_id;type:text" json:"provider_payment_intent_id,omitempty"`
	AmountCents             int64           `gorm:"not null" json:"amount_cents"`
	Amount                  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency                string          `gorm:"size:3;not null" json:"currency"`
	Status                  string          `gorm:"size:50;not null" json:"status"`
	CreatedAt               time.Time       `gorm:"default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

package model

import "time"

// Company is the tenant row. Only the billing columns are written by this service.
type Company struct {
	ID                    string     `gorm:"primaryKey;type:text" json:"id"`
	Name                  string     `gorm:"type:text" json:"name"`
	BillingEmail          *string    `gorm:"type:text" json:"billing_email,omitempty"`
	Approved              bool       `gorm:"not null;default:false" json:"approved"`
	SubscriptionStatus    *string    `gorm:"type:text;index" json:"subscription_status,omitempty"`
	StripeCustomerID      *string    `gorm:"type:text;uniqueIndex" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID  *string    `gorm:"type:text;index" json:"stripe_subscription_id,omitempty"`
	SubscriptionStartDate *time.Time `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date,omitempty"`
	LastEventAt           *time.Time `json:"last_event_at,omitempty"`
	CreatedAt             time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt             time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Company) TableName() string {
	return "companies"
}

package repository

import (
	"context"

	"github.com/jetdesk/billing/internal/domain/entity"
)

// CompanyRepository reads companies and applies billing updates to them.
// Lookups return (nil, nil) when the row does not exist.
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	GetByCustomerID(ctx context.Context, customerID string) (*entity.Company, error)

	// ApplyByID and ApplyByCustomerID write the update in a single statement.
	// Updates carrying EventAt are skipped when the row holds a newer last_event_at.
	ApplyByID(ctx context.Context, id string, update entity.CompanyUpdate) (entity.ApplyResult, error)
	ApplyByCustomerID(ctx context.Context, customerID string, update entity.CompanyUpdate) (entity.ApplyResult, error)

	// ListReconcilable returns companies holding a subscription id whose status is not terminal.
	ListReconcilable(ctx context.Context, limit int) ([]*entity.Company, error)
}
